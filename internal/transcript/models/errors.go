package models

import (
	"fmt"

	"transcript/pkg/domain"
	dErrors "transcript/pkg/domain-errors"
)

// ErrorKind names a registry rejection.
type ErrorKind string

const (
	KindNotAuthorized                ErrorKind = "not_authorized"
	KindInvalidIdentifier            ErrorKind = "invalid_identifier"
	KindInvalidFingerprint           ErrorKind = "invalid_fingerprint"
	KindFingerprintAlreadyRegistered ErrorKind = "fingerprint_already_registered"
	KindIdentifierAlreadyMinted      ErrorKind = "identifier_already_minted"
	KindNotMinted                    ErrorKind = "not_minted"
)

// Code maps the rejection onto the shared domain-error codes.
func (k ErrorKind) Code() dErrors.Code {
	switch k {
	case KindNotAuthorized:
		return dErrors.CodeForbidden
	case KindInvalidIdentifier, KindInvalidFingerprint:
		return dErrors.CodeValidation
	case KindFingerprintAlreadyRegistered, KindIdentifierAlreadyMinted:
		return dErrors.CodeConflict
	case KindNotMinted:
		return dErrors.CodeNotFound
	default:
		return dErrors.CodeInternal
	}
}

// Error is a registry rejection. It carries the offending values so the
// caller can attribute the failure; errors.Is matches on Kind alone.
type Error struct {
	Kind    ErrorKind
	Caller  domain.Address
	TokenID domain.TokenID
	PDFHash domain.PDFHash
}

// Targets for errors.Is.
var (
	ErrNotAuthorized                = &Error{Kind: KindNotAuthorized}
	ErrInvalidIdentifier            = &Error{Kind: KindInvalidIdentifier}
	ErrInvalidFingerprint           = &Error{Kind: KindInvalidFingerprint}
	ErrFingerprintAlreadyRegistered = &Error{Kind: KindFingerprintAlreadyRegistered}
	ErrIdentifierAlreadyMinted      = &Error{Kind: KindIdentifierAlreadyMinted}
	ErrNotMinted                    = &Error{Kind: KindNotMinted}
)

func NotAuthorized(caller domain.Address) *Error {
	return &Error{Kind: KindNotAuthorized, Caller: caller}
}

func InvalidIdentifier(tokenID domain.TokenID) *Error {
	return &Error{Kind: KindInvalidIdentifier, TokenID: tokenID}
}

func InvalidFingerprint(hash domain.PDFHash) *Error {
	return &Error{Kind: KindInvalidFingerprint, PDFHash: hash}
}

func FingerprintAlreadyRegistered(tokenID domain.TokenID, hash domain.PDFHash) *Error {
	return &Error{Kind: KindFingerprintAlreadyRegistered, TokenID: tokenID, PDFHash: hash}
}

func IdentifierAlreadyMinted(tokenID domain.TokenID, hash domain.PDFHash) *Error {
	return &Error{Kind: KindIdentifierAlreadyMinted, TokenID: tokenID, PDFHash: hash}
}

func NotMinted(tokenID domain.TokenID) *Error {
	return &Error{Kind: KindNotMinted, TokenID: tokenID}
}

// Error renders the attributed form, e.g. IdentifierAlreadyMinted(1234, 0xab..).
func (e *Error) Error() string {
	switch e.Kind {
	case KindNotAuthorized:
		return fmt.Sprintf("NotAuthorized(%s)", e.Caller.Hex())
	case KindInvalidIdentifier:
		return fmt.Sprintf("InvalidIdentifier(%s)", e.TokenID)
	case KindInvalidFingerprint:
		return fmt.Sprintf("InvalidFingerprint(%s)", e.PDFHash.Hex())
	case KindFingerprintAlreadyRegistered:
		return fmt.Sprintf("FingerprintAlreadyRegistered(%s, %s)", e.TokenID, e.PDFHash.Hex())
	case KindIdentifierAlreadyMinted:
		return fmt.Sprintf("IdentifierAlreadyMinted(%s, %s)", e.TokenID, e.PDFHash.Hex())
	case KindNotMinted:
		return fmt.Sprintf("NotMinted(%s)", e.TokenID)
	default:
		return "registry error: " + string(e.Kind)
	}
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ErrorCode implements domainerrors.Coder.
func (e *Error) ErrorCode() dErrors.Code { return e.Kind.Code() }

// ErrorKind exposes the machine-readable kind to transports.
func (e *Error) ErrorKind() string { return string(e.Kind) }
