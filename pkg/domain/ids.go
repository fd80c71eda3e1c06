// Package domain holds the primitive types shared across the registry:
// token identifiers, document fingerprints and principal addresses.
//
// Parsing happens at trust boundaries (HTTP, CLI, config). Parse functions
// reject malformed text; they do not reject the reserved zero values, because
// the registry reports those with its own attributed errors.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	dErrors "transcript/pkg/domain-errors"
)

// maxInputLength bounds text accepted by the parsers.
const maxInputLength = 128

// TokenID is the externally assigned identifier of a registry record.
// Zero is reserved and never valid as a key.
type TokenID uint64

// ParseTokenID parses a base-10 token identifier.
func ParseTokenID(s string) (TokenID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id is required")
	}
	if len(s) > maxInputLength {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id is too long")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id must be a base-10 unsigned integer")
	}
	return TokenID(v), nil
}

// IsZero reports whether the identifier is the reserved zero value.
func (t TokenID) IsZero() bool { return t == 0 }

func (t TokenID) String() string { return strconv.FormatUint(uint64(t), 10) }

// PDFHashLength is the size of a document fingerprint in bytes.
const PDFHashLength = common.HashLength

// PDFHash is the 32-byte content fingerprint of a PDF document.
// The all-zero value is reserved and never valid as a key.
type PDFHash common.Hash

// ParsePDFHash parses a 0x-prefixed, 64 hex digit fingerprint.
func ParsePDFHash(s string) (PDFHash, error) {
	if s == "" {
		return PDFHash{}, dErrors.New(dErrors.CodeInvalidInput, "pdf hash is required")
	}
	if len(s) > maxInputLength {
		return PDFHash{}, dErrors.New(dErrors.CodeInvalidInput, "pdf hash is too long")
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return PDFHash{}, dErrors.New(dErrors.CodeInvalidInput, "pdf hash must be 0x-prefixed hex")
	}
	if len(b) != PDFHashLength {
		return PDFHash{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("pdf hash must be %d bytes, got %d", PDFHashLength, len(b)))
	}
	return PDFHash(common.BytesToHash(b)), nil
}

// PDFHashFromBytes converts a raw digest. It fails unless b is exactly 32 bytes.
func PDFHashFromBytes(b []byte) (PDFHash, error) {
	if len(b) != PDFHashLength {
		return PDFHash{}, fmt.Errorf("pdf hash must be %d bytes, got %d", PDFHashLength, len(b))
	}
	return PDFHash(common.BytesToHash(b)), nil
}

// IsZero reports whether the fingerprint is the reserved all-zero value.
func (h PDFHash) IsZero() bool { return h == PDFHash{} }

// Bytes returns a copy of the raw digest.
func (h PDFHash) Bytes() []byte { return common.Hash(h).Bytes() }

// Hex returns the 0x-prefixed lowercase hex form.
func (h PDFHash) Hex() string { return common.Hash(h).Hex() }

func (h PDFHash) String() string { return h.Hex() }

func (h PDFHash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *PDFHash) UnmarshalText(text []byte) error {
	parsed, err := ParsePDFHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Address identifies a principal: the registry authority or a caller.
type Address common.Address

// ParseAddress parses a 0x-prefixed, 40 hex digit address. Mixed-case input
// is accepted without checksum enforcement.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes of hex")
	}
	return Address(common.HexToAddress(s)), nil
}

// AddressFromBytes converts a raw 20-byte address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != common.AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", common.AddressLength, len(b))
	}
	return Address(common.BytesToAddress(b)), nil
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == Address{} }

// Bytes returns a copy of the raw address.
func (a Address) Bytes() []byte { return common.Address(a).Bytes() }

// Hex returns the EIP-55 checksummed form.
func (a Address) Hex() string { return common.Address(a).Hex() }

func (a Address) String() string { return a.Hex() }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
