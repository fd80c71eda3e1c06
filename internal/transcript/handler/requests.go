package handler

import (
	"bytes"
	"encoding/json"

	"transcript/pkg/domain"
	dErrors "transcript/pkg/domain-errors"
)

// TokenIDField accepts a token id as a JSON number or a decimal string.
// Strings let JavaScript clients send ids above 2^53 without rounding.
type TokenIDField struct {
	value domain.TokenID
	set   bool
}

func (f *TokenIDField) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	id, err := domain.ParseTokenID(raw)
	if err != nil {
		return err
	}
	f.value, f.set = id, true
	return nil
}

// MintRequest is the HTTP request body for POST /v1/transcripts.
type MintRequest struct {
	TokenID TokenIDField `json:"token_id"`
	PDFHash string       `json:"pdf_hash"`

	// Parsed values (populated by Validate)
	parsedHash domain.PDFHash
}

// Validate checks the request shape. Zero values pass through so the
// registry reports them with its own errors.
func (r *MintRequest) Validate() error {
	if !r.TokenID.set {
		return dErrors.New(dErrors.CodeBadRequest, "token_id is required")
	}
	hash, err := domain.ParsePDFHash(r.PDFHash)
	if err != nil {
		return err
	}
	r.parsedHash = hash
	return nil
}

func (r *MintRequest) ParsedTokenID() domain.TokenID { return r.TokenID.value }

func (r *MintRequest) ParsedHash() domain.PDFHash { return r.parsedHash }

// VerifyRequest is the HTTP request body for POST /v1/transcripts/{tokenID}/verify.
type VerifyRequest struct {
	PDFHash string `json:"pdf_hash"`

	parsedHash domain.PDFHash
}

func (r *VerifyRequest) Validate() error {
	hash, err := domain.ParsePDFHash(r.PDFHash)
	if err != nil {
		return err
	}
	r.parsedHash = hash
	return nil
}

func (r *VerifyRequest) ParsedHash() domain.PDFHash { return r.parsedHash }
