package models

import (
	"time"

	"transcript/pkg/domain"
)

// Binding is one active registration of a token to a document fingerprint.
// Owner is always the registry authority.
type Binding struct {
	TokenID  domain.TokenID `json:"token_id"`
	PDFHash  domain.PDFHash `json:"pdf_hash"`
	Owner    domain.Address `json:"owner"`
	MintedAt time.Time      `json:"minted_at"`
}
