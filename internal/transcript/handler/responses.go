package handler

import (
	"time"

	"transcript/internal/transcript/models"
)

// EventResponse is the body returned by mint and burn. Token ids are decimal
// strings throughout the API.
type EventResponse struct {
	Seq        uint64    `json:"seq"`
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TokenID    string    `json:"token_id"`
	PDFHash    string    `json:"pdf_hash"`
	Timestamp  time.Time `json:"timestamp"`
	PrevDigest string    `json:"prev_digest"`
	Digest     string    `json:"digest"`
}

func FromEvent(ev models.Event) *EventResponse {
	return &EventResponse{
		Seq:        ev.Seq,
		ID:         ev.ID.String(),
		Kind:       string(ev.Kind),
		TokenID:    ev.TokenID.String(),
		PDFHash:    ev.PDFHash.Hex(),
		Timestamp:  ev.Timestamp,
		PrevDigest: ev.PrevDigest.Hex(),
		Digest:     ev.Digest.Hex(),
	}
}

type HashResponse struct {
	TokenID string `json:"token_id"`
	PDFHash string `json:"pdf_hash"`
}

type OwnerResponse struct {
	TokenID string `json:"token_id"`
	Owner   string `json:"owner"`
}

type VerifyResponse struct {
	TokenID string `json:"token_id"`
	PDFHash string `json:"pdf_hash"`
	Valid   bool   `json:"valid"`
}

type RegisteredResponse struct {
	PDFHash    string `json:"pdf_hash"`
	Registered bool   `json:"registered"`
}

// TokenByHashResponse reports "0" when no token is bound to the hash.
type TokenByHashResponse struct {
	PDFHash string `json:"pdf_hash"`
	TokenID string `json:"token_id"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}
