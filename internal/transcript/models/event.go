package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"transcript/pkg/domain"
)

// EventKind is the registry transition an event records.
type EventKind string

const (
	EventMinted EventKind = "minted"
	EventBurned EventKind = "burned"
)

func (k EventKind) IsValid() bool {
	return k == EventMinted || k == EventBurned
}

// Digest is a SHA-256 link in the event hash chain.
type Digest [32]byte

func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) Hex() string { return hexutil.Encode(d[:]) }

func (d Digest) String() string { return d.Hex() }

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(d) {
		return fmt.Errorf("digest must be %d bytes, got %d", len(d), len(b))
	}
	copy(d[:], b)
	return nil
}

// Event is one entry of the append-only notification log. Seq orders events
// by execution; Digest commits to the event and every event before it.
type Event struct {
	Seq        uint64         `json:"seq"`
	ID         uuid.UUID      `json:"id"`
	Kind       EventKind      `json:"kind"`
	TokenID    domain.TokenID `json:"token_id"`
	PDFHash    domain.PDFHash `json:"pdf_hash"`
	Timestamp  time.Time      `json:"timestamp"`
	PrevDigest Digest         `json:"prev_digest"`
	Digest     Digest         `json:"digest"`
}

// NewEvent builds an unsealed event; the log assigns Seq and the digests.
func NewEvent(kind EventKind, tokenID domain.TokenID, hash domain.PDFHash, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		TokenID:   tokenID,
		PDFHash:   hash,
		Timestamp: at.UTC().Truncate(time.Microsecond),
	}
}
