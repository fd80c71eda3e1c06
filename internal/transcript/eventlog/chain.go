// Package eventlog is the registry's append-only notification channel.
//
// Every event is sealed into a SHA-256 hash chain: an event's digest covers
// its RFC 8785 canonical JSON form, which includes the previous event's
// digest. Rewriting or dropping a past event breaks every later link, which
// VerifyChain detects. Events are written in the same transaction as the
// registry change they describe and later relayed to the message broker.
package eventlog

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"transcript/internal/transcript/models"
)

// sealInput is the digest preimage. Token ids are rendered as strings
// because canonical JSON numbers are IEEE doubles.
type sealInput struct {
	Seq        string `json:"seq"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TokenID    string `json:"token_id"`
	PDFHash    string `json:"pdf_hash"`
	Timestamp  string `json:"timestamp"`
	PrevDigest string `json:"prev_digest"`
}

// DigestOf computes the chain digest of ev from its content and PrevDigest.
// ev.Digest is ignored.
func DigestOf(ev models.Event) (models.Digest, error) {
	raw, err := json.Marshal(sealInput{
		Seq:        fmt.Sprintf("%d", ev.Seq),
		ID:         ev.ID.String(),
		Kind:       string(ev.Kind),
		TokenID:    ev.TokenID.String(),
		PDFHash:    ev.PDFHash.Hex(),
		Timestamp:  ev.Timestamp.UTC().Format(time.RFC3339Nano),
		PrevDigest: ev.PrevDigest.Hex(),
	})
	if err != nil {
		return models.Digest{}, fmt.Errorf("marshal event preimage: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return models.Digest{}, fmt.Errorf("canonicalize event preimage: %w", err)
	}
	return sha256.Sum256(canonical), nil
}

// Seal links ev after an event with sequence prevSeq and digest prevDigest.
// Use prevSeq 0 and a zero digest for the first event.
func Seal(ev models.Event, prevSeq uint64, prevDigest models.Digest) (models.Event, error) {
	if !ev.Kind.IsValid() {
		return models.Event{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	ev.Seq = prevSeq + 1
	ev.PrevDigest = prevDigest
	digest, err := DigestOf(ev)
	if err != nil {
		return models.Event{}, err
	}
	ev.Digest = digest
	return ev, nil
}

// BrokenLinkError reports the first event whose chain link does not verify.
type BrokenLinkError struct {
	Seq    uint64
	Reason string
}

func (e *BrokenLinkError) Error() string {
	return fmt.Sprintf("event chain broken at seq %d: %s", e.Seq, e.Reason)
}

// VerifyChain checks a complete log, in order from the first event.
func VerifyChain(events []models.Event) error {
	var prev models.Digest
	for i, ev := range events {
		want := uint64(i) + 1
		if ev.Seq != want {
			return &BrokenLinkError{Seq: ev.Seq, Reason: fmt.Sprintf("expected seq %d", want)}
		}
		if ev.PrevDigest != prev {
			return &BrokenLinkError{Seq: ev.Seq, Reason: "previous digest mismatch"}
		}
		digest, err := DigestOf(ev)
		if err != nil {
			return err
		}
		if digest != ev.Digest {
			return &BrokenLinkError{Seq: ev.Seq, Reason: "digest mismatch"}
		}
		prev = ev.Digest
	}
	return nil
}
