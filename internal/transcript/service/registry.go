package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	dErrors "transcript/pkg/domain-errors"
	"transcript/pkg/platform/sentinel"
	"transcript/pkg/requestcontext"
)

// Mint binds tokenID to hash under the authority's ownership.
//
// Checks run in order and the first failure wins: caller is the authority,
// tokenID is non-zero, hash is non-zero, hash is not registered, tokenID is
// not minted. On success the ownership record, the three lookup entries, the
// active count and the Minted event are written in one transaction.
func (s *Service) Mint(ctx context.Context, caller domain.Address, tokenID domain.TokenID, hash domain.PDFHash) (models.Event, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.Mint", trace.WithAttributes(
		attribute.String("token_id", tokenID.String()),
		attribute.String("pdf_hash", hash.Hex()),
	))
	defer span.End()

	var (
		event  models.Event
		active uint64
	)
	err := s.checkMintArgs(caller, tokenID, hash)
	if err == nil {
		err = s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			if err := checkMintState(ctx, st, tokenID, hash); err != nil {
				return err
			}
			binding := models.Binding{
				TokenID:  tokenID,
				PDFHash:  hash,
				Owner:    s.authority,
				MintedAt: s.now(ctx),
			}
			if err := st.Owners.Create(ctx, tokenID, s.authority); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return models.IdentifierAlreadyMinted(tokenID, hash)
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create token ownership")
			}
			if err := st.Bindings.Put(ctx, binding); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return models.FingerprintAlreadyRegistered(tokenID, hash)
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store binding")
			}
			appended, err := st.Events.Append(ctx, models.NewEvent(models.EventMinted, tokenID, hash, binding.MintedAt))
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append minted event")
			}
			if active, err = st.Bindings.Count(ctx); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count bindings")
			}
			event = appended
			return nil
		})
	}
	s.observe(ctx, span, "mint", start, err)
	if err != nil {
		s.logRejection(ctx, "mint", caller, err, "token_id", tokenID.String(), "pdf_hash", hash.Hex())
		return models.Event{}, err
	}

	s.remember(ctx, event)
	s.setMinted(active)
	s.logger.InfoContext(ctx, "transcript minted",
		"token_id", tokenID.String(),
		"pdf_hash", hash.Hex(),
		"seq", event.Seq,
		"request_id", requestcontext.RequestID(ctx),
	)
	return event, nil
}

func (s *Service) checkMintArgs(caller domain.Address, tokenID domain.TokenID, hash domain.PDFHash) error {
	if caller != s.authority {
		return models.NotAuthorized(caller)
	}
	if tokenID.IsZero() {
		return models.InvalidIdentifier(tokenID)
	}
	if hash.IsZero() {
		return models.InvalidFingerprint(hash)
	}
	return nil
}

func checkMintState(ctx context.Context, st Stores, tokenID domain.TokenID, hash domain.PDFHash) error {
	registered, err := st.Bindings.IsRegistered(ctx, hash)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check fingerprint registration")
	}
	if registered {
		return models.FingerprintAlreadyRegistered(tokenID, hash)
	}
	_, err = st.Owners.OwnerOf(ctx, tokenID)
	switch {
	case err == nil:
		return models.IdentifierAlreadyMinted(tokenID, hash)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token ownership")
	}
}

// Burn destroys the binding of tokenID.
//
// A zero tokenID is rejected first, then a non-authority caller, and only
// then a token that is not minted, so an unauthorized caller cannot probe
// registry contents through the error it receives.
//
// With a cache configured, the tombstone for tokenID is written before the
// transaction commits. If the cache cannot take it the burn is aborted, so a
// cached fingerprint never outlives its binding.
func (s *Service) Burn(ctx context.Context, caller domain.Address, tokenID domain.TokenID) (models.Event, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.Burn", trace.WithAttributes(
		attribute.String("token_id", tokenID.String()),
	))
	defer span.End()

	var (
		event  models.Event
		active uint64
		err    error
	)
	switch {
	case tokenID.IsZero():
		err = models.InvalidIdentifier(tokenID)
	case caller != s.authority:
		err = models.NotAuthorized(caller)
	default:
		err = s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			if _, err := st.Owners.OwnerOf(ctx, tokenID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return models.NotMinted(tokenID)
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token ownership")
			}
			hash, err := st.Bindings.HashOf(ctx, tokenID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeInvariantViolation, "minted token has no bound fingerprint")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
			}
			if err := st.Owners.Destroy(ctx, tokenID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to destroy token ownership")
			}
			if err := st.Bindings.Delete(ctx, tokenID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear binding")
			}
			appended, err := st.Events.Append(ctx, models.NewEvent(models.EventBurned, tokenID, hash, s.now(ctx)))
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append burned event")
			}
			if active, err = st.Bindings.Count(ctx); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count bindings")
			}
			if s.cache != nil {
				if err := s.cache.Remember(ctx, appended); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate cached fingerprint")
				}
			}
			event = appended
			return nil
		})
	}
	s.observe(ctx, span, "burn", start, err)
	if err != nil {
		s.logRejection(ctx, "burn", caller, err, "token_id", tokenID.String())
		return models.Event{}, err
	}

	s.setMinted(active)
	s.logger.InfoContext(ctx, "transcript burned",
		"token_id", tokenID.String(),
		"pdf_hash", event.PDFHash.Hex(),
		"seq", event.Seq,
		"request_id", requestcontext.RequestID(ctx),
	)
	return event, nil
}

// GetTranscriptHash returns the fingerprint bound to tokenID.
func (s *Service) GetTranscriptHash(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.GetTranscriptHash", trace.WithAttributes(
		attribute.String("token_id", tokenID.String()),
	))
	defer span.End()

	hash, err := s.boundHash(ctx, tokenID)
	s.observe(ctx, span, "get_transcript_hash", start, err)
	if err != nil {
		return domain.PDFHash{}, err
	}
	return hash, nil
}

// VerifyTranscriptHash reports whether hash is the fingerprint bound to tokenID.
func (s *Service) VerifyTranscriptHash(ctx context.Context, tokenID domain.TokenID, hash domain.PDFHash) (bool, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.VerifyTranscriptHash", trace.WithAttributes(
		attribute.String("token_id", tokenID.String()),
		attribute.String("pdf_hash", hash.Hex()),
	))
	defer span.End()

	if hash.IsZero() {
		err := models.InvalidFingerprint(hash)
		s.observe(ctx, span, "verify_transcript_hash", start, err)
		return false, err
	}
	bound, err := s.boundHash(ctx, tokenID)
	s.observe(ctx, span, "verify_transcript_hash", start, err)
	if err != nil {
		return false, err
	}
	return bound == hash, nil
}

// GetStoredHashValue reports whether hash is registered by any token.
func (s *Service) GetStoredHashValue(ctx context.Context, hash domain.PDFHash) (bool, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.GetStoredHashValue", trace.WithAttributes(
		attribute.String("pdf_hash", hash.Hex()),
	))
	defer span.End()

	var registered bool
	err := s.requireHash(hash)
	if err == nil {
		err = s.tx.View(ctx, func(ctx context.Context, st Stores) error {
			ok, err := st.Bindings.IsRegistered(ctx, hash)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check fingerprint registration")
			}
			registered = ok
			return nil
		})
	}
	s.observe(ctx, span, "get_stored_hash_value", start, err)
	if err != nil {
		return false, err
	}
	return registered, nil
}

// GetTokenIDByHash returns the token bound to hash, or zero when none is.
// Zero is never a valid token, so it cannot collide with a real binding.
func (s *Service) GetTokenIDByHash(ctx context.Context, hash domain.PDFHash) (domain.TokenID, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.GetTokenIDByHash", trace.WithAttributes(
		attribute.String("pdf_hash", hash.Hex()),
	))
	defer span.End()

	var tokenID domain.TokenID
	err := s.requireHash(hash)
	if err == nil {
		err = s.tx.View(ctx, func(ctx context.Context, st Stores) error {
			id, err := st.Bindings.TokenIDOf(ctx, hash)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up token by fingerprint")
			}
			tokenID = id
			return nil
		})
	}
	s.observe(ctx, span, "get_token_id_by_hash", start, err)
	if err != nil {
		return 0, err
	}
	return tokenID, nil
}

// GetTokenMintedCount returns the number of active bindings.
func (s *Service) GetTokenMintedCount(ctx context.Context) (uint64, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.GetTokenMintedCount")
	defer span.End()

	var count uint64
	err := s.tx.View(ctx, func(ctx context.Context, st Stores) error {
		n, err := st.Bindings.Count(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count bindings")
		}
		count = n
		return nil
	})
	s.observe(ctx, span, "get_token_minted_count", start, err)
	if err != nil {
		return 0, err
	}
	s.setMinted(count)
	return count, nil
}

// OwnerOf returns the owner of tokenID as recorded by the ownership substrate.
func (s *Service) OwnerOf(ctx context.Context, tokenID domain.TokenID) (domain.Address, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.OwnerOf", trace.WithAttributes(
		attribute.String("token_id", tokenID.String()),
	))
	defer span.End()

	var owner domain.Address
	err := s.tx.View(ctx, func(ctx context.Context, st Stores) error {
		addr, err := st.Owners.OwnerOf(ctx, tokenID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.NotMinted(tokenID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token ownership")
		}
		owner = addr
		return nil
	})
	s.observe(ctx, span, "owner_of", start, err)
	if err != nil {
		return domain.Address{}, err
	}
	return owner, nil
}

func (s *Service) requireHash(hash domain.PDFHash) error {
	if hash.IsZero() {
		return models.InvalidFingerprint(hash)
	}
	return nil
}

// boundHash reads the fingerprint of tokenID, consulting the cache first.
// Cache failures fall through to the store.
func (s *Service) boundHash(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, error) {
	if s.cache != nil && !tokenID.IsZero() {
		hash, ok, err := s.cache.Lookup(ctx, tokenID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "hash cache lookup failed",
				"token_id", tokenID.String(),
				"error", err,
			)
			s.recordCache("error")
		case ok:
			s.recordCache("hit")
			return hash, nil
		default:
			s.recordCache("miss")
		}
	}

	var hash domain.PDFHash
	err := s.tx.View(ctx, func(ctx context.Context, st Stores) error {
		h, err := st.Bindings.HashOf(ctx, tokenID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.NotMinted(tokenID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
		}
		hash = h
		return nil
	})
	if err != nil {
		return domain.PDFHash{}, err
	}
	return hash, nil
}

// remember caches a committed mint. A lost write only costs a miss.
func (s *Service) remember(ctx context.Context, event models.Event) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remember(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to update hash cache",
			"token_id", event.TokenID.String(),
			"kind", string(event.Kind),
			"error", err,
		)
	}
}

// setMinted publishes a count read inside a transaction, so every replica
// reports the committed value rather than its own running total.
func (s *Service) setMinted(count uint64) {
	if s.metrics != nil {
		s.metrics.SetMinted(count)
	}
}

func (s *Service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(result)
	}
}

// observe records the outcome of an operation on its span and in metrics.
func (s *Service) observe(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	outcome := outcomeOf(err)
	span.SetAttributes(attribute.String("outcome", outcome))
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcome, start)
	}
}

func (s *Service) logRejection(ctx context.Context, op string, caller domain.Address, err error, attrs ...any) {
	args := append([]any{
		"op", op,
		"caller", caller.Hex(),
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	}, attrs...)
	var regErr *models.Error
	if errors.As(err, &regErr) {
		s.logger.WarnContext(ctx, "registry request rejected", args...)
		return
	}
	s.logger.ErrorContext(ctx, "registry request failed", args...)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var regErr *models.Error
	if errors.As(err, &regErr) {
		return string(regErr.Kind)
	}
	return "error"
}
