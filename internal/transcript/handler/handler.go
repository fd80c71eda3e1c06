package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	"transcript/pkg/platform/httputil"
	"transcript/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
//
//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service
type Service interface {
	Mint(ctx context.Context, caller domain.Address, tokenID domain.TokenID, hash domain.PDFHash) (models.Event, error)
	Burn(ctx context.Context, caller domain.Address, tokenID domain.TokenID) (models.Event, error)
	GetTranscriptHash(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, error)
	VerifyTranscriptHash(ctx context.Context, tokenID domain.TokenID, hash domain.PDFHash) (bool, error)
	GetStoredHashValue(ctx context.Context, hash domain.PDFHash) (bool, error)
	GetTokenIDByHash(ctx context.Context, hash domain.PDFHash) (domain.TokenID, error)
	GetTokenMintedCount(ctx context.Context) (uint64, error)
	OwnerOf(ctx context.Context, tokenID domain.TokenID) (domain.Address, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the public read endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/transcripts/count", h.HandleCount)
	r.Get("/transcripts/{tokenID}/hash", h.HandleGetHash)
	r.Get("/transcripts/{tokenID}/owner", h.HandleOwner)
	r.Post("/transcripts/{tokenID}/verify", h.HandleVerify)
	r.Get("/hashes/{pdfHash}", h.HandleIsRegistered)
	r.Get("/hashes/{pdfHash}/token", h.HandleTokenByHash)
}

// RegisterMutations mounts mint and burn on r. Callers wrap r with the
// rate limiter.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/transcripts", h.HandleMint)
	r.Delete("/transcripts/{tokenID}", h.HandleBurn)
}

// HandleMint handles POST /v1/transcripts.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ev, err := h.service.Mint(ctx, requestcontext.Caller(ctx), req.ParsedTokenID(), req.ParsedHash())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "mint request completed",
		"request_id", requestID,
		"token_id", ev.TokenID.String(),
		"seq", ev.Seq,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(ev))
}

// HandleBurn handles DELETE /v1/transcripts/{tokenID}.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	tokenID, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ev, err := h.service.Burn(ctx, requestcontext.Caller(ctx), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "burn request completed",
		"request_id", requestID,
		"token_id", ev.TokenID.String(),
		"seq", ev.Seq,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromEvent(ev))
}

// HandleGetHash handles GET /v1/transcripts/{tokenID}/hash.
func (h *Handler) HandleGetHash(w http.ResponseWriter, r *http.Request) {
	tokenID, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := h.service.GetTranscriptHash(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &HashResponse{TokenID: tokenID.String(), PDFHash: hash.Hex()})
}

// HandleOwner handles GET /v1/transcripts/{tokenID}/owner.
func (h *Handler) HandleOwner(w http.ResponseWriter, r *http.Request) {
	tokenID, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.service.OwnerOf(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &OwnerResponse{TokenID: tokenID.String(), Owner: owner.Hex()})
}

// HandleVerify handles POST /v1/transcripts/{tokenID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	valid, err := h.service.VerifyTranscriptHash(ctx, tokenID, req.ParsedHash())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &VerifyResponse{
		TokenID: tokenID.String(),
		PDFHash: req.ParsedHash().Hex(),
		Valid:   valid,
	})
}

// HandleIsRegistered handles GET /v1/hashes/{pdfHash}.
func (h *Handler) HandleIsRegistered(w http.ResponseWriter, r *http.Request) {
	hash, err := domain.ParsePDFHash(chi.URLParam(r, "pdfHash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	registered, err := h.service.GetStoredHashValue(r.Context(), hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RegisteredResponse{PDFHash: hash.Hex(), Registered: registered})
}

// HandleTokenByHash handles GET /v1/hashes/{pdfHash}/token.
func (h *Handler) HandleTokenByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := domain.ParsePDFHash(chi.URLParam(r, "pdfHash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokenID, err := h.service.GetTokenIDByHash(r.Context(), hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &TokenByHashResponse{PDFHash: hash.Hex(), TokenID: tokenID.String()})
}

// HandleCount handles GET /v1/transcripts/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.GetTokenMintedCount(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CountResponse{Count: count})
}
