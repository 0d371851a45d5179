// Package handler exposes identity registration to the verification gateway.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vozsegura/internal/identity/models"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/httputil"
	"vozsegura/pkg/requestcontext"
)

type Service interface {
	RegisterVerified(ctx context.Context, result models.VerificationResult) (id.IdentityHandle, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the gateway endpoints. Callers guard them with the gateway token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/internal/identities", h.HandleRegister)
}

// RegisterRequest carries the verification provider's verdict. The document
// number is hashed and dropped inside the service.
type RegisterRequest struct {
	DocumentNumber string `json:"document_number"`
	Approved       bool   `json:"approved"`
	LivenessPassed bool   `json:"liveness_passed"`
	Provider       string `json:"provider"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DocumentNumber) > 64 || len(r.Provider) > 64 {
		return dErrors.New(dErrors.CodeValidation, "field too long")
	}
	r.DocumentNumber = strings.TrimSpace(r.DocumentNumber)
	if r.DocumentNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "document_number is required")
	}
	r.Provider = strings.TrimSpace(r.Provider)
	return nil
}

type RegisterResponse struct {
	IdentityHandle string `json:"identity_handle"`
}

// HandleRegister handles POST /internal/identities.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	handle, err := h.service.RegisterVerified(ctx, models.VerificationResult{
		DocumentNumber: req.DocumentNumber,
		Approved:       req.Approved,
		LivenessPassed: req.LivenessPassed,
		Provider:       req.Provider,
	})
	req.DocumentNumber = ""
	if err != nil {
		h.logger.WarnContext(ctx, "identity registration failed",
			"request_id", requestID,
			"provider", req.Provider,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RegisterResponse{IdentityHandle: handle.String()})
}
