package handlers

import (
	"context"
	"fmt"
	"net/http"

	"collocation-backend/application/services"
	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"

	"go.uber.org/zap"
)

// GeneratorService runs generation and manages its credential
type GeneratorService interface {
	Generate(ctx context.Context, words []string) (services.GenerateResult, error)
	SaveAPIKey(ctx context.Context, apiKey string) error
}

// GeneratorHandler handles the generation and credential endpoints
type GeneratorHandler struct {
	base
	service GeneratorService
}

// NewGeneratorHandler creates a new generator handler
func NewGeneratorHandler(service GeneratorService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *GeneratorHandler {
	return &GeneratorHandler{
		base:    base{errors: errorHandler, logger: logger},
		service: service,
	}
}

// GenerateRequest represents the request body for generation
type GenerateRequest struct {
	Words []string `json:"words" validate:"required,min=1,max=50"`
}

// SaveAPIKeyRequest represents the request body for saving the credential
type SaveAPIKeyRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

// Generate handles POST /api/generate
func (h *GeneratorHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decodeAndValidate(w, r, &req, nil) {
		return
	}

	result, err := h.service.Generate(r.Context(), req.Words)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	message := fmt.Sprintf("Generated %d collocations, saved %d", result.Generated, result.Inserted)
	if result.SkippedDuplicates > 0 {
		message += fmt.Sprintf(", skipped %d duplicates", result.SkippedDuplicates)
	}

	h.respondJSON(w, http.StatusOK, common.Success(message).
		With("count", result.Inserted).
		With("generatedCount", result.Generated).
		With("skippedDuplicates", result.SkippedDuplicates))
}

// SaveAPIKey handles POST /api/save-apikey
func (h *GeneratorHandler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req SaveAPIKeyRequest
	if !h.decodeAndValidate(w, r, &req, nil) {
		return
	}

	if err := h.service.SaveAPIKey(r.Context(), req.APIKey); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success("API key saved"))
}
