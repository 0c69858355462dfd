package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"

	"go.uber.org/zap"
)

// CollocationService is the part of the application layer behind the
// bulk collocation endpoints
type CollocationService interface {
	AddCollocations(ctx context.Context, fields []entities.Fields) (ports.BulkInsertResult, error)
	CheckWord(ctx context.Context, word string) (bool, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	DeleteAll(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]*entities.Collocation, error)
}

// CollocationHandler handles the bulk collocation endpoints
type CollocationHandler struct {
	base
	service CollocationService
}

// NewCollocationHandler creates a new collocation handler
func NewCollocationHandler(service CollocationService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CollocationHandler {
	return &CollocationHandler{
		base:    base{errors: errorHandler, logger: logger},
		service: service,
	}
}

// AddCollocationsRequest represents the request body for a bulk insert
type AddCollocationsRequest struct {
	Collocations []entities.Fields `json:"collocations" validate:"required,min=1"`
}

// CheckWordRequest represents the request body for a word lookup
type CheckWordRequest struct {
	Word string `json:"word" validate:"required"`
}

// AddCollocations handles POST /api/add-collocations
func (h *CollocationHandler) AddCollocations(w http.ResponseWriter, r *http.Request) {
	var req AddCollocationsRequest
	if !h.decodeAndValidate(w, r, &req, nil) {
		return
	}

	result, err := h.service.AddCollocations(r.Context(), req.Collocations)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	message := fmt.Sprintf("Added %d collocations", result.Inserted)
	if result.SkippedDuplicates > 0 {
		message += fmt.Sprintf(", skipped %d duplicates", result.SkippedDuplicates)
	}

	h.respondJSON(w, http.StatusOK, common.Success(message).
		With("insertedCount", result.Inserted).
		With("skippedDuplicates", result.SkippedDuplicates))
}

// CheckWord handles POST /api/check-word
func (h *CollocationHandler) CheckWord(w http.ResponseWriter, r *http.Request) {
	var req CheckWordRequest
	if !h.decodeAndValidate(w, r, &req, func() { req.Word = strings.TrimSpace(req.Word) }) {
		return
	}

	exists, err := h.service.CheckWord(r.Context(), req.Word)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success("").With("exists", exists))
}

// ExportCSV handles GET /api/export-csv
func (h *CollocationHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportCSV(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vocabulary.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write CSV export", zap.Error(err))
	}
}

// DeleteAll handles POST /api/delete-all
func (h *CollocationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success(fmt.Sprintf("Deleted %d collocations", count)).
		With("deletedCount", count))
}

// ListCollocations handles GET /api/collocations
func (h *CollocationHandler) ListCollocations(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []*entities.Collocation{}
	}

	h.respondJSON(w, http.StatusOK, common.Success("").
		With("count", len(items)).
		With("data", items))
}
