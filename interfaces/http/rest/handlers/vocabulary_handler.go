package handlers

import (
	"context"
	"net/http"

	"collocation-backend/application/services"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VocabularyService is the part of the application layer behind the
// paginated vocabulary endpoints
type VocabularyService interface {
	ListVocabulary(ctx context.Context, params common.PageParams) (services.VocabularyPage, error)
	CreateVocabulary(ctx context.Context, fields entities.Fields) (*entities.Collocation, error)
	UpdateVocabulary(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error)
	DeleteVocabulary(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error)
}

// VocabularyHandler handles the vocabulary CRUD endpoints
type VocabularyHandler struct {
	base
	service VocabularyService
}

// NewVocabularyHandler creates a new vocabulary handler
func NewVocabularyHandler(service VocabularyService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *VocabularyHandler {
	return &VocabularyHandler{
		base:    base{errors: errorHandler, logger: logger},
		service: service,
	}
}

// VocabularyRequest represents the request body for creating or updating
// a record. Every field is replaced on update.
type VocabularyRequest struct {
	Collocation string `json:"collocation" validate:"required,max=200"`
	IPA         string `json:"ipa" validate:"max=2000"`
	Meaning     string `json:"meaning" validate:"max=2000"`
	Synonyms    string `json:"synonyms" validate:"max=2000"`
}

func (req *VocabularyRequest) fields() entities.Fields {
	return entities.Fields{
		Collocation: req.Collocation,
		IPA:         req.IPA,
		Meaning:     req.Meaning,
		Synonyms:    req.Synonyms,
	}
}

// ListVocabulary handles GET /api/vocabulary
func (h *VocabularyHandler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	params, err := common.ExtractPageParams(r)
	if err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListVocabulary(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []*entities.Collocation{}
	}

	h.respondJSON(w, http.StatusOK, common.Success("").
		With("data", items).
		With("page", page.Page).
		With("limit", page.Limit).
		With("total", page.Total).
		With("totalPages", page.TotalPages))
}

// CreateVocabulary handles POST /api/vocabulary
func (h *VocabularyHandler) CreateVocabulary(w http.ResponseWriter, r *http.Request) {
	var req VocabularyRequest
	if !h.decodeAndValidate(w, r, &req, func() { req = vocabularyRequest(req.fields().Normalize()) }) {
		return
	}

	record, err := h.service.CreateVocabulary(r.Context(), req.fields())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success("Collocation created").With("data", record))
}

// UpdateVocabulary handles PUT /api/vocabulary/{id}
func (h *VocabularyHandler) UpdateVocabulary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.collocationID(w, r)
	if !ok {
		return
	}

	var req VocabularyRequest
	if !h.decodeAndValidate(w, r, &req, func() { req = vocabularyRequest(req.fields().Normalize()) }) {
		return
	}

	record, err := h.service.UpdateVocabulary(r.Context(), id, req.fields())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success("Collocation updated").With("data", record))
}

// DeleteVocabulary handles DELETE /api/vocabulary/{id}
func (h *VocabularyHandler) DeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.collocationID(w, r)
	if !ok {
		return
	}

	record, err := h.service.DeleteVocabulary(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, common.Success("Collocation deleted").With("data", record))
}

func (h *VocabularyHandler) collocationID(w http.ResponseWriter, r *http.Request) (valueobjects.CollocationID, bool) {
	id, err := valueobjects.NewCollocationIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, "Invalid id format")
		return valueobjects.CollocationID{}, false
	}
	return id, true
}

func vocabularyRequest(f entities.Fields) VocabularyRequest {
	return VocabularyRequest{
		Collocation: f.Collocation,
		IPA:         f.IPA,
		Meaning:     f.Meaning,
		Synonyms:    f.Synonyms,
	}
}
