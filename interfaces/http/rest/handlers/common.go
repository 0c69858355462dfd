package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"
	"collocation-backend/pkg/utils"

	"go.uber.org/zap"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// base carries what every handler needs to talk HTTP
type base struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func (h *base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := common.RespondJSON(w, status, data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Handle(w, r, err)
}

func (h *base) respondStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.errors.HandleStatus(w, r, status, message)
}

// decodeAndValidate reads a JSON body into dst and runs its validation tags.
// normalize, when given, runs between the two so that trimmed values are
// what gets validated. On failure the 400 response has already been sent.
func (h *base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, normalize func()) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if normalize != nil {
		normalize()
	}
	if err := utils.ValidateStruct(dst); err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("body is empty")
		}
		return err
	}
	return nil
}
