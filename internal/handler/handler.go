package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultLimit = 10
	maxBodyBytes = 1 << 20
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeErrorCode writes the standard error body.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeError maps err to a status code. Domain errors keep their code and
// message; anything else is logged and reported as an internal error.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Msg("handler error")
		writeErrorCode(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	status := statusFor(de.Kind)
	logger.Debug().Str("code", de.Code).Int("status", status).Msg(de.Message)
	writeErrorCode(w, status, de.Code, de.Message)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindConflict:
		return http.StatusConflict
	case model.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case model.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		writeErrorCode(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, message)
		return false
	}
	return true
}

// pagination reads limit and offset from the query string.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.NewValidationError("invalid limit parameter")
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.NewValidationError("invalid offset parameter")
		}
	}
	return limit, offset, nil
}

// uuidParam parses the named route parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, model.NewValidationError("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid %s format", name)
	}
	return id, nil
}

// principal returns the authenticated caller, writing a 401 when there is none.
func principal(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
		return model.Principal{}, false
	}
	return p, true
}
