package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/gateway"
	"jobboard-engine/internal/tracker"
)

const (
	CodeValidation   = "validation_failed"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeUpstream     = "upstream_failed"
	CodeBadRequest   = "bad_request"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Field     string `json:"field,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeAPIError(w, r, status, code, "", message)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, field, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Field = field
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeErr maps engine errors onto the API envelope.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &ve):
		writeAPIError(w, r, http.StatusBadRequest, CodeValidation, ve.Field, ve.Message)
	case errors.As(err, &nf):
		WriteError(w, r, http.StatusNotFound, CodeNotFound, err.Error())
	case gateway.IsAuth(err):
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	case gateway.IsNetwork(err):
		WriteError(w, r, http.StatusBadGateway, CodeUpstream, err.Error())
	case errors.Is(err, tracker.ErrClosed):
		WriteError(w, r, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		log.Printf("level=error msg=\"request failed\" request_id=%s path=%s err=%v", RequestIDFrom(r.Context()), r.URL.Path, err)
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}
