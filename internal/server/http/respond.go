package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/shopkeeper/internal/errs"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

// writeErr maps service errors onto the HTTP error taxonomy. Client-caused
// errors carry their message; infrastructure faults are logged and returned
// as an opaque 500.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrCSRF):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		status = http.StatusTooManyRequests
	default:
		s.log.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	s.respondJSON(w, status, errorResponse{Error: err.Error()})
}

// writeAuthErr is writeErr with the uniform credential message: bad email and
// bad password must be indistinguishable.
func (s *Server) writeAuthErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errs.ErrUnauthorized) {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
		return
	}
	s.writeErr(w, r, err)
}
