package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

type errorResponse struct {
	Error        string `json:"error"`
	RetryAfterMS int64  `json:"retry_after_ms,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed encode response: %s", err.Error())
	}
}

// writeError maps the error taxonomy onto HTTP. Anything outside the
// taxonomy is an upstream failure: logged here, surfaced to the caller
// as a generic retryable 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: model.ReasonCode(err)}

	var limited *model.RateLimited
	if errors.As(err, &limited) {
		resp.RetryAfterMS = limited.Remaining.Milliseconds()
	}

	status := statusFor(err)
	if status == http.StatusBadGateway {
		s.logger.Warn("upstream failure: %s", err.Error())
	}

	s.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrBanned),
		errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, model.ErrVerificationFailed):
		return http.StatusForbidden
	case errors.Is(err, model.ErrRateLimited),
		errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrAlreadyClaimed),
		errors.Is(err, model.ErrAlreadyExists),
		errors.Is(err, model.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, model.ErrInsufficientBalance),
		errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
