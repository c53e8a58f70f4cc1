package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.ErrUnauthenticated, http.StatusUnauthorized},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrBanned, http.StatusForbidden},
		{model.ErrInvalidToken, http.StatusForbidden},
		{model.ErrVerificationFailed, http.StatusForbidden},
		{model.ErrRateLimited, http.StatusTooManyRequests},
		{&model.RateLimited{Remaining: time.Second}, http.StatusTooManyRequests},
		{model.ErrQuotaExceeded, http.StatusTooManyRequests},
		{model.ErrAlreadyClaimed, http.StatusConflict},
		{model.ErrAlreadyExists, http.StatusConflict},
		{model.ErrCapacityExceeded, http.StatusConflict},
		{model.ErrInsufficientBalance, http.StatusBadRequest},
		{model.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("the store fell over"), http.StatusBadGateway},
		{errors.Wrap(model.ErrQuotaExceeded, "persist ad quota"), http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, statusFor(tc.err), "error: %v", tc.err)
	}
}

func TestWriteErrorCarriesRetryAfter(t *testing.T) {
	s := &Server{logger: log.NewDefaultLogger()}

	rec := httptest.NewRecorder()
	s.writeError(rec, &model.RateLimited{Remaining: 1500 * time.Millisecond})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
	assert.Equal(t, int64(1500), resp.RetryAfterMS)
}

func TestWriteErrorHidesUpstreamDetail(t *testing.T) {
	s := &Server{logger: log.NewDefaultLogger()}

	rec := httptest.NewRecorder()
	s.writeError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream_failure", resp.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestAuthenticateRejectsMissingInitData(t *testing.T) {
	s := NewServer(nil, nil, log.NewDefaultLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unauthenticated", resp.Error)
}
