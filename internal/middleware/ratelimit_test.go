package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_UnlimitedGeneral(t *testing.T) {
	limiter := NewRateLimiter(0, 1, "/api/auth/")

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cashier/workspace", nil)
		rec := serve(t, okDispatcher, req, NewErrorTranslator(), limiter)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimiter_LimitedAuth(t *testing.T) {
	limiter := NewRateLimiter(0, 1, "/api/auth/")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := serve(t, okDispatcher, req, NewErrorTranslator(), limiter)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Burst of one: the second immediate request is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec = serve(t, okDispatcher, req, NewErrorTranslator(), limiter)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too many requests", decodeError(t, rec).Message)
}

func TestRateLimiter_BucketsArePerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 0, "/api/auth/")

	first := httptest.NewRequest(http.MethodGet, "/api/finance/workspace", nil)
	first.RemoteAddr = "198.51.100.1:5000"
	second := httptest.NewRequest(http.MethodGet, "/api/finance/workspace", nil)
	second.RemoteAddr = "198.51.100.2:5000"

	assert.Equal(t, http.StatusOK, serve(t, okDispatcher, first, NewErrorTranslator(), limiter).Code)
	assert.Equal(t, http.StatusOK, serve(t, okDispatcher, second, NewErrorTranslator(), limiter).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, okDispatcher, first, NewErrorTranslator(), limiter).Code)
}
