package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/config"
	"github.com/fakturo/billing-api/internal/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Run("sets configured headers", func(t *testing.T) {
		cfg := &config.SecurityConfig{
			EnableHSTS:            true,
			HSTSMaxAge:            31536000,
			HSTSIncludeSubdomains: true,
			ContentTypeNosniff:    true,
			FrameOptions:          "DENY",
			XSSProtection:         "1; mode=block",
			ReferrerPolicy:        "strict-origin-when-cross-origin",
		}

		handler := middleware.SecurityHeaders(cfg)(okHandler())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("disabled headers are absent", func(t *testing.T) {
		handler := middleware.SecurityHeaders(&config.SecurityConfig{})(okHandler())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("requests over the limit get 429", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     3,
			RequestsPerMinuteAuth: 3,
		}, zap.NewNop())

		handler := rl.LimitByIP(okHandler())

		var last int
		for i := 0; i < 4; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
			req.RemoteAddr = "10.0.0.1:12345"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			last = rec.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("whitelisted path bypasses the limit", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     1,
			RequestsPerMinuteAuth: 1,
			WhitelistPaths:        []string{"/health"},
		}, zap.NewNop())

		handler := rl.LimitByIP(okHandler())

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "10.0.0.2:12345"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("whitelisted ip bypasses the limit", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     1,
			RequestsPerMinuteAuth: 1,
			WhitelistIPs:          []string{"192.168.1.50"},
		}, zap.NewNop())

		handler := rl.LimitByIP(okHandler())

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
			req.Header.Set("X-Real-IP", "192.168.1.50")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("disabled limiter passes everything through", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:               false,
			RequestsPerMinute:     1,
			RequestsPerMinuteAuth: 1,
		}, zap.NewNop())

		handler := rl.LimitByIP(okHandler())

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
			req.RemoteAddr = "10.0.0.3:12345"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
