package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/infra/config"
)

func TestWithRetryReplaysIdempotentMethods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut} {
		t.Run(method, func(t *testing.T) {
			attempts := 0
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				body, _ := io.ReadAll(r.Body)
				require.Equal(t, `{"displayName":"Ravi"}`, string(body))
				if attempts < 2 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				_, _ = io.WriteString(w, "ok")
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(method, "/api/v1/profile", strings.NewReader(`{"displayName":"Ravi"}`))
			withRetry(inner, retryConfig(), 0, newTestLogger()).ServeHTTP(rec, req)

			require.Equal(t, 2, attempts)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "ok", rec.Body.String())
		})
	}
}

func TestWithRetryNeverReplaysPost(t *testing.T) {
	attempts := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	withRetry(inner, retryConfig(), 0, newTestLogger()).ServeHTTP(rec, req)

	require.Equal(t, 1, attempts)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	withRetry(inner, retryConfig(), 0, newTestLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/crops", nil))

	require.Equal(t, 3, attempts)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWithRetryLeavesClassifiedUpstreamFailures(t *testing.T) {
	attempts := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	withRetry(inner, retryConfig(), 0, newTestLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/crops", nil))

	require.Equal(t, 1, attempts)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWithRetryRejectsOversizedBody(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(strings.Repeat("x", 64)))
	withRetry(inner, retryConfig(), 16, newTestLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "Request body too large.", decodeErrorBody(t, rec.Body.Bytes()))
}

func TestWithRetryStopsWhenClientGoesAway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	cfg := retryConfig()
	cfg.BaseBackoff = time.Hour
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil).WithContext(ctx)
	withRetry(inner, cfg, 0, newTestLogger()).ServeHTTP(rec, req)

	require.Equal(t, 1, attempts)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func retryConfig() config.RetryConfig {
	return config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	}
}
