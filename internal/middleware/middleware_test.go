package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/healthz", "/healthz"},
		{"/api/v1/clients", "/api/v1/clients"},
		{"/api/v1/clients/register", "/api/v1/clients/register"},
		{"/api/v1/clients/7f1c", "/api/v1/clients/:id"},
		{"/api/v1/clients/7f1c/runtime-history", "/api/v1/clients/:id/runtime-history"},
		{"/api/v1/clients/7f1c/charts/", "/api/v1/clients/:id/charts"},
		{"/api/v1/clients/7f1c/charts/cpu", "/api/v1/clients/:id/charts/:panel"},
		{"/api/v1/stream/runtime/7f1c", "/api/v1/stream/runtime"},
		{"/api/v1/timeseries/health", "/api/v1/timeseries/health"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizePath(tt.in), tt.in)
	}
}

func TestTrimPrefix(t *testing.T) {
	tests := []struct {
		prefix, in, want string
	}{
		{"", "/api/v1/clients", "/api/v1/clients"},
		{"/monitor", "/monitor/api/v1/clients/7f1c", "/api/v1/clients/7f1c"},
		{"/monitor", "/monitor", "/"},
		{"/monitor", "/monitoring/api", "/monitoring/api"},
		{"/monitor", "/healthz", "/healthz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrimPrefix(tt.prefix, tt.in), tt.in)
	}
}

func TestETagMiddlewareWithPrefix(t *testing.T) {
	handler := NewETagMiddleware(zap.NewNop(), "/monitor").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timestamps":[]}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/monitor/api/v1/clients/a/runtime-history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestETagMiddleware(t *testing.T) {
	body := `{"series":[]}`
	handler := NewETagMiddleware(zap.NewNop(), "").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/a/charts/cpu", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/clients/a/charts/cpu", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	// Non cacheable paths pass through untouched
	req = httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestETagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, "abc"))
	assert.True(t, etagMatches(`W/"abc"`, "abc"))
	assert.True(t, etagMatches(`"x", "abc"`, "abc"))
	assert.True(t, etagMatches("*", "abc"))
	assert.False(t, etagMatches(`"abd"`, "abc"))
	assert.False(t, etagMatches("", "abc"))
}

func TestErrorSanitizer(t *testing.T) {
	es := NewErrorSanitizer(zap.NewNop())

	t.Run("client error message kept", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/x", nil)
		es.SanitizeAndRespond(rec, req, errors.New("client not found"), http.StatusNotFound)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrorResponse{Error: "client not found", Code: 404}, resp)
	})

	t.Run("token details hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/x/runtime", nil)
		es.SanitizeAndRespond(rec, req, errors.New("invalid token abc"), http.StatusUnauthorized)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Authentication required.", resp.Error)
	})

	t.Run("server error generic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		es.SanitizeAndRespond(rec, req, errors.New("store exploded"), http.StatusInternalServerError)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotContains(t, resp.Error, "exploded")
	})

	t.Run("middleware rewrites plain 5xx bodies", func(t *testing.T) {
		handler := es.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "panic: nil map at /src/x.go:12", http.StatusInternalServerError)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 500, resp.Code)
		assert.NotContains(t, rec.Body.String(), "x.go")
	})
}

func TestIdempotencyMiddleware(t *testing.T) {
	calls := 0
	handler := NewIdempotencyMiddleware(zap.NewNop(), time.Minute).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"n":` + string(rune('0'+calls)) + `}`))
	}))

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/register", nil)
		if key != "" {
			req.Header.Set("X-Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do("k1")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, `{"n":1}`, first.Body.String())

	replay := do("k1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, `{"n":1}`, replay.Body.String())
	assert.Equal(t, "HIT", replay.Header().Get("X-Idempotency-Cache"))
	assert.Equal(t, 1, calls)

	do("k2")
	do("")
	assert.Equal(t, 3, calls)
}
