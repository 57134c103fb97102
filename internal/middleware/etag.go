package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ETagMiddleware answers conditional GETs for chart and history payloads.
// Samples arrive every few seconds, so the body hash is the only useful
// validator.
type ETagMiddleware struct {
	logger *zap.Logger
	prefix string
	maxAge string
}

// NewETagMiddleware creates a new ETag middleware for routes mounted under
// prefix
func NewETagMiddleware(logger *zap.Logger, prefix string) *ETagMiddleware {
	return &ETagMiddleware{
		logger: logger,
		prefix: prefix,
		maxAge: "5",
	}
}

// Middleware returns the ETag middleware handler
func (em *ETagMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !em.cacheable(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &etagRecorder{
			header: make(http.Header),
			status: http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		for k, v := range recorder.header {
			w.Header()[k] = v
		}

		if recorder.status != http.StatusOK || recorder.body.Len() == 0 {
			w.WriteHeader(recorder.status)
			w.Write(recorder.body.Bytes())
			return
		}

		etag := calculateETag(recorder.body.Bytes())
		w.Header().Set("ETag", `"`+etag+`"`)
		w.Header().Set("Cache-Control", "private, max-age="+em.maxAge)

		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			em.logger.Debug("ETag matched, serving 304",
				zap.String("path", r.URL.Path),
				zap.String("etag", etag),
				zap.String("request_id", middleware.GetReqID(r.Context())))

			w.Header().Del("Content-Length")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(recorder.body.Bytes())
	})
}

// cacheable reports whether path carries chart or history payloads
func (em *ETagMiddleware) cacheable(path string) bool {
	path = TrimPrefix(em.prefix, path)
	if !strings.HasPrefix(path, "/api/v1/clients/") {
		return false
	}
	return strings.Contains(path, "/charts") || strings.HasSuffix(path, "/runtime-history")
}

// calculateETag calculates an ETag for the given content
func calculateETag(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:8])
}

// etagMatches checks an If-None-Match header, which may list several tags
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || strings.Trim(candidate, `"`) == etag {
			return true
		}
	}
	return false
}

// etagRecorder buffers the response so validators can be set before the
// status line goes out
type etagRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (r *etagRecorder) Header() http.Header { return r.header }

func (r *etagRecorder) WriteHeader(statusCode int) { r.status = statusCode }

func (r *etagRecorder) Write(data []byte) (int, error) { return r.body.Write(data) }
