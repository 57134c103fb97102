package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// IdempotencyResult represents a cached response
type IdempotencyResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Timestamp  time.Time
}

// IdempotencyMiddleware replays the first successful response for a repeated
// X-Idempotency-Key. Agents retry registration after network errors and must
// not end up with two client identities.
type IdempotencyMiddleware struct {
	logger *zap.Logger
	ttl    time.Duration

	mutex sync.Mutex
	cache map[string]*IdempotencyResult
}

// NewIdempotencyMiddleware creates a new idempotency middleware
func NewIdempotencyMiddleware(logger *zap.Logger, ttl time.Duration) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		logger: logger,
		ttl:    ttl,
		cache:  make(map[string]*IdempotencyResult),
	}
}

// Middleware returns the idempotency middleware handler
func (im *IdempotencyMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idempotencyKey := r.Header.Get("X-Idempotency-Key")
		if r.Method != http.MethodPost || idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := generateCacheKey(r, idempotencyKey)

		if result := im.getCachedResult(cacheKey); result != nil {
			im.logger.Debug("Serving cached idempotent response",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("request_id", middleware.GetReqID(r.Context())))

			serveCachedResponse(w, result)
			return
		}

		recorder := &etagRecorder{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.status >= 200 && recorder.status < 300 {
			im.cacheResult(cacheKey, &IdempotencyResult{
				StatusCode: recorder.status,
				Header:     recorder.header.Clone(),
				Body:       bytes.Clone(recorder.body.Bytes()),
				Timestamp:  time.Now(),
			})
		}

		for k, v := range recorder.header {
			w.Header()[k] = v
		}
		w.WriteHeader(recorder.status)
		w.Write(recorder.body.Bytes())
	})
}

func generateCacheKey(r *http.Request, idempotencyKey string) string {
	sum := sha256.Sum256([]byte(r.Method + ":" + r.URL.Path + ":" + idempotencyKey))
	return hex.EncodeToString(sum[:])
}

// getCachedResult retrieves a cached result if it exists and is not expired
func (im *IdempotencyMiddleware) getCachedResult(cacheKey string) *IdempotencyResult {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	result, exists := im.cache[cacheKey]
	if !exists || time.Since(result.Timestamp) > im.ttl {
		return nil
	}
	return result
}

func (im *IdempotencyMiddleware) cacheResult(cacheKey string, result *IdempotencyResult) {
	im.mutex.Lock()
	defer im.mutex.Unlock()
	im.cache[cacheKey] = result
}

func serveCachedResponse(w http.ResponseWriter, result *IdempotencyResult) {
	for key, values := range result.Header {
		w.Header()[key] = values
	}
	w.Header().Set("X-Idempotency-Cache", "HIT")
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}

// Run removes expired entries every interval until ctx is cancelled
func (im *IdempotencyMiddleware) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			im.mutex.Lock()
			for key, result := range im.cache {
				if time.Since(result.Timestamp) > im.ttl {
					delete(im.cache, key)
				}
			}
			remaining := len(im.cache)
			im.mutex.Unlock()

			im.logger.Debug("Idempotency cache cleanup completed",
				zap.Int("remaining_entries", remaining))
		}
	}
}
