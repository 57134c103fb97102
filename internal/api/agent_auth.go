package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aaronlmathis/hostwatch/internal/clients"
	"github.com/aaronlmathis/hostwatch/internal/metrics"
)

type contextKey string

const clientContextKey contextKey = "client"

// clientFromContext returns the agent authenticated by agentAuth
func clientFromContext(ctx context.Context) (clients.Client, bool) {
	c, ok := ctx.Value(clientContextKey).(clients.Client)
	return c, ok
}

// agentAuth authenticates the agent by the token in the Authorization header
// and applies its rate limit
func (s *Server) agentAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")
		token := r.Header.Get("Authorization")
		if token == "" {
			s.errorSanitizer.SanitizeAndRespond(w, r, errors.New("missing agent token"), http.StatusUnauthorized)
			return
		}

		client, err := s.registry.Authenticate(clientID, token)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		if !s.limiter.Allow(clientID) {
			metrics.RecordRateLimitedRequest("runtime")
			s.logger.Warn("Agent rate limited",
				zap.String("clientId", clientID),
				zap.String("name", client.Name))
			s.errorSanitizer.SanitizeAndRespond(w, r, errors.New("rate limit exceeded"), http.StatusTooManyRequests)
			return
		}

		ctx := context.WithValue(r.Context(), clientContextKey, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ingestLimiter keeps one token bucket per client
type ingestLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newIngestLimiter(requestsPerMinute, burst int) *ingestLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &ingestLimiter{
		every:    time.Minute / time.Duration(requestsPerMinute),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether clientID may push another sample now
func (l *ingestLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[clientID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.every), l.burst)
		l.limiters[clientID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Forget drops the bucket of a deleted client
func (l *ingestLimiter) Forget(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, clientID)
}
