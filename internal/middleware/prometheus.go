package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aaronlmathis/hostwatch/internal/metrics"
)

// PrometheusMiddleware records HTTP request metrics for Prometheus. Paths
// are labelled without the prefix the routes are mounted under.
func PrometheusMiddleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := sanitizePath(TrimPrefix(prefix, r.URL.Path))
			metrics.RecordHTTPRequest(r.Method, path, ww.Status(), time.Since(start))
		})
	}
}

// TrimPrefix strips the mount prefix from path. An empty prefix leaves path
// as is.
func TrimPrefix(prefix, path string) string {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := path[len(prefix):]
	if rest == "" {
		return "/"
	}
	if rest[0] != '/' {
		return path
	}
	return rest
}

// RequestIDResponseMiddleware adds the request ID to response headers
func RequestIDResponseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// sanitizePath replaces client IDs and panel names with placeholders so the
// path label stays low-cardinality
func sanitizePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")

	// parts[0] is empty, parts[1:3] are "api", "v1"
	if len(parts) < 4 || parts[1] != "api" || parts[2] != "v1" {
		return path
	}

	switch parts[3] {
	case "clients":
		switch {
		case len(parts) == 4:
			return path
		case len(parts) == 5 && parts[4] == "register":
			return path
		case len(parts) == 5:
			// /api/v1/clients/{clientID}
			return "/api/v1/clients/:id"
		case len(parts) == 6:
			// /api/v1/clients/{clientID}/{action}
			return "/api/v1/clients/:id/" + parts[5]
		default:
			// /api/v1/clients/{clientID}/charts/{panel}
			return "/api/v1/clients/:id/" + parts[5] + "/:panel"
		}
	case "stream":
		if len(parts) >= 5 {
			// /api/v1/stream/{type}/{clientID}
			return "/api/v1/stream/" + parts[4]
		}
	}

	return path
}
