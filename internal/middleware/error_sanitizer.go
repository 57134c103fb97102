package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON envelope of every error the API returns
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ErrorSanitizer provides sanitized error responses
type ErrorSanitizer struct {
	logger *zap.Logger
}

// NewErrorSanitizer creates a new error sanitizer
func NewErrorSanitizer(logger *zap.Logger) *ErrorSanitizer {
	return &ErrorSanitizer{
		logger: logger,
	}
}

// SanitizeAndRespond logs err and writes the error envelope. Messages of
// 4xx errors reach the client unless they look sensitive; 5xx errors always
// get a generic message.
func (es *ErrorSanitizer) SanitizeAndRespond(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status_code", statusCode),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_addr", r.RemoteAddr),
	}
	if statusCode >= http.StatusInternalServerError {
		es.logger.Error("Request error", fields...)
	} else {
		es.logger.Debug("Request rejected", fields...)
	}

	WriteError(w, statusCode, es.sanitizeErrorMessage(err.Error(), statusCode))
}

// WriteError writes the error envelope as is
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: statusCode})
}

// sanitizeErrorMessage removes sensitive information from error messages
func (es *ErrorSanitizer) sanitizeErrorMessage(message string, statusCode int) string {
	if statusCode >= http.StatusInternalServerError {
		return genericErrorMessage(statusCode)
	}

	sensitivePatterns := []string{
		"token", "secret", "authorization", "credential", "password",
		"panic", "goroutine", "runtime error",
	}

	messageLower := strings.ToLower(message)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(messageLower, pattern) {
			return genericErrorMessage(statusCode)
		}
	}

	// Keep the first line only
	if idx := strings.Index(message, "\n"); idx != -1 {
		message = message[:idx]
	}

	if len(strings.TrimSpace(message)) < 5 {
		return genericErrorMessage(statusCode)
	}

	return message
}

// genericErrorMessage returns appropriate generic messages based on HTTP status
func genericErrorMessage(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input and try again."
	case http.StatusUnauthorized:
		return "Authentication required."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusMethodNotAllowed:
		return "Method not allowed for this resource."
	case http.StatusConflict:
		return "The request conflicts with the current state."
	case http.StatusUnprocessableEntity:
		return "The request contains invalid data."
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case http.StatusInternalServerError:
		return "An internal server error occurred. Please try again later."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	case http.StatusGatewayTimeout:
		return "The request timed out. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// Middleware replaces the body of any 5xx response that did not come from
// SanitizeAndRespond, such as panics recovered by chi.
func (es *ErrorSanitizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip WebSocket upgrade requests early
		if r.Header.Get("Upgrade") == "websocket" || strings.Contains(r.URL.Path, "/stream/") {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &errorCapturingWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r)

		if wrapped.suppressed {
			es.logger.Warn("Sanitized server error body",
				zap.Int("status_code", wrapped.status),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())))
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: genericErrorMessage(wrapped.status),
				Code:  wrapped.status,
			})
		}
	})
}

// errorCapturingWriter swallows non-JSON bodies of 5xx responses
type errorCapturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	suppressed  bool
}

// WriteHeader captures error status codes
func (ecw *errorCapturingWriter) WriteHeader(statusCode int) {
	if ecw.wroteHeader {
		return
	}
	ecw.wroteHeader = true
	ecw.status = statusCode

	if statusCode >= http.StatusInternalServerError &&
		!strings.HasPrefix(ecw.Header().Get("Content-Type"), "application/json") {
		ecw.suppressed = true
		ecw.Header().Del("Content-Length")
		ecw.Header().Set("Content-Type", "application/json")
	}
	ecw.ResponseWriter.WriteHeader(statusCode)
}

// Write drops the body of suppressed responses
func (ecw *errorCapturingWriter) Write(data []byte) (int, error) {
	if !ecw.wroteHeader {
		ecw.WriteHeader(http.StatusOK)
	}
	if ecw.suppressed {
		return len(data), nil
	}
	return ecw.ResponseWriter.Write(data)
}
