package api

import (
	"errors"
	"net/http"

	"github.com/aaronlmathis/hostwatch/internal/clients"
	"github.com/aaronlmathis/hostwatch/internal/dashboard"
	"github.com/aaronlmathis/hostwatch/internal/monitor"
)

var errBadRequest = errors.New("bad request")

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, clients.ErrClientNotFound), errors.Is(err, dashboard.ErrUnknownPanel):
		return http.StatusNotFound
	case errors.Is(err, clients.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, clients.ErrEmptyName), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, monitor.ErrInvalidSample), errors.Is(err, clients.ErrInvalidDetails):
		return http.StatusUnprocessableEntity
	case errors.Is(err, monitor.ErrStaleSample):
		return http.StatusConflict
	case errors.Is(err, monitor.ErrSeriesLimit):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorSanitizer.SanitizeAndRespond(w, r, err, statusFor(err))
}
