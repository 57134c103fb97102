package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/monitor"
	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

const defaultHistoryWindow = 60 * time.Minute

var errNoSample = errors.New("no runtime sample recorded yet")

// handleIngestRuntime handles POST /api/v1/clients/{clientID}/runtime
// @Summary Push a runtime sample
// @Description Agents report CPU, memory, disk and network figures. Requires the client token in the Authorization header.
// @Tags Runtime
// @Accept json
// @Success 204
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Router /api/v1/clients/{clientID}/runtime [post]
func (s *Server) handleIngestRuntime(w http.ResponseWriter, r *http.Request) {
	client, _ := clientFromContext(r.Context())

	var sample monitor.Sample
	if err := decodeJSON(w, r, &sample); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.recorder.Record(client.ID, sample); err != nil {
		s.logger.Warn("Rejected runtime sample",
			zap.String("clientId", client.ID),
			zap.Error(err))
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// historyQuery reads ?since=<duration>&res=<hi|lo>. Without res the
// resolution follows how much of the window the raw ring covers.
func (s *Server) historyQuery(r *http.Request) (time.Time, timeseries.Resolution, error) {
	window := defaultHistoryWindow
	if raw := r.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return time.Time{}, timeseries.Hi, fmt.Errorf("%w: since must be a positive duration such as 15m", errBadRequest)
		}
		window = d
	}

	res := s.store.Config().ResolutionFor(window)
	if raw := r.URL.Query().Get("res"); raw != "" {
		var err error
		if res, err = timeseries.ParseResolution(raw); err != nil {
			return time.Time{}, timeseries.Hi, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	return time.Now().Add(-window), res, nil
}

// handleRuntimeHistory handles GET /api/v1/clients/{clientID}/runtime-history
// @Summary Aligned runtime history
// @Tags Runtime
// @Produce json
// @Param since query string false "Look-back window (default 60m)"
// @Param res query string false "hi or lo (default depends on since)"
// @Success 200 {object} monitor.History
// @Router /api/v1/clients/{clientID}/runtime-history [get]
func (s *Server) handleRuntimeHistory(w http.ResponseWriter, r *http.Request) {
	since, res, err := s.historyQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.recorder.History(chi.URLParam(r, "clientID"), since, res))
}

// handleRuntimeNow handles GET /api/v1/clients/{clientID}/runtime-now
func (s *Server) handleRuntimeNow(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.recorder.Latest(chi.URLParam(r, "clientID"))
	if !ok {
		s.errorSanitizer.SanitizeAndRespond(w, r, errNoSample, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}
