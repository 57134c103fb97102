package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaronlmathis/hostwatch/internal/charts"
	"github.com/aaronlmathis/hostwatch/internal/dashboard"
)

// panelService honours ?labels=server, which pre-renders x-axis labels in
// the configured timezone instead of shipping the formatter callback
func (s *Server) panelService(r *http.Request) *dashboard.Service {
	if r.URL.Query().Get("labels") == "server" {
		return s.panels.WithBuilder(charts.WithLocation(s.labelLocation), charts.WithServerLabels())
	}
	return s.panels
}

// handleCharts handles GET /api/v1/clients/{clientID}/charts
// @Summary Chart options of every dashboard panel
// @Tags Charts
// @Produce json
// @Param since query string false "Look-back window (default 60m)"
// @Param labels query string false "server to pre-render axis labels"
// @Success 200 {object} map[string]charts.Option
// @Router /api/v1/clients/{clientID}/charts [get]
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	since, res, err := s.historyQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	history := s.recorder.History(chi.URLParam(r, "clientID"), since, res)
	writeJSON(w, http.StatusOK, s.panelService(r).BuildAll(history))
}

// handleChart handles GET /api/v1/clients/{clientID}/charts/{panel}
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	since, res, err := s.historyQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	history := s.recorder.History(chi.URLParam(r, "clientID"), since, res)
	opt, err := s.panelService(r).Build(chi.URLParam(r, "panel"), history)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opt)
}
