package api

import (
	"net/http"
)

// handleTimeSeriesHealth returns the guardrail state of the sample store
func (s *Server) handleTimeSeriesHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.GetHealthSnapshot()

	health := map[string]interface{}{
		"status":       snapshot.GetStatus(),
		"store_health": snapshot,
		"series_keys":  len(s.store.Keys()),
		"ws_clients":   s.wsHub.ClientCount(),
		"config": map[string]interface{}{
			"max_window":            s.config.Timeseries.MaxWindow,
			"hi_res_step":           s.config.Timeseries.HiResStep,
			"hi_res_points":         s.config.Timeseries.HiResPoints,
			"lo_res_step":           s.config.Timeseries.LoResStep,
			"lo_res_points":         s.config.Timeseries.LoResPoints,
			"max_series":            s.config.Timeseries.MaxSeries,
			"max_points_per_series": s.config.Timeseries.MaxPointsPerSeries,
			"max_ws_clients":        s.config.WebSocket.MaxConnections,
		},
	}

	status := http.StatusOK
	if !snapshot.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
