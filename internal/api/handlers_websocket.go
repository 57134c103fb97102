package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaronlmathis/hostwatch/internal/ws"
)

// handleRuntimeWebSocket handles GET /api/v1/stream/runtime/{clientID}. Every
// sample the client pushes is relayed as {"type":"sample","room":...,"data":...}.
func (s *Server) handleRuntimeWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if _, err := s.registry.Get(clientID); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.wsHub.ServeWS(w, r, ws.RoomForClient(clientID))
}
