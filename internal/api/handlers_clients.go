package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/clients"
	"github.com/aaronlmathis/hostwatch/internal/monitor"
)

type registerRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type renameRequest struct {
	Name     string `json:"name"`
	Node     string `json:"node"`
	Location string `json:"location"`
}

// clientView is a client with its online state. Runtime carries the newest
// sample in list responses while the host is online.
type clientView struct {
	clients.Client
	Online  bool            `json:"online"`
	Runtime *monitor.Sample `json:"runtime,omitempty"`
}

func (s *Server) viewOf(c clients.Client, now time.Time, withRuntime bool) clientView {
	v := clientView{Client: c}
	if sample, ok := s.recorder.Online(c.ID, now); ok {
		v.Online = true
		if withRuntime {
			v.Runtime = &sample
		}
	}
	return v
}

// handleRegisterClient handles POST /api/v1/clients/register
// @Summary Register a monitored host
// @Description Issues a client ID and the token the agent sends with every sample.
// @Tags Clients
// @Accept json
// @Produce json
// @Success 201 {object} registerResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /api/v1/clients/register [post]
func (s *Server) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	client, err := s.registry.Register(req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: client.ID, Token: client.Token})
}

// handleListClients handles GET /api/v1/clients
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	list := s.registry.List()
	views := make([]clientView, 0, len(list))
	for _, c := range list {
		views = append(views, s.viewOf(c, now, true))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetClient handles GET /api/v1/clients/{clientID}
func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.registry.Get(chi.URLParam(r, "clientID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(client, time.Now(), false))
}

// handleClientDetails handles POST /api/v1/clients/{clientID}/detail. Agents
// report their hardware once at startup and again when it changes.
func (s *Server) handleClientDetails(w http.ResponseWriter, r *http.Request) {
	client, ok := clientFromContext(r.Context())
	if !ok {
		s.respondError(w, r, clients.ErrClientNotFound)
		return
	}

	var details clients.Details
	if err := decodeJSON(w, r, &details); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.registry.SetDetails(client.ID, details); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Debug("Client details updated",
		zap.String("clientId", client.ID),
		zap.String("os", details.OSName),
		zap.String("ip", details.IP))
	w.WriteHeader(http.StatusNoContent)
}

// handleRenameClient handles POST /api/v1/clients/{clientID}/rename
func (s *Server) handleRenameClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.registry.Rename(clientID, req.Name, req.Node, req.Location); err != nil {
		s.respondError(w, r, err)
		return
	}

	client, err := s.registry.Get(clientID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(client, time.Now(), false))
}

// handleDeleteClient handles DELETE /api/v1/clients/{clientID}. The host's
// samples and rate limit bucket go with it.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	if err := s.registry.Delete(clientID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.recorder.Forget(clientID)
	s.limiter.Forget(clientID)

	s.logger.Info("Client removed with its runtime history", zap.String("clientId", clientID))
	w.WriteHeader(http.StatusNoContent)
}
