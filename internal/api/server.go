package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/charts"
	"github.com/aaronlmathis/hostwatch/internal/clients"
	"github.com/aaronlmathis/hostwatch/internal/config"
	"github.com/aaronlmathis/hostwatch/internal/dashboard"
	"github.com/aaronlmathis/hostwatch/internal/metrics"
	apimiddleware "github.com/aaronlmathis/hostwatch/internal/middleware"
	"github.com/aaronlmathis/hostwatch/internal/monitor"
	"github.com/aaronlmathis/hostwatch/internal/timeseries"
	"github.com/aaronlmathis/hostwatch/internal/version"
	"github.com/aaronlmathis/hostwatch/internal/ws"
)

// Server represents the API server
type Server struct {
	logger *zap.Logger
	config *config.Config
	router chi.Router

	// handler is router, mounted under the configured base path
	handler http.Handler

	registry *clients.Registry
	store    *timeseries.MemStore
	recorder *monitor.Recorder
	panels   *dashboard.Service
	wsHub    *ws.Hub

	labelLocation *time.Location
	limiter       *ingestLimiter

	errorSanitizer *apimiddleware.ErrorSanitizer
	etag           *apimiddleware.ETagMiddleware
	idempotency    *apimiddleware.IdempotencyMiddleware
}

// NewServer creates a new API server
func NewServer(logger *zap.Logger, cfg *config.Config) (*Server, error) {
	storeConfig, err := cfg.Timeseries.StoreConfig()
	if err != nil {
		return nil, err
	}
	storeConfig.MaxWSClients = cfg.WebSocket.MaxConnections

	loc, err := cfg.Charts.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:         logger,
		config:         cfg,
		router:         chi.NewRouter(),
		registry:       clients.NewRegistry(logger),
		store:          timeseries.NewMemStore(storeConfig),
		labelLocation:  loc,
		limiter:        newIngestLimiter(cfg.Ingest.RequestsPerMinute, cfg.Ingest.Burst),
		errorSanitizer: apimiddleware.NewErrorSanitizer(logger),
		etag:           apimiddleware.NewETagMiddleware(logger, cfg.Server.Prefix()),
		idempotency:    apimiddleware.NewIdempotencyMiddleware(logger, 10*time.Minute),
	}

	s.recorder = monitor.NewRecorder(logger, s.store)
	s.panels = dashboard.NewService(logger, charts.WithLocation(loc))
	s.wsHub = ws.NewHub(logger, s.store.GetHealth(), cfg.WebSocket.MaxConnections, cfg.WebSocket.MaxRoomSize)

	s.registry.OnChange(metrics.SetRegisteredClients)
	s.recorder.Subscribe(func(clientID string, sample monitor.Sample) {
		s.wsHub.BroadcastToRoom(ws.RoomForClient(clientID), "sample", sample)
	})

	s.setupMiddleware()
	s.setupRoutes()

	s.handler = s.router
	if prefix := cfg.Server.Prefix(); prefix != "" {
		root := chi.NewRouter()
		root.Mount(prefix, s.router)
		s.handler = root
	}

	return s, nil
}

// Start runs the background components until ctx is cancelled
func (s *Server) Start(ctx context.Context) {
	go s.wsHub.Run(ctx)
	go s.recorder.Run(ctx, s.config.Timeseries.PruneEvery())
	go s.idempotency.Run(ctx, 5*time.Minute)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(apimiddleware.RequestIDResponseMiddleware)
	s.router.Use(middleware.RealIP)
	s.router.Use(apimiddleware.PrometheusMiddleware(s.config.Server.Prefix()))
	s.router.Use(s.errorSanitizer.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.corsMiddleware)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origins := strings.Join(s.config.Server.CORS.AllowOrigins, ", ")
	methods := strings.Join(s.config.Server.CORS.AllowMethods, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origins)
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Idempotency-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	// Version endpoint
	s.router.Get("/version", s.handleVersion)

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Websocket connections live longer than the request timeout
		r.Get("/stream/runtime/{clientID}", s.handleRuntimeWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.config.Server.Timeout()))
			r.Use(s.etag.Middleware)

			r.With(s.idempotency.Middleware).Post("/clients/register", s.handleRegisterClient)
			r.Get("/clients", s.handleListClients)
			r.Get("/clients/{clientID}", s.handleGetClient)
			r.Post("/clients/{clientID}/rename", s.handleRenameClient)
			r.Delete("/clients/{clientID}", s.handleDeleteClient)

			r.With(s.agentAuth).Post("/clients/{clientID}/detail", s.handleClientDetails)
			r.With(s.agentAuth).Post("/clients/{clientID}/runtime", s.handleIngestRuntime)
			r.Get("/clients/{clientID}/runtime-history", s.handleRuntimeHistory)
			r.Get("/clients/{clientID}/runtime-now", s.handleRuntimeNow)

			r.Get("/clients/{clientID}/charts", s.handleCharts)
			r.Get("/clients/{clientID}/charts/{panel}", s.handleChart)

			r.Get("/timeseries/health", s.handleTimeSeriesHealth)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  s.store.GetHealthSnapshot().GetStatus(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
