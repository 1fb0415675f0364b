package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/dgallion1/docview/internal/viewer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for docview.
type Server struct {
	router   chi.Router
	loader   viewer.ViewLoader
	stats    *viewer.Stats
	sessions *viewer.Manager
	registry *tagschema.Registry
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(loader viewer.ViewLoader, stats *viewer.Stats, sessions *viewer.Manager, reg *tagschema.Registry, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		loader:   loader,
		stats:    stats,
		sessions: sessions,
		registry: reg,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleShell)
	r.Get("/view", s.handleView)
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/schemas", s.handleListSchemas)
		r.Get("/api/schemas/{name}", s.handleGetSchema)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
