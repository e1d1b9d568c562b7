// Package api exposes the deck-generation service over HTTP: proposal
// uploads become queued jobs, plus status polling, artifact download, and
// notice CRUD.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jwyang/deckgen/internal/config"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/pipeline"
)

// Server is the HTTP API server for deckgen.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	notices      *noticestore.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, notices *noticestore.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		notices:      notices,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DeckgenAPIKey, s.log))

		r.Post("/api/decks", s.handleCreateDeck)
		r.Get("/api/decks/{jobID}/status", s.handleDeckStatus)
		r.Get("/api/decks/{jobID}/download", s.handleDeckDownload)

		r.Get("/api/notices/{noticeID}", s.handleGetNotice)
		r.Put("/api/notices/{noticeID}", s.handlePutNotice)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
