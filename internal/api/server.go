package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/chestnut/internal/config"
	"github.com/dgallion1/chestnut/internal/document"
	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/dgallion1/chestnut/internal/pipeline"
	"github.com/dgallion1/chestnut/internal/render"
	"github.com/dgallion1/chestnut/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DocumentStore is the read and delete side of the store used by handlers.
type DocumentStore interface {
	GetDocument(ctx context.Context, fileID string) (document.Document, error)
	GetOutline(ctx context.Context, fileID string) (outline.ParsedBody, error)
	FindByTitle(ctx context.Context, title string) ([]string, error)
	List(ctx context.Context, limit, offset int) ([]store.Summary, error)
	Delete(ctx context.Context, fileID string) error
}

// Server is the HTTP API server for chestnut.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         DocumentStore
	renderer     *render.Renderer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, docs DocumentStore, renderer *render.Renderer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		renderer:     renderer,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{fileID}", s.handleGetDocument)
		r.Get("/api/documents/{fileID}/html", s.handleDocumentHTML)
		r.Delete("/api/documents/{fileID}", s.handleDeleteDocument)

		r.Get("/api/outlines", s.handleFindOutlines)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
