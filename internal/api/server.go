package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/promptmd/internal/config"
	"github.com/dgallion1/promptmd/internal/expand"
	"github.com/dgallion1/promptmd/internal/llm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API for expanding prompt documents and forwarding
// them to a model provider.
type Server struct {
	router    chi.Router
	expander  *expand.Expander
	stats     *llm.LatencyStats
	newClient func(provider llm.Provider, size string) (llm.Client, error)
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server. Documents are served
// from cfg.DocumentRoot.
func NewServer(exp *expand.Expander, stats *llm.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		expander: exp,
		stats:    stats,
		log:      log,
		cfg:      cfg,
	}
	s.newClient = func(provider llm.Provider, size string) (llm.Client, error) {
		return llm.NewClient(s.cfg, provider, size)
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

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Post("/api/expand", s.handleExpand)
		r.Post("/api/send", s.handleSend)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
