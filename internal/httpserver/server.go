// Package httpserver sets up the HTTP router, middleware, and request
// handlers for every wire protocol the simulator exposes (spec.md §6).
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/llmsim/llmsim/internal/config"
	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/generator"
	"github.com/llmsim/llmsim/internal/modelregistry"
	"github.com/llmsim/llmsim/internal/stats"
	"github.com/llmsim/llmsim/internal/tokenizer"
)

// Server holds the HTTP router and every dependency the handlers need —
// all of it wired explicitly here rather than through package-level
// globals, per spec.md §9's "pass an aggregator handle explicitly from the
// server root into each request task."
type Server struct {
	router chi.Router

	cfg          *config.Config
	registry     *modelregistry.Registry
	tokenizer    *tokenizer.Tokenizer
	orchestrator *engine.Orchestrator
	stats        *stats.Aggregator

	genKind      generator.Kind
	fixedText    string
	targetTokens int
}

// New builds a Server, wires routes and middleware, and returns it ready
// to use as an http.Handler.
func New(cfg *config.Config, registry *modelregistry.Registry, tok *tokenizer.Tokenizer, aggregator *stats.Aggregator) *Server {
	errCfg := errinject.Config{
		RateLimitRate:   cfg.Errors.RateLimitRate,
		ServerErrorRate: cfg.Errors.ServerErrorRate,
		TimeoutRate:     cfg.Errors.TimeoutRate,
		TimeoutAfterMs:  cfg.Errors.TimeoutAfterMs,
	}

	genKind := generator.Kind(cfg.Response.Generator)
	if genKind == "" {
		genKind = generator.KindLorem
	}

	s := &Server{
		cfg:          cfg,
		registry:     registry,
		tokenizer:    tok,
		orchestrator: engine.New(errCfg, tok),
		stats:        aggregator,
		genKind:      genKind,
		fixedText:    cfg.Response.FixedText,
		targetTokens: cfg.Response.TargetTokens,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/llmsim/stats", s.handleStats)

	r.Get("/openai/v1/models", s.handleModelsList)
	r.Get("/openai/v1/models/{id}", s.handleModelGet)
	r.Post("/openai/v1/chat/completions", s.handleChatCompletions)
	r.Post("/openai/v1/responses", s.handleResponses)
	r.Post("/openresponses/v1/responses", s.handleOpenResponses)

	s.router = r
}

// ServeHTTP makes Server satisfy http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// newGenerator builds the configured generator instance fresh for each
// request. Generators are cheap, stateless values (spec.md §4.3, "pure, no
// I/O, no shared state"), so constructing one per request is simpler than
// pooling and costs nothing measurable next to a TTFT sleep.
func (s *Server) newGenerator() (generator.Generator, error) {
	return generator.New(s.genKind, s.fixedText, s.tokenizer)
}

// modelAllowed reports whether id may be served, honoring the optional
// `models.available` allowlist (spec.md §6). An empty allowlist permits
// every model the registry or an unrecognized ID might name.
func (s *Server) modelAllowed(id string) bool {
	if len(s.cfg.Models.Available) == 0 {
		return true
	}
	for _, allowed := range s.cfg.Models.Available {
		if allowed == id {
			return true
		}
	}
	return false
}
