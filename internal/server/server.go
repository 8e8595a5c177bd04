package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/index"
	"github.com/motivaitor/insight/internal/momentum"
	"github.com/motivaitor/insight/internal/retrieval"
	"github.com/motivaitor/insight/internal/store"
)

// Options wires the domain services into the server. Nil fields get
// defaults backed by the database.
type Options struct {
	Momentum  *momentum.Calculator
	Abilities *ability.Engine
	Index     *index.Index
	Gateway   *retrieval.Gateway
	Auth      AuthConfig
}

// Server is the insight HTTP API server.
type Server struct {
	db        *store.DB
	momentum  momentum.Calculator
	abilities *ability.Engine
	index     *index.Index
	gateway   *retrieval.Gateway
	auth      AuthConfig
	router    chi.Router
	version   string
	started   time.Time
	now       func() time.Time
}

// New creates a new Server with the given database and version string.
func New(db *store.DB, opts Options, version string) *Server {
	s := &Server{
		db:        db,
		momentum:  momentum.New(momentum.DefaultRustThreshold),
		abilities: opts.Abilities,
		index:     opts.Index,
		gateway:   opts.Gateway,
		auth:      opts.Auth,
		version:   version,
		started:   time.Now(),
		now:       time.Now,
	}
	if opts.Momentum != nil {
		s.momentum = *opts.Momentum
	}
	if s.abilities == nil {
		s.abilities = ability.NewEngine(db, db, ability.DefaultConfig())
	}
	if s.index == nil {
		s.index = index.New(db, index.NewHashEmbedder(0))
	}
	if s.gateway == nil {
		s.gateway = retrieval.New(s.index)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/users/{ownerID}", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.requireOwner)

			r.Get("/projects", s.handleProjects)
			r.Get("/abilities", s.handleGetAbilities)
			r.Post("/abilities/recompute", s.handleRecompute)
			r.Get("/context", s.handleGetContext)
			r.Post("/documents", s.handleUpsertDocument)
			r.Get("/analytics/volume", s.handleVolume)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
