// Package web is the HTTP surface: the JSON API consumed by the page
// plus the embedded static assets.
package web

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alvasen/sophamtning-ale/internal/agent"
	"github.com/alvasen/sophamtning-ale/internal/schedule"
	"github.com/alvasen/sophamtning-ale/internal/search"
	"github.com/alvasen/sophamtning-ale/internal/store"
)

// ScheduleService is the schedule side of the API. Implemented by
// schedule.Service.
type ScheduleService interface {
	Raw(ctx context.Context, address string) (*schedule.Response, error)
	Fetch(ctx context.Context, address string) (*schedule.View, error)
}

// Server wires the handlers onto a chi router.
type Server struct {
	schedule ScheduleService
	searcher search.Searcher
	kv       store.KV
	agent    *agent.Agent
	static   fs.FS
	debounce time.Duration
	baseCtx  context.Context

	mu       sync.Mutex
	sessions map[string]*search.Coordinator

	router chi.Router
}

type Options struct {
	Schedule ScheduleService
	Searcher search.Searcher
	KV       store.KV
	Agent    *agent.Agent
	Static   fs.FS
	Debounce time.Duration

	// BaseContext bounds background work started from a request, like
	// the reminder timer. Defaults to context.Background().
	BaseContext context.Context
}

func NewServer(opts Options) *Server {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	s := &Server{
		schedule: opts.Schedule,
		searcher: opts.Searcher,
		kv:       opts.KV,
		agent:    opts.Agent,
		static:   opts.Static,
		debounce: opts.Debounce,
		baseCtx:  opts.BaseContext,
		sessions: make(map[string]*search.Coordinator),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/schedule", s.handleScheduleRaw)
		r.Get("/schedule/view", s.handleScheduleView)
		r.Get("/schedule/ics", s.handleScheduleICS)
		r.Get("/schedule/csv", s.handleScheduleCSV)

		r.Get("/address", s.handleAddressGet)
		r.Put("/address", s.handleAddressPut)
		r.Delete("/address", s.handleAddressDelete)

		r.Post("/notify/arm", s.handleNotifyArm)
		r.Get("/notify/permission", s.handlePermissionGet)
		r.Put("/notify/permission", s.handlePermissionPut)

		r.Post("/clients/heartbeat", s.handleHeartbeat)
	})

	if s.static != nil {
		r.Get("/", s.handleStatic)
		r.Get("/manifest.json", s.handleStatic)
	}

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) baseContext() context.Context { return s.baseCtx }

// coordinator returns the per-session search coordinator, creating it
// on first use. Sessions without an id share one coordinator.
func (s *Server) coordinator(sessionID string) *search.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[sessionID]
	if !ok {
		c = search.NewCoordinator(s.searcher, s.debounce)
		s.sessions[sessionID] = c
	}
	return c
}
