// Package server serves the blog listing page over HTTP.
//
// Each browser gets a session holding its own view controller, so search
// term, category and loading state survive between requests the way they
// would inside a single open page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/clock"
	"github.com/Bitlatte/devblog/internal/filter"
	"github.com/Bitlatte/devblog/internal/metrics"
	"github.com/Bitlatte/devblog/internal/model"
	"github.com/Bitlatte/devblog/internal/preference"
	"github.com/Bitlatte/devblog/internal/render"
	"github.com/Bitlatte/devblog/internal/session"
	"github.com/Bitlatte/devblog/internal/view"
)

// Config holds server configuration.
type Config struct {
	Port       int
	Site       render.Site
	LoadDelay  time.Duration
	SessionTTL time.Duration
	Static     fs.FS
	// Scheduler drives the loading timers; nil means the runtime timer.
	Scheduler clock.Scheduler
}

// Server is the HTTP front of the listing page.
type Server struct {
	cfg      Config
	repo     catalog.Repository
	renderer *render.Renderer
	sessions *session.Registry
	log      *zap.Logger
	metrics  *metrics.Metrics
	router   chi.Router

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a server reading posts from repo.
func New(cfg Config, repo catalog.Repository, renderer *render.Renderer, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = clock.Real{}
	}
	s := &Server{
		cfg:      cfg,
		repo:     repo,
		renderer: renderer,
		sessions: session.NewRegistry(cfg.SessionTTL, log.Named("session"), m),
		log:      log,
		metrics:  m,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleListing)
	r.Post("/theme", s.handleToggleTheme)
	r.Post("/filters/clear", s.handleClearFilters)
	r.Get("/posts/{id}", s.handlePost)
	r.Get("/posts/{id}/", s.handlePost)
	r.Get("/api/posts", s.handleAPIPosts)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if s.cfg.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.cfg.Static))))
	}
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = hs
	s.mu.Unlock()

	s.log.Info("devblog server listening", zap.String("addr", addr))
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and tears down every session.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.sessions.Close()
	s.mu.Lock()
	hs := s.httpServer
	s.mu.Unlock()
	if hs != nil {
		return hs.Shutdown(ctx)
	}
	return nil
}

// session returns the caller's session, opening one if needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess, ok := s.sessions.FromRequest(r); ok {
		return sess
	}
	prefs := preference.FromRequest(r)
	ctrl := view.New(s.repo, prefs,
		view.WithScheduler(s.cfg.Scheduler),
		view.WithLoadDelay(s.cfg.LoadDelay),
		view.WithLogger(s.log.Named("view")),
		view.WithMetrics(s.metrics),
	)
	sess := s.sessions.Create(ctrl, prefs)
	if err := s.sessions.SetCookie(w, r, sess); err != nil {
		s.log.Warn("failed to set session cookie", zap.String("session", sess.ID), zap.Error(err))
	}
	return sess
}

func (s *Server) refreshSeconds(loading bool) int {
	if !loading {
		return 0
	}
	return max(1, int(math.Ceil(s.cfg.LoadDelay.Seconds())))
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctrl := sess.Controller

	q := r.URL.Query()
	if q.Has("q") || q.Has("category") {
		ctrl.Apply(filter.Query{Term: q.Get("q"), Category: q.Get("category")})
	}

	page := ctrl.Page()
	sess.Prefs.Save(w)
	noStore(w)
	err := s.renderer.Listing(w, render.ListingData{
		Site:           s.cfg.Site,
		Page:           page,
		RootClass:      ctrl.Document().String(),
		RefreshSeconds: s.refreshSeconds(page.Loading),
	})
	if err != nil {
		s.log.Error("failed to render listing", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.metrics.Render("listing", page.Loading)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Controller.ToggleTheme()
	sess.Prefs.Save(w)
	http.Redirect(w, r, s.backTo(r), http.StatusSeeOther)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Controller.ClearFilters()
	sess.Prefs.Save(w)
	http.Redirect(w, r, s.cfg.Site.URL("/"), http.StatusSeeOther)
}

// backTo returns the same-host page the request came from, or the listing.
func (s *Server) backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return s.cfg.Site.URL("/")
	}
	return ref.RequestURI()
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.repo.Post(chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("failed to load post", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	doc := preference.NewClassList()
	if sess, ok := s.sessions.FromRequest(r); ok {
		doc = sess.Controller.Document()
	} else if t, ok := preference.FromRequest(r).Read(); ok {
		preference.Apply(doc, t)
	}

	noStore(w)
	if err := s.renderer.Post(w, render.PostData{Site: s.cfg.Site, Post: post, RootClass: doc.String()}); err != nil {
		s.log.Error("failed to render post", zap.String("post", post.ID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.metrics.Render("post", false)
}

// postSummary is one entry of the /api/posts response.
type postSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	Categories []string  `json:"categories"`
	Date       time.Time `json:"date,omitzero"`
	ReadTime   int       `json:"readTime"`
	Permalink  string    `json:"permalink"`
}

func summarize(p model.Post) postSummary {
	cats := p.Categories
	if cats == nil {
		cats = []string{}
	}
	return postSummary{
		ID:         p.ID,
		Title:      p.Title,
		Excerpt:    p.Excerpt,
		Categories: cats,
		Date:       p.Date,
		ReadTime:   p.ReadTime,
		Permalink:  p.Permalink,
	}
}

// handleAPIPosts filters the regular posts without touching any session.
func (s *Server) handleAPIPosts(w http.ResponseWriter, r *http.Request) {
	_, regular := catalog.Partition(s.repo.Posts())
	posts := filter.Posts(regular, r.URL.Query().Get("q"), r.URL.Query().Get("category"))

	out := make([]postSummary, len(posts))
	for i, p := range posts {
		out[i] = summarize(p)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"posts": out}); err != nil {
		s.log.Warn("failed to encode posts", zap.Error(err))
	}
}

// requestLogger logs one line per request with zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
