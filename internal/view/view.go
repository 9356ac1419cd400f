// Package view owns the state of one listing page: search term, selected
// category, theme and the simulated loading phase.
//
// A Controller is created when a page is opened and closed when it goes
// away. Creation schedules the one-shot transition out of the loading state;
// Close cancels it, so a closed controller never changes again.
package view

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/clock"
	"github.com/Bitlatte/devblog/internal/filter"
	"github.com/Bitlatte/devblog/internal/metrics"
	"github.com/Bitlatte/devblog/internal/model"
	"github.com/Bitlatte/devblog/internal/preference"
)

// DefaultLoadDelay is how long a new page shows loading placeholders.
const DefaultLoadDelay = 800 * time.Millisecond

// State is a snapshot of the view state. An empty Category means no
// category is selected.
type State struct {
	SearchTerm string
	Category   string
	Dark       bool
	Loading    bool
}

// Query returns the filter constraints held by the state.
func (s State) Query() filter.Query {
	return filter.Query{Term: s.SearchTerm, Category: s.Category}
}

// Theme returns the theme the state renders with.
func (s State) Theme() preference.Theme {
	return preference.ThemeOf(s.Dark)
}

// Page is everything the presentation layer needs for one render.
type Page struct {
	State
	Featured   []model.Post
	Posts      []model.Post
	Categories []model.Category
	// Empty is set when loading is over and no regular post matches.
	Empty bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the runtime timer, mostly for tests.
func WithScheduler(s clock.Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithLoadDelay sets the loading phase duration. A zero or negative delay
// starts the controller ready.
func WithLoadDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithDocument sets the root element class list kept in sync with the theme.
func WithDocument(doc *preference.ClassList) Option {
	return func(c *Controller) { c.doc = doc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller holds the mutable state of one page.
//
// Thread-safety: all methods are safe for concurrent use; the loading timer
// fires on its own goroutine.
type Controller struct {
	repo      catalog.Repository
	prefs     preference.Store
	doc       *preference.ClassList
	scheduler clock.Scheduler
	delay     time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	state  State
	timer  clock.Timer
	closed bool
}

// New creates a controller reading posts from repo and the theme from prefs.
// The theme read from prefs is written back and applied to the document
// right away, so both agree with the state from the first render on.
func New(repo catalog.Repository, prefs preference.Store, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		prefs:     prefs,
		scheduler: clock.Real{},
		delay:     DefaultLoadDelay,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doc == nil {
		c.doc = preference.NewClassList()
	}

	if t, ok := c.prefs.Read(); ok && t == preference.Dark {
		c.state.Dark = true
	}
	c.syncTheme()

	if c.delay > 0 {
		c.mu.Lock()
		c.state.Loading = true
		c.timer = c.scheduler.AfterFunc(c.delay, c.finishLoading)
		c.mu.Unlock()
	}
	return c
}

func (c *Controller) finishLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Loading = false
	c.timer = nil
	c.log.Debug("loading finished")
}

// syncTheme must be called with c.mu held or before c is shared.
func (c *Controller) syncTheme() {
	t := c.state.Theme()
	c.prefs.Write(t)
	preference.Apply(c.doc, t)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Document returns the root element class list.
func (c *Controller) Document() *preference.ClassList { return c.doc }

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// update runs f on the state unless the controller is closed.
func (c *Controller) update(f func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	f(&c.state)
}

// SetSearchTerm replaces the search term.
func (c *Controller) SetSearchTerm(term string) {
	c.update(func(s *State) { s.SearchTerm = term })
}

// SelectCategory selects a category id. An empty id clears the selection.
func (c *Controller) SelectCategory(id string) {
	c.update(func(s *State) { s.Category = id })
}

// Apply sets search term and category together.
func (c *Controller) Apply(q filter.Query) {
	c.update(func(s *State) {
		s.SearchTerm = q.Term
		s.Category = q.Category
	})
}

// ClearFilters resets search term and category in one step.
func (c *Controller) ClearFilters() {
	c.Apply(filter.Query{})
}

// ToggleTheme flips the theme, persists it and updates the document class.
func (c *Controller) ToggleTheme() preference.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state.Theme()
	}
	c.state.Dark = !c.state.Dark
	c.syncTheme()
	t := c.state.Theme()
	c.metrics.ThemeToggle(string(t))
	c.log.Debug("theme toggled", zap.String("theme", string(t)))
	return t
}

// Page derives the render model from the current state and catalog.
func (c *Controller) Page() Page {
	s := c.State()
	featured, regular := catalog.Partition(c.repo.Posts())
	p := Page{
		State:      s,
		Featured:   featured,
		Posts:      s.Query().Apply(regular),
		Categories: c.repo.Categories(),
	}
	p.Empty = !s.Loading && len(p.Posts) == 0
	if !s.Loading {
		c.metrics.FilterResults(len(p.Posts))
	}
	return p
}

// Close cancels the pending loading transition. Later calls are no-ops and
// no state change happens afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
