// Package session keeps one view controller per browser.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/metrics"
	"github.com/Bitlatte/devblog/internal/preference"
	"github.com/Bitlatte/devblog/internal/view"
)

// CookieName identifies the session of a browser.
const CookieName = "devblog_session"

// idKey is the session value holding the registry id.
const idKey = "id"

// Session is the server side of one open listing page.
type Session struct {
	ID         string
	Controller *view.Controller
	Prefs      *preference.Cookie
}

// Registry stores sessions and closes their controllers when they expire.
type Registry struct {
	items   *cache.Cache
	store   *sessions.CookieStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

// buildSessionOptions returns the cookie options of the session cookie.
// A zero maxAge makes it a browser-session cookie.
func buildSessionOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewRegistry creates a registry whose sessions expire after ttl without
// use. The expiry sweep runs every ttl/2, and at most once a second.
//
// The cookie signing key is generated per registry: controllers live in
// memory, so a cookie from a previous process has nothing to point at.
func NewRegistry(ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	store := sessions.NewCookieStore(securecookie.GenerateRandomKey(32))
	store.Options = buildSessionOptions(0)
	r := &Registry{
		items:   cache.New(ttl, max(ttl/2, time.Second)),
		store:   store,
		log:     log,
		metrics: m,
	}
	r.items.OnEvicted(r.evicted)
	return r
}

func (r *Registry) evicted(id string, v interface{}) {
	s, ok := v.(*Session)
	if !ok || s.Controller.Closed() {
		return
	}
	s.Controller.Close()
	r.metrics.SessionClosed()
	r.log.Debug("session closed", zap.String("session", id))
}

// Create registers a new session for ctrl.
func (r *Registry) Create(ctrl *view.Controller, prefs *preference.Cookie) *Session {
	s := &Session{ID: uuid.NewString(), Controller: ctrl, Prefs: prefs}
	r.items.SetDefault(s.ID, s)
	r.metrics.SessionOpened()
	r.log.Debug("session opened", zap.String("session", s.ID))
	return s
}

// Get returns the session and extends its lifetime. A session whose
// controller was closed by an expiry sweep is reported missing, even if the
// refresh put it back.
func (r *Registry) Get(id string) (*Session, bool) {
	v, ok := r.items.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	r.items.SetDefault(id, s)
	if s.Controller.Closed() {
		return nil, false
	}
	return s, true
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) {
	r.items.Delete(id)
}

// Len returns the number of stored sessions, including expired ones not
// swept yet.
func (r *Registry) Len() int {
	return r.items.ItemCount()
}

// DeleteExpired sweeps expired sessions now.
func (r *Registry) DeleteExpired() {
	r.items.DeleteExpired()
}

// Close tears every session down.
func (r *Registry) Close() {
	r.items.DeleteExpired()
	for id := range r.items.Items() {
		r.items.Delete(id)
	}
}

// FromRequest returns the session named by the signed request cookie.
// Missing, tampered and stale cookies all report false.
func (r *Registry) FromRequest(req *http.Request) (*Session, bool) {
	cs, err := r.store.Get(req, CookieName)
	if err != nil || cs.IsNew {
		return nil, false
	}
	id, ok := cs.Values[idKey].(string)
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// SetCookie binds the browser to s.
func (r *Registry) SetCookie(w http.ResponseWriter, req *http.Request, s *Session) error {
	// A stale cookie fails to decode; New still returns a fresh session.
	cs, _ := r.store.New(req, CookieName)
	cs.Values[idKey] = s.ID
	return r.store.Save(req, w, cs)
}
