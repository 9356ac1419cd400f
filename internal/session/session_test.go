package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/clock"
	"github.com/Bitlatte/devblog/internal/metrics"
	"github.com/Bitlatte/devblog/internal/preference"
	"github.com/Bitlatte/devblog/internal/view"
)

func newController(t *testing.T, prefs preference.Store) *view.Controller {
	t.Helper()
	c, err := catalog.New(nil, nil)
	require.NoError(t, err)
	return view.New(c, prefs, view.WithScheduler(clock.NewManual()))
}

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(time.Minute, nil, metrics.New())
	defer r.Close()

	prefs := preference.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	s := r.Create(newController(t, prefs), prefs)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestDeleteClosesController(t *testing.T) {
	r := NewRegistry(time.Minute, nil, nil)
	ctrl := newController(t, preference.NewMemory(""))
	s := r.Create(ctrl, nil)

	r.Delete(s.ID)
	assert.True(t, ctrl.Closed())
	_, ok := r.Get(s.ID)
	assert.False(t, ok)
}

func TestExpiryClosesController(t *testing.T) {
	r := NewRegistry(10*time.Millisecond, nil, nil)
	defer r.Close()
	ctrl := newController(t, preference.NewMemory(""))
	r.Create(ctrl, nil)

	time.Sleep(20 * time.Millisecond)
	r.DeleteExpired()
	assert.True(t, ctrl.Closed())
	assert.Equal(t, 0, r.Len())
}

func TestCloseTearsDownAll(t *testing.T) {
	r := NewRegistry(time.Minute, nil, nil)
	a := newController(t, preference.NewMemory(""))
	b := newController(t, preference.NewMemory(""))
	r.Create(a, nil)
	r.Create(b, nil)

	r.Close()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Len())
}

func TestCookieBinding(t *testing.T) {
	r := NewRegistry(time.Minute, nil, nil)
	defer r.Close()
	s := r.Create(newController(t, preference.NewMemory("")), nil)

	rec := httptest.NewRecorder()
	require.NoError(t, r.SetCookie(rec, httptest.NewRequest(http.MethodGet, "/", nil), s))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, "/", cookies[0].Path)
	assert.NotEqual(t, s.ID, cookies[0].Value, "the cookie carries a signed value")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, ok := r.FromRequest(req)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestForgedCookieRejected(t *testing.T) {
	r := NewRegistry(time.Minute, nil, nil)
	defer r.Close()
	s := r.Create(newController(t, preference.NewMemory("")), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})
	_, ok := r.FromRequest(req)
	assert.False(t, ok, "a bare session id is not accepted")

	// A cookie signed by another registry does not decode either.
	other := NewRegistry(time.Minute, nil, nil)
	defer other.Close()
	rec := httptest.NewRecorder()
	require.NoError(t, other.SetCookie(rec, httptest.NewRequest(http.MethodGet, "/", nil), s))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	_, ok = r.FromRequest(req)
	assert.False(t, ok)
}

func TestGetSkipsClosedController(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(time.Minute, nil, m)
	defer r.Close()
	ctrl := newController(t, preference.NewMemory(""))
	s := r.Create(ctrl, nil)

	// An expiry sweep that closed the controller between lookup and refresh
	// leaves the session in the cache with a closed controller.
	ctrl.Close()
	_, ok := r.Get(s.ID)
	assert.False(t, ok)

	r.Delete(s.ID)
	assert.Equal(t, 0, r.Len())
}
