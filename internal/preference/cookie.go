package preference

import (
	"net/http"
	"sync"
	"time"
)

// CookieMaxAge keeps the theme cookie for a year, like a localStorage entry
// that outlives the tab.
const CookieMaxAge = 365 * 24 * time.Hour

// Cookie is a Store backed by the Key cookie of one browser. It is seeded
// from a request and remembers writes until Save copies them into a
// response.
type Cookie struct {
	mu      sync.Mutex
	value   string
	pending bool
}

// FromRequest seeds a Cookie store from r. A missing cookie yields an empty
// store.
func FromRequest(r *http.Request) *Cookie {
	c := &Cookie{}
	if ck, err := r.Cookie(Key); err == nil {
		c.value = ck.Value
	}
	return c
}

func (c *Cookie) Read() (Theme, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ParseTheme(c.value)
}

func (c *Cookie) Write(t Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = string(t)
	c.pending = true
}

// Save sets the cookie on w if a write happened since the last Save.
func (c *Cookie) Save(w http.ResponseWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Key,
		Value:    c.value,
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	c.pending = false
}
