// Package render turns view pages into HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Bitlatte/devblog/internal/model"
	"github.com/Bitlatte/devblog/internal/view"
)

const (
	baseLayout  = "base.html"
	partialsDir = "partials"

	// Placeholder blocks shown while a page is loading.
	FeaturedSkeletons = 3
	RegularSkeletons  = 6
)

// Page template names.
const (
	ListingPage = "listing.html"
	PostPage    = "post.html"
)

// Site carries the site-wide values shown on every page.
type Site struct {
	Title   string
	Tagline string
	BaseURL string
}

// URL prefixes p with the path of the base URL.
func (s Site) URL(p string) string {
	base := strings.TrimSuffix(s.BaseURL, "/")
	if base == "" {
		return p
	}
	if u, err := url.Parse(base); err == nil {
		base = strings.TrimSuffix(u.Path, "/")
	}
	return base + p
}

// ListingData is the input of the listing page.
type ListingData struct {
	Site      Site
	Page      view.Page
	RootClass string
	// RefreshSeconds asks the browser to reload while the page is loading.
	RefreshSeconds int
	// Static renders links for a pre-built site: category pages instead of
	// query strings, no search or theme forms.
	Static bool
}

// CategoryURL links to the listing filtered by id, keeping the search term.
// An empty id links to the unfiltered listing.
func (d ListingData) CategoryURL(id string) string {
	if d.Static {
		if id == "" {
			return d.Site.URL("/")
		}
		return d.Site.URL("/categories/" + url.PathEscape(id) + "/")
	}
	q := url.Values{}
	q.Set("q", d.Page.SearchTerm)
	q.Set("category", id)
	return d.Site.URL("/") + "?" + q.Encode()
}

// ClearURL links to the listing without any filter. A static build keeps
// its root page for the build-time query, so the unfiltered listing lives
// under /all/.
func (d ListingData) ClearURL() string {
	if d.Static {
		return d.Site.URL("/all/")
	}
	return d.Site.URL("/")
}

// PostURL links to a post detail page.
func (d ListingData) PostURL(p model.Post) string {
	return d.Site.URL("/posts/" + url.PathEscape(p.ID) + "/")
}

// CardData is the input of the card partial.
type CardData struct {
	Post     model.Post
	URL      string
	ImageURL string
	Featured bool
}

// Card bundles a post with its links for the card partial. Site-relative
// image paths get the base URL path; absolute URLs are kept.
func (d ListingData) Card(p model.Post, featured bool) CardData {
	img := p.Image
	if strings.HasPrefix(img, "/") && !strings.HasPrefix(img, "//") {
		img = d.Site.URL(img)
	}
	return CardData{Post: p, URL: d.PostURL(p), ImageURL: img, Featured: featured}
}

func (d ListingData) FeaturedPlaceholders() []struct{} {
	return make([]struct{}, FeaturedSkeletons)
}

func (d ListingData) RegularPlaceholders() []struct{} {
	return make([]struct{}, RegularSkeletons)
}

// PostData is the input of the post page.
type PostData struct {
	Site           Site
	Post           model.Post
	RootClass      string
	RefreshSeconds int
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

// Renderer holds one template set per page, each made of the base layout,
// the partials and the page itself.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses base.html, then partials/*.html, then every other top-level
// .html file in layouts as a page.
func New(layouts fs.FS) (*Renderer, error) {
	base, err := template.New(baseLayout).Funcs(funcs).ParseFS(layouts, baseLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", baseLayout, err)
	}

	partials, err := fs.Glob(layouts, path.Join(partialsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list partials: %w", err)
	}
	if len(partials) > 0 {
		if base, err = base.ParseFS(layouts, partials...); err != nil {
			return nil, fmt.Errorf("failed to parse partials: %w", err)
		}
	}

	files, err := fs.Glob(layouts, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	sort.Strings(files)

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		if f == baseLayout {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone base layout for %s: %w", f, err)
		}
		if t, err = t.ParseFS(layouts, f); err != nil {
			return nil, fmt.Errorf("failed to parse layout %s: %w", f, err)
		}
		r.pages[f] = t
	}
	for _, required := range []string{ListingPage, PostPage} {
		if _, ok := r.pages[required]; !ok {
			return nil, fmt.Errorf("layout %s not found", required)
		}
	}
	return r, nil
}

// Listing renders the listing page.
func (r *Renderer) Listing(w io.Writer, d ListingData) error {
	return r.execute(w, ListingPage, d)
}

// Post renders a post page.
func (r *Renderer) Post(w io.Writer, d PostData) error {
	return r.execute(w, PostPage, d)
}

// execute renders into a buffer first so that w never sees a partial page.
func (r *Renderer) execute(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("layout %s not found", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("failed to execute %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
