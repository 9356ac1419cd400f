package render

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitlatte/devblog/internal/model"
	"github.com/Bitlatte/devblog/internal/view"
	"github.com/Bitlatte/devblog/web"
)

var site = Site{Title: "Frontend Dev Blog", Tagline: "Notes on the web platform"}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(web.Layouts())
	require.NoError(t, err)
	return r
}

func readyPage() view.Page {
	return view.Page{
		Featured: []model.Post{
			{ID: "a", Title: "Alpha", Excerpt: "First", ReadTime: 3, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "b", Title: "Beta", Excerpt: "Second", ReadTime: 2},
			{ID: "c", Title: "Gamma", Excerpt: "Third", ReadTime: 1},
		},
		Posts: []model.Post{
			{ID: "d", Title: "Delta <script>", Excerpt: "Fourth", ReadTime: 5, Categories: []string{"css"}},
		},
		Categories: []model.Category{{ID: "css", Label: "CSS", Count: 4}, {ID: "react", Label: "React", Count: 2}},
	}
}

func renderListing(t *testing.T, d ListingData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).Listing(&buf, d))
	return buf.String()
}

func TestListingLoadingShowsSkeletons(t *testing.T) {
	p := readyPage()
	p.Loading = true
	out := renderListing(t, ListingData{Site: site, Page: p, RefreshSeconds: 1})

	assert.Equal(t, FeaturedSkeletons, strings.Count(out, "skeleton-featured"))
	assert.Equal(t, RegularSkeletons, strings.Count(out, "skeleton-regular"))
	assert.NotContains(t, out, "Alpha", "no cards while loading")
	assert.Contains(t, out, `<meta http-equiv="refresh" content="1">`)
}

func TestListingReady(t *testing.T) {
	out := renderListing(t, ListingData{Site: site, Page: readyPage()})

	assert.NotContains(t, out, "skeleton-")
	assert.NotContains(t, out, "http-equiv")
	assert.Equal(t, 3, strings.Count(out, "card card-featured"))
	assert.Contains(t, out, "Frontend Dev Blog")
	assert.Contains(t, out, "Notes on the web platform")
	assert.Contains(t, out, "Delta &lt;script&gt;")
	assert.Contains(t, out, `href="/posts/d/"`)
	assert.Contains(t, out, "Mar 1, 2025")
	assert.Contains(t, out, `CSS <span class="count">4</span>`)
	assert.Contains(t, out, `action="/theme"`)
	assert.Contains(t, out, "Dark mode")
	assert.NotContains(t, out, "Clear filters")
}

func TestListingEmptyState(t *testing.T) {
	p := readyPage()
	p.Posts = nil
	p.Empty = true
	p.SearchTerm = "zzz"
	out := renderListing(t, ListingData{Site: site, Page: p})

	assert.Contains(t, out, "No articles match the current filters.")
	assert.Contains(t, out, `action="/filters/clear"`)
	assert.Contains(t, out, "Clear filters")
	assert.Contains(t, out, `value="zzz"`)
	assert.Equal(t, 3, strings.Count(out, "card card-featured"), "featured grid stays")
}

func TestListingDarkRootClass(t *testing.T) {
	p := readyPage()
	p.Dark = true
	out := renderListing(t, ListingData{Site: site, Page: p, RootClass: "dark"})
	assert.Contains(t, out, `<html lang="en" class="dark">`)
	assert.Contains(t, out, "Light mode")
}

func TestListingSelectedCategory(t *testing.T) {
	p := readyPage()
	p.Category = "react"
	p.SearchTerm = "hooks"
	out := renderListing(t, ListingData{Site: site, Page: p})
	assert.Contains(t, out, `href="/?category=react&amp;q=hooks" class="selected"`)
	assert.Contains(t, out, `href="/?category=&amp;q=hooks">All`)
}

func TestListingStatic(t *testing.T) {
	p := readyPage()
	p.Posts = nil
	p.Empty = true
	out := renderListing(t, ListingData{Site: Site{Title: "x", BaseURL: "https://example.com/blog/"}, Page: p, Static: true})

	assert.NotContains(t, out, `action="/blog/theme"`)
	assert.NotContains(t, out, `type="search"`)
	assert.Contains(t, out, `href="/blog/categories/css/"`)
	assert.Contains(t, out, `href="/blog/static/css/blog.css"`)
	assert.Contains(t, out, `class="button" href="/blog/all/"`)
}

func TestPost(t *testing.T) {
	var buf bytes.Buffer
	err := newRenderer(t).Post(&buf, PostData{
		Site: site,
		Post: model.Post{ID: "a", Title: "Alpha", Author: "Ana", ReadTime: 4, ContentHTML: "<p>Hello <em>world</em></p>"},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "<title>Alpha · Frontend Dev Blog</title>")
	assert.Contains(t, out, "<p>Hello <em>world</em></p>")
	assert.Contains(t, out, "4 min read · Ana")
}

func TestSiteURL(t *testing.T) {
	assert.Equal(t, "/x", Site{}.URL("/x"))
	assert.Equal(t, "/blog/x", Site{BaseURL: "https://example.com/blog/"}.URL("/x"))
	assert.Equal(t, "/x", Site{BaseURL: "https://example.com"}.URL("/x"))
}

func TestCategoryURL(t *testing.T) {
	d := ListingData{Page: view.Page{State: view.State{SearchTerm: "a b"}}}
	assert.Equal(t, "/?category=css&q=a+b", d.CategoryURL("css"))

	d.Static = true
	assert.Equal(t, "/categories/css/", d.CategoryURL("css"))
	assert.Equal(t, "/", d.CategoryURL(""))
}

func TestClearURL(t *testing.T) {
	d := ListingData{Site: Site{BaseURL: "https://example.com/blog/"}}
	assert.Equal(t, "/blog/", d.ClearURL())
	d.Static = true
	assert.Equal(t, "/blog/all/", d.ClearURL())
}

func TestCardImage(t *testing.T) {
	p := readyPage()
	p.Featured[0].Image = "/static/img/alpha.png"
	p.Posts[0].Image = "https://cdn.example.com/d.jpg"
	out := renderListing(t, ListingData{Site: Site{Title: "x", BaseURL: "https://example.com/blog/"}, Page: p})

	assert.Contains(t, out, `<img class="card-image" src="/blog/static/img/alpha.png" alt="Alpha" loading="lazy">`)
	assert.Contains(t, out, `src="https://cdn.example.com/d.jpg"`)
	assert.Equal(t, 2, strings.Count(out, "<img "), "posts without an image render none")
}

func TestNewRequiresPages(t *testing.T) {
	_, err := New(fstest.MapFS{
		"base.html": {Data: []byte(`{{define "base"}}{{template "content" .}}{{end}}`)},
	})
	assert.ErrorContains(t, err, "layout listing.html not found")

	_, err = New(fstest.MapFS{})
	assert.Error(t, err)
}

func TestExecuteErrorWritesNothing(t *testing.T) {
	r, err := New(fstest.MapFS{
		"base.html":    {Data: []byte(`{{define "base"}}start {{template "content" .}}{{end}}`)},
		"listing.html": {Data: []byte(`{{define "content"}}{{.Missing}}{{end}}`)},
		"post.html":    {Data: []byte(`{{define "content"}}ok{{end}}`)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, r.Listing(&buf, ListingData{}))
	assert.Empty(t, buf.String())
}
