// Package catalog holds the read-only collection of posts and categories
// shown on the listing page.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/Bitlatte/devblog/internal/model"
)

// FeaturedCount is the number of leading posts shown in the featured grid.
// Those posts are never subject to search or category filtering.
const FeaturedCount = 3

var (
	ErrNotFound    = errors.New("post not found")
	ErrDuplicateID = errors.New("duplicate post id")
	ErrInvalidID   = errors.New("invalid id")
)

// validID reports whether id can name a single path segment of the built
// site.
func validID(id string) bool {
	return id != "" && !strings.Contains(id, "..") && !strings.ContainsAny(id, `/\`)
}

// Repository is the read side of a catalog.
type Repository interface {
	Posts() []model.Post
	Categories() []model.Category
	Post(id string) (model.Post, error)
}

// Catalog is an immutable, ordered set of posts.
type Catalog struct {
	posts      []model.Post
	categories []model.Category
	byID       map[string]int
}

// New builds a catalog from posts in display order. Category counts left at
// zero are filled with the number of posts carrying the category. Post and
// category ids must be non-empty and free of path separators and "..".
func New(posts []model.Post, categories []model.Category) (*Catalog, error) {
	c := &Catalog{
		posts:      slices.Clone(posts),
		categories: slices.Clone(categories),
		byID:       make(map[string]int, len(posts)),
	}
	for i, p := range c.posts {
		if !validID(p.ID) {
			return nil, fmt.Errorf("%w: post %q", ErrInvalidID, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		c.byID[p.ID] = i
	}
	for i, cat := range c.categories {
		if !validID(cat.ID) {
			return nil, fmt.Errorf("%w: category %q", ErrInvalidID, cat.ID)
		}
		if cat.Count != 0 {
			continue
		}
		for _, p := range c.posts {
			if p.HasCategory(cat.ID) {
				c.categories[i].Count++
			}
		}
	}
	return c, nil
}

// Posts returns every post in display order.
func (c *Catalog) Posts() []model.Post { return slices.Clone(c.posts) }

// Categories returns the category filter entries.
func (c *Catalog) Categories() []model.Category { return slices.Clone(c.categories) }

// Post looks a post up by id.
func (c *Catalog) Post(id string) (model.Post, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Post{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.posts[i], nil
}

// Len returns the number of posts.
func (c *Catalog) Len() int { return len(c.posts) }

// Partition splits posts into the featured head and the filterable rest.
// Both results are fresh slices.
func Partition(posts []model.Post) (featured, regular []model.Post) {
	n := min(FeaturedCount, len(posts))
	return slices.Clone(posts[:n]), slices.Clone(posts[n:])
}

// Live is a Repository whose catalog can be replaced while readers hold it,
// e.g. when content files change under a running server.
type Live struct {
	cur atomic.Pointer[Catalog]
}

// NewLive returns a Live repository serving c.
func NewLive(c *Catalog) *Live {
	l := &Live{}
	l.cur.Store(c)
	return l
}

// Swap installs c for all subsequent reads.
func (l *Live) Swap(c *Catalog) { l.cur.Store(c) }

// Current returns the catalog being served.
func (l *Live) Current() *Catalog { return l.cur.Load() }

func (l *Live) Posts() []model.Post { return l.cur.Load().Posts() }
func (l *Live) Categories() []model.Category { return l.cur.Load().Categories() }
func (l *Live) Post(id string) (model.Post, error) { return l.cur.Load().Post(id) }
