// Package filter selects the posts matching a search term and a category.
//
// Matching folds case with Unicode case folding from
// golang.org/x/text/cases, so "React", "REACT" and "react" are equal and the
// result does not depend on the process locale. Terms are not trimmed: a
// term made of a single space only matches text that contains a space.
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/Bitlatte/devblog/internal/model"
)

// Query is the pair of constraints applied to a post collection.
// An empty Term matches every post and an empty Category disables the
// category constraint.
type Query struct {
	Term     string
	Category string
}

// IsZero reports whether the query matches everything.
func (q Query) IsZero() bool {
	return q.Term == "" && q.Category == ""
}

// Matches reports whether the post satisfies both constraints.
func (q Query) Matches(p model.Post) bool {
	return q.matches(p, Normalize(q.Term))
}

func (q Query) matches(p model.Post, term string) bool {
	if q.Category != "" && !p.HasCategory(q.Category) {
		return false
	}
	if term == "" {
		return true
	}
	return strings.Contains(Normalize(p.Title), term) ||
		strings.Contains(Normalize(p.Excerpt), term)
}

// Apply returns the posts matching q in their original order.
// The result never aliases the input slice.
func (q Query) Apply(posts []model.Post) []model.Post {
	term := Normalize(q.Term)
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if q.matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

// Posts filters posts by term and category.
func Posts(posts []model.Post, term, category string) []model.Post {
	return Query{Term: term, Category: category}.Apply(posts)
}

// Normalize returns the case-folded form used for comparisons.
// A Caser may keep state between calls, so each call folds with its own.
func Normalize(s string) string {
	return cases.Fold().String(s)
}
