package model

import (
	"html/template"
	"slices"
	"time"
)

// Post represents a single blog article shown on the listing page.
type Post struct {
	ID          string
	Title       string
	Excerpt     string
	Categories  []string
	Date        time.Time
	ReadTime    int
	Image       string
	Author      string
	Permalink   string
	ContentHTML template.HTML
	SourcePath  string
}

// HasCategory reports whether the post is tagged with the category id.
func (p Post) HasCategory(id string) bool {
	return slices.Contains(p.Categories, id)
}

// Category is an entry of the category filter.
type Category struct {
	ID    string
	Label string
	Count int
}
