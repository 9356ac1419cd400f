package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/Bitlatte/devblog/internal/model"
)

const (
	PostsDir       = "posts"
	CategoriesFile = "categories.yaml"

	wordsPerMinute = 200
)

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type frontMatter struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Excerpt    string   `yaml:"excerpt"`
	Categories []string `yaml:"categories"`
	Date       string   `yaml:"date"`
	ReadTime   int      `yaml:"readTime"`
	Image      string   `yaml:"image"`
	Author     string   `yaml:"author"`
}

type categoryEntry struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Count int    `yaml:"count"`
}

// Load reads posts/*.md and categories.yaml from fsys. Posts are ordered by
// date, newest first, with undated posts last and file name breaking ties.
// A missing categories file yields one category per distinct post category.
func Load(fsys fs.FS) (*Catalog, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	files, err := fs.Glob(fsys, path.Join(PostsDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	sort.Strings(files)

	posts := make([]model.Post, 0, len(files))
	for _, name := range files {
		p, err := loadPost(fsys, md, name)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		di, dj := posts[i].Date, posts[j].Date
		if di.IsZero() || dj.IsZero() {
			return !di.IsZero() && dj.IsZero()
		}
		return di.After(dj)
	})

	categories, err := loadCategories(fsys, posts)
	if err != nil {
		return nil, err
	}
	return New(posts, categories)
}

func loadPost(fsys fs.FS, md goldmark.Markdown, name string) (model.Post, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to read post %s: %w", name, err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to parse front matter of %s: %w", name, err)
	}

	var html bytes.Buffer
	if err := md.Convert(body, &html); err != nil {
		return model.Post{}, fmt.Errorf("failed to convert markdown of %s: %w", name, err)
	}

	slug := strings.TrimSuffix(path.Base(name), path.Ext(name))
	p := model.Post{
		ID:          fm.ID,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Categories:  fm.Categories,
		ReadTime:    fm.ReadTime,
		Image:       fm.Image,
		Author:      fm.Author,
		ContentHTML: template.HTML(html.String()),
		SourcePath:  name,
	}
	if p.ID == "" {
		p.ID = slug
	}
	if p.Title == "" {
		p.Title = titleFromSlug(slug)
	}
	if p.ReadTime <= 0 {
		p.ReadTime = readTime(body)
	}
	if fm.Date != "" {
		d, err := parseDate(fm.Date)
		if err != nil {
			return model.Post{}, fmt.Errorf("post %s: %w", name, err)
		}
		p.Date = d
	}
	p.Permalink = "/posts/" + p.ID + "/"
	return p, nil
}

func loadCategories(fsys fs.FS, posts []model.Post) ([]model.Category, error) {
	raw, err := fs.ReadFile(fsys, CategoriesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return deriveCategories(posts), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", CategoriesFile, err)
	}

	var entries []categoryEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CategoriesFile, err)
	}
	out := make([]model.Category, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%s: category without id", CategoriesFile)
		}
		label := e.Label
		if label == "" {
			label = titleFromSlug(e.ID)
		}
		out = append(out, model.Category{ID: e.ID, Label: label, Count: e.Count})
	}
	return out, nil
}

func deriveCategories(posts []model.Post) []model.Category {
	seen := map[string]bool{}
	var out []model.Category
	for _, p := range posts {
		for _, id := range p.Categories {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, model.Category{ID: id, Label: titleFromSlug(id)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, use YYYY-MM-DD or RFC3339", s)
}

func titleFromSlug(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(s)
}

func readTime(body []byte) int {
	words := len(bytes.Fields(body))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}
