package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/config"
	"github.com/Bitlatte/devblog/internal/filter"
	"github.com/Bitlatte/devblog/internal/model"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	require.NoError(t, newViper().Unmarshal(&cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "public", cfg.OutputDir)
	assert.Equal(t, 1313, cfg.Port)
	assert.Equal(t, 800*time.Millisecond, cfg.LoadDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "light", cfg.DefaultTheme)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEVBLOG_LOADDELAY", "2s")
	t.Setenv("DEVBLOG_SITETITLE", "From env")
	cfg := defaultConfig(t)
	assert.Equal(t, 2*time.Second, cfg.LoadDelay)
	assert.Equal(t, "From env", cfg.SiteTitle)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("chatty", false)
	assert.ErrorContains(t, err, "invalid logLevel")
}

func TestBuild(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.OutputDir = filepath.Join(t.TempDir(), "public")

	require.NoError(t, runBuildProcess(cfg, filter.Query{}, zap.NewNop()))

	cat, err := loadCatalog(cfg)
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	page := string(index)
	assert.Equal(t, catalog.FeaturedCount, strings.Count(page, "card card-featured"))
	assert.Equal(t, cat.Len()-catalog.FeaturedCount, strings.Count(page, `<article class="card">`))
	assert.NotContains(t, page, "skeleton-", "static pages never show the loading phase")
	assert.NotContains(t, page, `type="search"`)

	for _, c := range cat.Categories() {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, "categories", c.ID, "index.html"))
	}
	for _, p := range cat.Posts() {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, "posts", p.ID, "index.html"))
	}
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "static", "css", "blog.css"))
}

func TestBuildDarkThemeAndSearch(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.DefaultTheme = "dark"

	require.NoError(t, runBuildProcess(cfg, filter.Query{Term: "no post is called this"}, zap.NewNop()))

	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<html lang="en" class="dark">`)
	assert.Contains(t, string(index), "No articles match the current filters.")
}

func TestBuildClearFiltersReachable(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, runBuildProcess(cfg, filter.Query{Term: "zzz-no-match"}, zap.NewNop()))

	for _, page := range []string{"index.html", filepath.Join("categories", "css", "index.html")} {
		b, err := os.ReadFile(filepath.Join(cfg.OutputDir, page))
		require.NoError(t, err)
		assert.Contains(t, string(b), "No articles match the current filters.", page)
		assert.Contains(t, string(b), `<a class="button" href="/all/">Clear filters</a>`, page)
	}

	cat, err := loadCatalog(cfg)
	require.NoError(t, err)
	all, err := os.ReadFile(filepath.Join(cfg.OutputDir, "all", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(all), "No articles match the current filters.")
	assert.Equal(t, cat.Len()-catalog.FeaturedCount, strings.Count(string(all), `<article class="card">`))
}

func TestBuildContentDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "only.md"), []byte("---\ntitle: Only post\n---\nbody\n"), 0o644))

	cfg := defaultConfig(t)
	cfg.ContentDir = dir
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, runBuildProcess(cfg, filter.Query{}, zap.NewNop()))

	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Only post")

	cfg.ContentDir = filepath.Join(dir, "missing")
	assert.Error(t, runBuildProcess(cfg, filter.Query{}, zap.NewNop()))
}

func TestPrintPosts(t *testing.T) {
	cat, err := catalog.New([]model.Post{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"},
		{ID: "d", Title: "React hooks", Categories: []string{"react"}, Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "e", Title: "Grid", Categories: []string{"css"}},
	}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printPosts(&buf, cat, filter.Query{Term: "react"}))
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "SECTION"))
	assert.Contains(t, lines[4], "2025-01-02")
	assert.Contains(t, lines[4], "React hooks")
	assert.NotContains(t, out, "Grid")

	buf.Reset()
	require.NoError(t, printPosts(&buf, cat, filter.Query{Category: "none"}))
	assert.Contains(t, buf.String(), "no regular posts match the current filters")
}
