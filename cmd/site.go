package cmd

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/Bitlatte/devblog/content"
	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/config"
	"github.com/Bitlatte/devblog/internal/render"
	"github.com/Bitlatte/devblog/web"
)

// dirOr returns the directory dir as a file system, or fallback when dir is
// not configured.
func dirOr(dir string, fallback fs.FS) (fs.FS, error) {
	if dir == "" {
		return fallback, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory '%s' not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	fsys, err := dirOr(cfg.ContentDir, content.FS)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Load(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return c, nil
}

func loadRenderer(cfg config.Config) (*render.Renderer, error) {
	fsys, err := dirOr(cfg.LayoutsDir, web.Layouts())
	if err != nil {
		return nil, err
	}
	r, err := render.New(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load layouts: %w", err)
	}
	return r, nil
}

func staticFS(cfg config.Config) (fs.FS, error) {
	return dirOr(cfg.StaticDir, web.Static())
}

func siteOf(cfg config.Config) render.Site {
	return render.Site{Title: cfg.SiteTitle, Tagline: cfg.Tagline, BaseURL: cfg.BaseURL}
}
