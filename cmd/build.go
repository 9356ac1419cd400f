package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/config"
	"github.com/Bitlatte/devblog/internal/filter"
	"github.com/Bitlatte/devblog/internal/preference"
	"github.com/Bitlatte/devblog/internal/render"
	"github.com/Bitlatte/devblog/internal/view"
)

var buildQuery filter.Query

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the listing page and post pages as static HTML",
	Long: `The build command loads the posts, renders the listing page, one page
per category, an unfiltered page under all/ and one page per post, copies the static assets and writes
everything to the configured output directory (default './public/').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuildProcess(appConfig, buildQuery, logger)
	},
}

func runBuildProcess(cfg config.Config, q filter.Query, log *zap.Logger) error {
	log.Info("starting build", zap.String("outputDir", cfg.OutputDir), zap.String("baseURL", cfg.BaseURL))

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	renderer, err := loadRenderer(cfg)
	if err != nil {
		return err
	}
	assets, err := staticFS(cfg)
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir
	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("failed to remove output directory '%s': %w", outputDir, err)
	}
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", outputDir, err)
	}

	if err := copyDirContents(assets, filepath.Join(outputDir, "static")); err != nil {
		return fmt.Errorf("failed to copy static assets: %w", err)
	}

	// The static build has no loading phase and no toggle; the configured
	// theme is baked in.
	ctrl := view.New(cat, preference.NewMemory(cfg.DefaultTheme), view.WithLoadDelay(0), view.WithLogger(log))
	defer ctrl.Close()
	ctrl.Apply(q)

	site := siteOf(cfg)
	listing := func(path string) error {
		return writePage(filepath.Join(outputDir, path, "index.html"), func(w io.Writer) error {
			return renderer.Listing(w, render.ListingData{
				Site:      site,
				Page:      ctrl.Page(),
				RootClass: ctrl.Document().String(),
				Static:    true,
			})
		})
	}

	if err := listing("."); err != nil {
		return err
	}
	for _, c := range cat.Categories() {
		ctrl.SelectCategory(c.ID)
		if err := listing(filepath.Join("categories", c.ID)); err != nil {
			return err
		}
	}
	// Target of the "Clear filters" link.
	ctrl.ClearFilters()
	if err := listing("all"); err != nil {
		return err
	}

	for _, p := range cat.Posts() {
		err := writePage(filepath.Join(outputDir, "posts", p.ID, "index.html"), func(w io.Writer) error {
			return renderer.Post(w, render.PostData{Site: site, Post: p, RootClass: ctrl.Document().String()})
		})
		if err != nil {
			return err
		}
	}

	log.Info("build completed",
		zap.Int("posts", cat.Len()),
		zap.Int("categories", len(cat.Categories())),
	)
	return nil
}

func writePage(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}

// copyDirContents recursively copies contents of src into dst.
func copyDirContents(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, filepath.FromSlash(path))

		if d.IsDir() {
			if err := os.MkdirAll(dstPath, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			return nil
		}
		if err := copyFile(src, path, dstPath); err != nil {
			return fmt.Errorf("failed to copy file from %s to %s: %w", path, dstPath, err)
		}
		return nil
	})
}

// copyFile copies a single file from src to dstFile.
func copyFile(src fs.FS, name, dstFile string) error {
	srcF, err := src.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", name, err)
	}
	defer srcF.Close()

	dstF, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}
	defer dstF.Close()

	if _, err := io.Copy(dstF, srcF); err != nil {
		return fmt.Errorf("failed to copy data from %s to %s: %w", name, dstFile, err)
	}
	return dstF.Close()
}

func init() {
	buildCmd.Flags().StringVar(&buildQuery.Term, "search", "", "only list regular posts matching this term")
	buildCmd.Flags().StringVar(&buildQuery.Category, "category", "", "category of the root listing page")
	rootCmd.AddCommand(buildCmd)
}
