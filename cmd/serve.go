package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/catalog"
	"github.com/Bitlatte/devblog/internal/config"
	"github.com/Bitlatte/devblog/internal/metrics"
	"github.com/Bitlatte/devblog/internal/server"
)

const reloadDebounce = 500 * time.Millisecond

var serverPort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the listing page with live search, filters and theme",
	Long: `The serve command loads the posts and starts a web server rendering the
listing page per browser session. When contentDir is configured the
directory is watched and the posts are reloaded on change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, appConfig, logger)
	},
}

func runServer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
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
	log.Info("catalog loaded", zap.Int("posts", cat.Len()))

	live := catalog.NewLive(cat)
	m := metrics.New()
	srv := server.New(server.Config{
		Port:       cfg.Port,
		Site:       siteOf(cfg),
		LoadDelay:  cfg.LoadDelay,
		SessionTTL: cfg.SessionTTL,
		Static:     assets,
	}, live, renderer, log.Named("http"), m)

	if cfg.ContentDir != "" {
		stopWatch, err := watchContent(cfg, live, m, log.Named("watch"))
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		srv.Sessions().Close()
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return <-errCh
}

// watchContent reloads the catalog when files under the content directory
// change. Reloads are debounced; a failed reload keeps the previous catalog.
func watchContent(cfg config.Config, live *catalog.Live, m *metrics.Metrics, log *zap.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	reload := func() {
		c, err := loadCatalog(cfg)
		m.CatalogReload(err)
		if err != nil {
			log.Warn("reload failed, keeping previous content", zap.Error(err))
			return
		}
		live.Swap(c)
		log.Info("content reloaded", zap.Int("posts", c.Len()))
	}

	done := make(chan struct{})
	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				log.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				if event.Has(fsnotify.Create) && isDir(event.Name) {
					if err := watcher.Add(event.Name); err != nil {
						log.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	err = filepath.WalkDir(cfg.ContentDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		close(done)
		watcher.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", cfg.ContentDir, err)
	}
	log.Info("watching content", zap.String("dir", cfg.ContentDir))

	return func() {
		close(done)
		if err := watcher.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Warn("failed to close watcher", zap.Error(err))
		}
	}, nil
}

// Helper function to check if a path is a directory
func isDir(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 1313, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
