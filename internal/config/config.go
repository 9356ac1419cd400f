package config

import (
	"fmt"
	"time"

	"github.com/Bitlatte/devblog/internal/preference"
)

// Config is decoded by viper from defaults, config.yaml and DEVBLOG_*
// environment variables.
type Config struct {
	SiteTitle string `mapstructure:"siteTitle"`
	Tagline   string `mapstructure:"tagline"`
	OutputDir string `mapstructure:"outputDir"`
	BaseURL   string `mapstructure:"baseURL"`

	// ContentDir, LayoutsDir and StaticDir override the embedded defaults
	// when set.
	ContentDir string `mapstructure:"contentDir"`
	LayoutsDir string `mapstructure:"layoutsDir"`
	StaticDir  string `mapstructure:"staticDir"`

	Port         int           `mapstructure:"port"`
	LoadDelay    time.Duration `mapstructure:"loadDelay"`
	SessionTTL   time.Duration `mapstructure:"sessionTTL"`
	DefaultTheme string        `mapstructure:"defaultTheme"` // theme of the static build
	LogLevel     string        `mapstructure:"logLevel"`
}

// Validate reports settings that cannot be served.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.LoadDelay < 0 {
		return fmt.Errorf("loadDelay must not be negative, got %s", c.LoadDelay)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("sessionTTL must be positive, got %s", c.SessionTTL)
	}
	if c.DefaultTheme != "" {
		if _, ok := preference.ParseTheme(c.DefaultTheme); !ok {
			return fmt.Errorf("defaultTheme must be %q or %q, got %q", preference.Light, preference.Dark, c.DefaultTheme)
		}
	}
	if c.OutputDir == "" {
		return fmt.Errorf("outputDir must not be empty")
	}
	return nil
}
