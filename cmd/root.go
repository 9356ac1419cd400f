package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Bitlatte/devblog/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	appConfig config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "devblog",
	Short: "devblog - a frontend blog listing page",
	Long: `devblog renders a blog listing page with featured posts, search,
category filters and a light/dark theme. It can serve the page with live
filtering or build it into static HTML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "human readable debug logging")
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("siteTitle", "Frontend Dev Blog")
	v.SetDefault("tagline", "Deep dives into frontend, performance, accessibility and interface design.")
	v.SetDefault("outputDir", "public")
	v.SetDefault("baseURL", "")
	v.SetDefault("contentDir", "")
	v.SetDefault("layoutsDir", "")
	v.SetDefault("staticDir", "")
	v.SetDefault("port", 1313)
	v.SetDefault("loadDelay", "800ms")
	v.SetDefault("sessionTTL", "30m")
	v.SetDefault("defaultTheme", "light")
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix("DEVBLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func initializeConfig(cmd *cobra.Command) error {
	v := newViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	configMissing := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
		configMissing = true
	}

	if f := cmd.Flags().Lookup("port"); f != nil {
		if err := v.BindPFlag("port", f); err != nil {
			return fmt.Errorf("failed to bind port flag: %w", err)
		}
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := newLogger(appConfig.LogLevel, verbose)
	if err != nil {
		return err
	}
	logger = l

	if configMissing {
		logger.Info("no config file found, using defaults and environment")
	} else {
		logger.Info("using config file", zap.String("path", v.ConfigFileUsed()))
	}
	return nil
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logLevel %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = lvl
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}
