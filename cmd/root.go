package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SMCodesP/imgtransform/internal/config"
	"github.com/SMCodesP/imgtransform/internal/logging"
)

var (
	version    = "0.1.0"
	configFile string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
)

// flagKeys maps command-line flags onto configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"addr":        "server.addr",
	"profile":     "pipeline.profile",
	"strategy":    "pipeline.resize_strategy",
	"quality":     "pipeline.default_quality",
	"metrics":     "metrics.enabled",
	"writeback":   "writeback.enabled",
	"max-age":     "cache.max_age",
	"source-dir":  "source.dir",
	"optimized":   "optimized.dir",
	"concurrency": "writeback.concurrency",
}

var rootCmd = &cobra.Command{
	Use:   "imgtransform",
	Short: "On-demand image transformation service",
	Long: `imgtransform fetches a source image from object storage, optionally
resizes it to a requested width and re-encodes it as AVIF, WebP, JPEG or PNG.

Requests have the shape /<source key>/<operations>, for example
/photos/cat.jpg/width=500,format=webp,quality=80. Transformed objects are
written back to the optimized store under the same path.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level=debug")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console or json)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgtransform %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// loadConfig merges defaults, the config file, the environment and flags,
// then installs the global logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	if verbose {
		v.Set("log.level", "debug")
	}
	c, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if configFile != "" {
		logger.Debug().Str("file", v.ConfigFileUsed()).Msg("config loaded")
	}
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
