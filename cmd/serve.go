package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SMCodesP/imgtransform/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transformed images over HTTP",
	Long: `Starts an HTTP server answering GET /<source key>/<operations>.

Missing sources answer 404, any other failure 500. Successful responses are
written back to the optimized store in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().StringP("profile", "p", "default", "pipeline profile")
	serveCmd.Flags().String("strategy", "", "resize strategy override (parallel or triangle)")
	serveCmd.Flags().IntP("quality", "q", 0, "default quality override (0 = profile default)")
	serveCmd.Flags().Bool("metrics", false, "expose Prometheus metrics")
	serveCmd.Flags().Bool("writeback", true, "store transformed images in the optimized store")
	serveCmd.Flags().Int("concurrency", 8, "concurrent write-back uploads")
	serveCmd.Flags().Int("max-age", 3600, "Cache-Control max-age in seconds")
	serveCmd.Flags().String("source-dir", "", "source store directory (local backend)")
	serveCmd.Flags().String("optimized", "", "optimized store directory (local backend)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newStack(ctx, 0)
	if err != nil {
		return err
	}
	defer s.Close()

	scfg := server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if s.prom != nil {
		scfg.MetricsPath = cfg.Metrics.Path
		scfg.MetricsHandler = s.prom.Handler()
		scfg.OnResponse = s.prom.Response
	}

	srv := server.New(scfg, s.transformer, logger.With().Str("component", "http").Logger())
	err = srv.Run(ctx)
	s.drain()
	return err
}

