package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philipparndt/arview/internal/platform/metrics"
	"github.com/philipparndt/arview/internal/server"
	"github.com/philipparndt/arview/internal/status"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the viewer page, its assets and the AR mode decision API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from ARVIEW_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if cmd.Flags().Changed("addr") {
		cfg.ListenAddr = serveAddr
	}
	log := newLogger(cfg)

	met := metrics.New()
	hub := status.NewHub(log)
	h := server.NewHandler(cfg, log, met, hub)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: h.Router()}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("server starting",
		slog.String("addr", cfg.ListenAddr),
		slog.String("web_root", cfg.WebRoot),
		slog.String("log_level", cfg.LogLevel),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCh:
	}

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
