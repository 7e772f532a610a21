package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bledden/tinker-voice/internal/api"
	"github.com/bledden/tinker-voice/internal/app"
	"github.com/bledden/tinker-voice/internal/config"
	"github.com/bledden/tinker-voice/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: "Start the HTTP API. Without --config, defaults apply and vendor keys\n" +
			"are read from ELEVENLABS_API_KEY, ANTHROPIC_API_KEY, TONIC_API_KEY,\n" +
			"YUTORI_API_KEY, and TINKER_API_KEY.",
		Example: `  tinker-voice serve
  tinker-voice serve --config configs/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	svc, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("wiring services: %w", err)
	}

	if cfg.Health.Enabled {
		hc, err := app.NewHealthChecker(svc.Keys, cfg.Health.Interval, cfg.Services.Timeout, log)
		if err != nil {
			return fmt.Errorf("creating health checker: %w", err)
		}
		hc.Start()
		defer func() { <-hc.Stop().Done() }()
	}

	// Waiting routes outlive the write timeout by their poll budget.
	e, _ := api.NewServer(svc, Version, log, api.WithWaitHolds(
		cfg.Polling.Research.Budget(cfg.Services.Timeout)+cfg.Server.WriteTimeout,
		cfg.Polling.Training.Budget(cfg.Services.Timeout)+cfg.Server.WriteTimeout,
	))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
