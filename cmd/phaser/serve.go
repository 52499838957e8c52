// Package main provides the phaser CLI application.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/gitctx"
	"github.com/phaser-svc/phaser/pkg/observability"
	"github.com/phaser-svc/phaser/pkg/webhook"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a webhook endpoint and run matching pushes",
	Long: `Start an HTTP server that accepts GitHub push webhooks and runs the
pipeline for each delivery that matches its triggers.

Deliveries are verified against the shared secret named by the
serve.secret_env configuration key, deduplicated by delivery ID and run
on a bounded worker pool. POST /webhook receives deliveries and
GET /healthz reports uptime and run metrics.`,
	RunE: servePipeline,
}

// serveFlags holds the flags for the serve command
type serveFlags struct {
	pipeline string
	addr     string
}

var serveOpts serveFlags

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveOpts.pipeline, "pipeline", "p", "", "Path to the pipeline file")
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "Listen address, e.g. :8972")
}

func servePipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveOpts.addr != "" {
		cfg.Serve.Addr = serveOpts.addr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	p, path, err := resolvePipeline(cfg, serveOpts.pipeline)
	if err != nil {
		return err
	}
	workDir := filepath.Dir(path)

	metrics := observability.NewMetricsCollector(observability.MetricConfig{Enabled: true})
	r, err := buildRunner(cfg, logger, metrics, workDir, false)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, ev *webhook.Event) error {
		info := &gitctx.Info{
			Provider: gitctx.Detect(),
			Branch:   ev.Branch,
			Commit:   ev.Commit,
		}
		res, err := r.Run(ctx, p, info)
		if err != nil {
			logger.Error("webhook run failed",
				observability.String("delivery", ev.Delivery),
				observability.Err(err))
			return err
		}
		logger.Info("webhook run finished",
			observability.String("delivery", ev.Delivery),
			observability.String("status", string(res.Status)),
			observability.Duration("duration", res.Duration))
		return nil
	}

	opts := []webhook.ServerOption{
		webhook.WithLogger(logger),
		webhook.WithMetrics(metrics),
		webhook.WithWorkers(cfg.Workers),
	}
	if secret := cfg.Serve.Secret(); len(secret) > 0 {
		opts = append(opts, webhook.WithSecret(secret))
	} else {
		logger.Warn("webhook signature verification disabled",
			observability.String("secret_env", cfg.Serve.SecretEnv))
	}

	srv, err := webhook.NewServer(cfg.Serve.Addr, p.On, run, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("serving pipeline",
		observability.String("pipeline", p.Name),
		observability.String("path", path),
		observability.String("addr", cfg.Serve.Addr))

	select {
	case err := <-errCh:
		if err != nil {
			return errors.WebhookError("serve webhooks", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WebhookError("shut down webhook server", err)
	}
	return nil
}
