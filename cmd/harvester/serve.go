package main

import (
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-harvester/internal/platform/metrics"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves stored snapshots over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, root)
		},
	}
}

func serve(cmd *cobra.Command, root *rootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap(ctx, root, nil)
	if err != nil {
		return err
	}
	defer env.close(ctx)

	cfg := env.cfg

	stores, err := env.openStores(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := stores.close(); err != nil {
			env.logger.Error("closing snapshot archive", slog.Any("error", err))
		}
	}()

	pages, err := env.newPageClient()
	if err != nil {
		return err
	}

	registry := ports.NewHealthRegistry()
	for _, checker := range append(stores.checkers(), pages) {
		if err := registry.Register(checker); err != nil {
			return fmt.Errorf("registering health check: %w", err)
		}
	}

	var metricsHandler nethttp.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.New(cfg.Metrics.Namespace, true).Handler()
	}

	server := http.New(&cfg.Server, env.logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:     cfg.App.Name,
		HealthHandler:   handlers.NewHealthHandler(registry, handlers.NewBuildInfo(Version, Commit, BuildTime), metricsHandler),
		SnapshotHandler: handlers.NewSnapshotHandler(stores.reader()),
		Server:          &cfg.Server,
	})

	return server.Run(ctx)
}
