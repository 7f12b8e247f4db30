package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/clients"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/clients/quotesite"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/storage"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
	"github.com/jsamuelsen/quote-harvester/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

type rootOptions struct {
	profile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "harvester",
		Short:         "harvester collects categorized quotes into dated JSON snapshots.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "",
		"config profile loaded from configs/{profile}.yaml (default $APP_ENVIRONMENT or local)")

	cmd.AddCommand(newRunCmd(opts), newServeCmd(opts))

	return cmd
}

// environment holds the process-wide dependencies shared by every command.
type environment struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
}

// bootstrap loads and validates configuration, then sets up logging and
// telemetry. override runs between loading and validation so flags take
// precedence over files and environment variables.
func bootstrap(ctx context.Context, opts *rootOptions, override func(*config.Config)) (*environment, error) {
	profile := opts.profile
	if profile == "" {
		profile = os.Getenv("APP_ENVIRONMENT")
	}

	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting harvester",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("profile", profile),
	)

	provider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, telemetry: provider}, nil
}

// close flushes telemetry. It is safe to defer right after bootstrap.
func (e *environment) close(ctx context.Context) {
	if err := e.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
		e.logger.Error("telemetry shutdown error", slog.Any("error", err))
	}
}

// newPageClient builds the instrumented HTTP client and the listing page
// client on top of it.
func (e *environment) newPageClient() (*quotesite.PageClient, error) {
	src := e.cfg.Source
	rateLimit, rateBurst := e.cfg.SourceBudget()

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     src.BaseURL,
		ServiceName: src.Name,
		Timeout:     e.cfg.Client.Timeout,
		Retry:       e.cfg.Client.Retry,
		Circuit:     e.cfg.Client.CircuitBreaker,
		Transport:   e.cfg.Client.Transport,
		UserAgent:   src.UserAgent,
		RateLimit:   rateLimit,
		RateBurst:   rateBurst,
		Logger:      e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return quotesite.NewPageClient(quotesite.PageClientConfig{
		Client:       httpClient,
		PathTemplate: src.PathTemplate,
		PageSize:     e.cfg.Harvest.PageSize,
		Selectors: quotesite.Selectors{
			Container:  src.Selectors.Container,
			Text:       src.Selectors.Text,
			Author:     src.Selectors.Author,
			Tag:        src.Selectors.Tag,
			Pagination: src.Selectors.Pagination,
		},
		Logger: e.logger,
	}), nil
}

// snapshotStores holds the configured snapshot backends.
type snapshotStores struct {
	files   *storage.FileStore
	archive *storage.SQLiteStore
}

func (e *environment) openStores(ctx context.Context) (*snapshotStores, error) {
	files, err := storage.NewFileStore(e.cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("creating file store: %w", err)
	}

	stores := &snapshotStores{files: files}

	if e.cfg.Output.SQLite.Enabled {
		stores.archive, err = storage.OpenSQLiteStore(ctx, e.cfg.Output.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot archive: %w", err)
		}
	}

	return stores, nil
}

// writer fans each snapshot out to the JSON files first, then the archive.
func (s *snapshotStores) writer() ports.SnapshotWriter {
	if s.archive == nil {
		return s.files
	}

	return storage.Fanout{s.files, s.archive}
}

// reader prefers the archive when one is configured.
func (s *snapshotStores) reader() ports.SnapshotReader {
	if s.archive != nil {
		return s.archive
	}

	return s.files
}

// checkers returns a health checker per backend.
func (s *snapshotStores) checkers() []ports.HealthChecker {
	out := []ports.HealthChecker{s.files}
	if s.archive != nil {
		out = append(out, s.archive)
	}

	return out
}

func (s *snapshotStores) close() error {
	if s.archive == nil {
		return nil
	}

	return s.archive.Close()
}
