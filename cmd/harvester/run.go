package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-harvester/internal/app"
	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
	"github.com/jsamuelsen/quote-harvester/internal/platform/metrics"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

type runOptions struct {
	categories []string
	policy     string
	output     string
	date       string
	dryRun     bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvests every configured category once and writes the dated snapshot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.categories, "categories", nil, "comma-separated categories, in snapshot order")
	flags.StringVar(&opts.policy, "policy", "", "page sampling policy: sequential or randomized")
	flags.StringVar(&opts.output, "output", "", "directory receiving the YYYY-MM-DD.json snapshot")
	flags.StringVar(&opts.date, "date", "", "date key to file the snapshot under (YYYY-MM-DD, default today in UTC)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "harvest and print the summary without writing a snapshot")

	return cmd
}

// apply copies the flags that were set onto cfg.
func (o *runOptions) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()

		if flags.Changed("categories") {
			cfg.Harvest.Categories = o.categories
		}

		if flags.Changed("policy") {
			cfg.Harvest.SamplingPolicy = strings.ToLower(o.policy)
		}

		if flags.Changed("output") {
			cfg.Output.Dir = o.output
		}
	}
}

// clock returns the time source for the run. A --date override shifts the
// wall clock so durations stay real while the date key is pinned.
func (o *runOptions) clock() (func() time.Time, error) {
	if o.date == "" {
		return time.Now, nil
	}

	if err := domain.ValidateDateKey(o.date); err != nil {
		return nil, err
	}

	day, _ := time.Parse(domain.DateKeyLayout, o.date)
	shift := day.Sub(time.Now().UTC().Truncate(24 * time.Hour))

	return func() time.Time { return time.Now().Add(shift) }, nil
}

func runHarvest(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now, err := opts.clock()
	if err != nil {
		return err
	}

	env, err := bootstrap(ctx, root, opts.apply(cmd))
	if err != nil {
		return err
	}
	defer env.close(ctx)

	cfg := env.cfg

	pages, err := env.newPageClient()
	if err != nil {
		return err
	}

	var (
		registry *metrics.Registry
		recorder ports.HarvestRecorder
	)

	if cfg.Metrics.Enabled {
		registry = metrics.New(cfg.Metrics.Namespace, false)
		recorder = registry
	}

	samplerRand, shuffleRand := seededRands(cfg.Harvest.Seed)

	policy := app.SamplingPolicy(cfg.Harvest.SamplingPolicy)

	sampler, err := app.NewPageSampler(policy, cfg.Harvest.MaxPagesConsidered, samplerRand)
	if err != nil {
		return err
	}

	harvester, err := app.NewHarvester(app.HarvesterConfig{
		Fetcher:            pages,
		Sampler:            sampler,
		Pacer:              app.NewDelayPacer(cfg.Harvest.InterRequestDelay),
		Recorder:           recorder,
		TargetRecords:      cfg.Harvest.TargetRecordsPerCategory,
		PageSize:           cfg.Harvest.PageSize,
		MaxPagesConsidered: cfg.Harvest.MaxPagesConsidered,
		MaxRecords:         cfg.Harvest.MaxRecordsPerCategory,
		Rand:               shuffleRand,
		Logger:             env.logger,
	})
	if err != nil {
		return err
	}

	var writer ports.SnapshotWriter

	if !opts.dryRun {
		stores, err := env.openStores(ctx)
		if err != nil {
			return err
		}

		defer func() {
			if err := stores.close(); err != nil {
				env.logger.Error("closing snapshot archive", slog.Any("error", err))
			}
		}()

		writer = stores.writer()
	}

	runID := uuid.NewString()

	service, err := app.NewRunService(app.RunServiceConfig{
		Harvester:   harvester,
		Writer:      writer,
		Recorder:    recorder,
		Categories:  cfg.Harvest.Categories,
		Concurrency: cfg.Harvest.Concurrency,
		MaxRecords:  cfg.Harvest.MaxRecordsPerCategory,
		Policy:      policy,
		Now:         now,
		NewRunID:    func() string { return runID },
		Logger:      env.logger,
	})
	if err != nil {
		return err
	}

	ctx = middleware.ContextWithCorrelationID(ctx, runID)

	_, report, err := service.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvest run %s: %w", runID, err)
	}

	renderSummary(cmd.OutOrStdout(), report)

	if registry != nil && cfg.Metrics.TextfilePath != "" {
		if err := registry.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			env.logger.Warn("writing metrics textfile",
				slog.String("path", cfg.Metrics.TextfilePath),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// seededRands returns the sampling and shuffling sources. A zero seed lets
// the harvester seed from the runtime.
func seededRands(seed uint64) (sampler, shuffle *rand.Rand) {
	if seed == 0 {
		return nil, nil
	}

	//nolint:gosec // reproducible sampling, not security
	return rand.New(rand.NewPCG(seed, 1)), rand.New(rand.NewPCG(seed, 2))
}
