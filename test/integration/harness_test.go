//go:build integration

package integration

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/clients"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/clients/quotesite"
	"github.com/jsamuelsen/quote-harvester/internal/app"
	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

// quietLogger keeps scenario output readable.
var quietLogger = slog.New(slog.DiscardHandler)

// testClientConfig returns a fast-failing client config for a fake site.
func testClientConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "fake-quote-site",
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		UserAgent:   "quote-harvester/integration",
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   20,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Logger: quietLogger,
	}
}

// newPageClient builds a page client against baseURL.
func newPageClient(cfg *clients.Config, pageSize int) (*quotesite.PageClient, error) {
	client, err := clients.New(cfg)
	if err != nil {
		return nil, err
	}

	return quotesite.NewPageClient(quotesite.PageClientConfig{
		Client:   client,
		PageSize: pageSize,
		Logger:   quietLogger,
	}), nil
}

// pipeline describes one harvest run wired the way the harvester command wires it.
type pipeline struct {
	Fetcher     ports.PageFetcher
	Writer      ports.SnapshotWriter
	Recorder    ports.HarvestRecorder
	Categories  []string
	Date        string
	Policy      app.SamplingPolicy
	Seed        uint64
	Target      int
	PageSize    int
	MaxRecords  int
	Concurrency int
}

// run harvests every category and returns what the run service produced.
func (p pipeline) run(ctx context.Context) (*domain.Snapshot, *domain.RunReport, error) {
	policy := p.Policy
	if policy == "" {
		policy = app.PolicySequential
	}

	var samplerRand, shuffleRand *rand.Rand
	if p.Seed != 0 {
		samplerRand = rand.New(rand.NewPCG(p.Seed, 1)) //nolint:gosec // test determinism
		shuffleRand = rand.New(rand.NewPCG(p.Seed, 2)) //nolint:gosec // test determinism
	}

	sampler, err := app.NewPageSampler(policy, 20, samplerRand)
	if err != nil {
		return nil, nil, err
	}

	harvester, err := app.NewHarvester(app.HarvesterConfig{
		Fetcher:            p.Fetcher,
		Sampler:            sampler,
		Recorder:           p.Recorder,
		TargetRecords:      p.Target,
		PageSize:           p.PageSize,
		MaxPagesConsidered: 20,
		MaxRecords:         p.MaxRecords,
		Rand:               shuffleRand,
		Logger:             quietLogger,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now
	if p.Date != "" {
		day, err := time.Parse(domain.DateKeyLayout, p.Date)
		if err != nil {
			return nil, nil, err
		}

		now = func() time.Time { return day.Add(12 * time.Hour) }
	}

	service, err := app.NewRunService(app.RunServiceConfig{
		Harvester:   harvester,
		Writer:      p.Writer,
		Recorder:    p.Recorder,
		Categories:  p.Categories,
		Concurrency: p.Concurrency,
		MaxRecords:  p.MaxRecords,
		Policy:      policy,
		Now:         now,
		Logger:      quietLogger,
	})
	if err != nil {
		return nil, nil, err
	}

	return service.Run(logging.WithContext(ctx, quietLogger))
}
