// Package app contains the harvesting use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

// CategoryHarvester harvests one category. *Harvester implements it.
type CategoryHarvester interface {
	Harvest(ctx context.Context, category string) (domain.CategoryResult, domain.CategoryReport)
}

// RunServiceConfig contains the dependencies for a RunService.
type RunServiceConfig struct {
	Harvester CategoryHarvester

	// Writer persists the snapshot. Nil skips persistence (dry run).
	Writer ports.SnapshotWriter

	// Recorder receives the run outcome. Optional.
	Recorder ports.HarvestRecorder

	// Categories are harvested and stored in this order.
	Categories []string

	// Concurrency is the number of categories harvested at once. Below 2 is sequential.
	Concurrency int

	// MaxRecords is the per-category cap the snapshot is verified against. Zero skips the check.
	MaxRecords int

	// Policy is reported in the run report.
	Policy SamplingPolicy

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewRunID returns the identifier for a run. Defaults to a random UUID.
	NewRunID func() string

	Logger *slog.Logger
}

// RunService harvests every configured category into one dated snapshot.
type RunService struct {
	harvester   CategoryHarvester
	writer      ports.SnapshotWriter
	recorder    ports.HarvestRecorder
	categories  []string
	concurrency int
	maxRecords  int
	policy      SamplingPolicy
	now         func() time.Time
	newRunID    func() string
	executor    *Executor
	logger      *slog.Logger
}

// NewRunService creates a run service. Harvester is required.
func NewRunService(cfg RunServiceConfig) (*RunService, error) {
	if cfg.Harvester == nil {
		return nil, errors.New("run service: harvester is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newRunID := cfg.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	return &RunService{
		harvester:   cfg.Harvester,
		writer:      cfg.Writer,
		recorder:    recorder,
		categories:  slices.Clone(cfg.Categories),
		concurrency: cfg.Concurrency,
		maxRecords:  cfg.MaxRecords,
		policy:      cfg.Policy,
		now:         now,
		newRunID:    newRunID,
		executor:    NewExecutor(logger),
		logger:      logger,
	}, nil
}

// runInput identifies one run.
type runInput struct {
	runID      string
	dateKey    string
	started    time.Time
	categories []string
}

// runOutcome is the harvested state handed between steps.
type runOutcome struct {
	snapshot *domain.Snapshot
	reports  []domain.CategoryReport
}

type runResult struct {
	snapshot *domain.Snapshot
	report   *domain.RunReport
}

// Run harvests all categories and persists the snapshot under today's UTC date.
//
// Category failures never fail the run: they show up as partial or empty
// categories in the report. The error is non-nil only when the configuration
// is invalid or the snapshot could not be verified or written.
func (s *RunService) Run(ctx context.Context) (*domain.Snapshot, *domain.RunReport, error) {
	started := s.now().UTC()
	in := runInput{
		runID:      s.newRunID(),
		dateKey:    domain.DateKey(started),
		started:    started,
		categories: s.categories,
	}

	ctx = logging.WithRunID(ctx, in.runID)
	logging.FromContext(ctx).InfoContext(ctx, "harvest run started",
		slog.String("date", in.dateKey),
		slog.Int("categories", len(in.categories)),
		slog.String("policy", string(s.policy)),
		slog.Int("concurrency", max(s.concurrency, 1)),
	)

	op := Operation[runInput, runOutcome, runOutcome, runResult]{
		Name:     "harvest_run",
		Validate: s.validate,
		Perform:  s.perform,
		Verify:   s.verify,
		Archive:  s.archive,
		Respond:  s.respond,
	}

	res, err := Execute(ctx, s.executor, op, in)
	if err != nil {
		return nil, nil, err
	}

	return res.snapshot, res.report, nil
}

func (s *RunService) validate(_ context.Context, in runInput) error {
	return ValidateCategories(in.categories)
}

// ValidateCategories checks that categories is non-empty with no blank or repeated names.
func ValidateCategories(categories []string) error {
	if len(categories) == 0 {
		return domain.NewValidationError("categories", "at least one category is required")
	}

	seen := make(map[string]struct{}, len(categories))

	for i, c := range categories {
		if strings.TrimSpace(c) == "" {
			return domain.NewValidationErrorWithValue("categories", fmt.Sprintf("entry %d is blank", i), c)
		}

		if _, dup := seen[c]; dup {
			return domain.NewValidationErrorWithValue("categories", "duplicate category", c)
		}

		seen[c] = struct{}{}
	}

	return nil
}

type categoryOutcome struct {
	result domain.CategoryResult
	report domain.CategoryReport
}

func (s *RunService) perform(ctx context.Context, in runInput) (runOutcome, error) {
	outcomes := MapLimit(ctx, s.concurrency, len(in.categories), func(ctx context.Context, i int) categoryOutcome {
		result, report := s.harvester.Harvest(ctx, in.categories[i])
		return categoryOutcome{result: result, report: report}
	})

	out := runOutcome{
		snapshot: domain.NewSnapshot(len(in.categories)),
		reports:  make([]domain.CategoryReport, 0, len(in.categories)),
	}

	for i, o := range outcomes {
		out.snapshot.Set(in.categories[i], o.result)
		out.reports = append(out.reports, o.report)
	}

	return out, nil
}

func (s *RunService) verify(_ context.Context, in runInput, out runOutcome) (runOutcome, error) {
	if got := out.snapshot.Categories(); !slices.Equal(got, in.categories) {
		return runOutcome{}, fmt.Errorf("snapshot categories %v do not match configured %v", got, in.categories)
	}

	if s.maxRecords > 0 {
		for _, c := range in.categories {
			if result, _ := out.snapshot.Get(c); len(result) > s.maxRecords {
				return runOutcome{}, fmt.Errorf("category %q holds %d records, cap is %d", c, len(result), s.maxRecords)
			}
		}
	}

	return out, nil
}

func (s *RunService) archive(ctx context.Context, in runInput, out runOutcome) error {
	if s.writer == nil {
		logging.FromContext(ctx).InfoContext(ctx, "no snapshot writer configured, skipping persistence")
		return nil
	}

	if err := s.writer.Write(ctx, in.dateKey, out.snapshot); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", in.dateKey, err)
	}

	return nil
}

func (s *RunService) respond(ctx context.Context, in runInput, out runOutcome) (runResult, error) {
	report := &domain.RunReport{
		RunID:      in.runID,
		DateKey:    in.dateKey,
		Policy:     string(s.policy),
		Started:    in.started,
		Duration:   s.now().UTC().Sub(in.started),
		Categories: out.reports,
	}

	s.recorder.RunCompleted(report)

	logging.FromContext(ctx).InfoContext(ctx, "harvest run finished",
		slog.String("date", report.DateKey),
		slog.Int("records", report.TotalRecords()),
		slog.Any("degraded", report.DegradedCategories()),
		slog.Duration("duration", report.Duration),
	)

	return runResult{snapshot: out.snapshot, report: report}, nil
}
