package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
	"github.com/jsamuelsen/quote-harvester/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

// errEmptyPage is reported when a fetcher returns neither a page nor an error.
var errEmptyPage = errors.New("fetcher returned no page")

// HarvesterConfig contains the dependencies and limits for a Harvester.
type HarvesterConfig struct {
	Fetcher ports.PageFetcher
	Sampler PageSampler

	// Pacer runs after every fetch. Nil disables pacing.
	Pacer Pacer

	// Recorder receives page and category outcomes. Optional.
	Recorder ports.HarvestRecorder

	// TargetRecords stops fetching once this many records are collected.
	// Zero fetches every page up to MaxPagesConsidered.
	TargetRecords int

	// PageSize is the number of quotes per listing page, used to size samples.
	PageSize int

	// MaxPagesConsidered caps the page count reported by the source.
	MaxPagesConsidered int

	// MaxRecords caps the deduplicated result. Zero means uncapped.
	MaxRecords int

	// Rand shuffles capped results under the randomized policy. Nil seeds from the runtime.
	Rand *rand.Rand

	Logger *slog.Logger
}

// Harvester collects the records of one category at a time.
// Harvest is safe to call concurrently for different categories.
type Harvester struct {
	fetcher    ports.PageFetcher
	sampler    PageSampler
	pacer      Pacer
	recorder   ports.HarvestRecorder
	target     int
	pageSize   int
	maxPages   int
	maxRecords int
	logger     *slog.Logger
	tracer     trace.Tracer

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewHarvester creates a harvester. Fetcher and Sampler are required.
func NewHarvester(cfg HarvesterConfig) (*Harvester, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("harvester: fetcher is required")
	}

	if cfg.Sampler == nil {
		return nil, errors.New("harvester: sampler is required")
	}

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = NewDelayPacer(0)
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // shuffling, not security
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Harvester{
		fetcher:    cfg.Fetcher,
		sampler:    cfg.Sampler,
		pacer:      pacer,
		recorder:   recorder,
		target:     max(cfg.TargetRecords, 0),
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPagesConsidered,
		maxRecords: max(cfg.MaxRecords, 0),
		logger:     logger,
		tracer:     telemetry.Tracer(),
		rand:       rng,
	}, nil
}

// categoryRun is the working state of one Harvest call.
type categoryRun struct {
	category string
	records  []domain.QuoteRecord
	fetched  map[int]bool
	report   domain.CategoryReport
}

// Harvest collects, deduplicates and caps the records of one category.
//
// Harvest never fails. A fetch error, a recovered panic or context
// cancellation ends collection early; whatever was gathered so far is kept
// and the cause is recorded in the report.
func (h *Harvester) Harvest(ctx context.Context, category string) (result domain.CategoryResult, report domain.CategoryReport) {
	start := time.Now()

	ctx, span := h.tracer.Start(ctx, "harvest.category",
		trace.WithAttributes(attribute.String("harvest.category", category)),
	)
	defer span.End()

	ctx = logging.WithCategory(ctx, category)
	logger := logging.FromContext(ctx)

	run := &categoryRun{
		category: category,
		fetched:  make(map[int]bool),
		report:   domain.CategoryReport{Category: category},
	}

	defer func() {
		if r := recover(); r != nil {
			run.report.Err = fmt.Errorf("harvest panicked: %v", r)
			logger.ErrorContext(ctx, "recovered from panic during harvest",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}

		result = h.finish(run)
		run.report.Duration = time.Since(start)
		report = run.report

		span.SetAttributes(
			attribute.Int("harvest.records", report.Records),
			attribute.String("harvest.status", string(report.Status)),
		)

		if report.Err != nil {
			span.SetStatus(codes.Error, report.Err.Error())
			logger.WarnContext(ctx, "category harvest degraded",
				slog.String("status", string(report.Status)),
				slog.Int("records", report.Records),
				slog.Int("pages_fetched", report.PagesFetched),
				slog.Any("error", report.Err),
			)
		} else {
			logger.InfoContext(ctx, "category harvested",
				slog.String("status", string(report.Status)),
				slog.Int("records", report.Records),
				slog.Int("pages_fetched", report.PagesFetched),
				slog.Int("duplicates", report.Duplicates),
				slog.Duration("duration", report.Duration),
			)
		}

		h.recorder.CategoryHarvested(&report)
	}()

	run.report.Err = h.collect(ctx, run)

	return result, report
}

// collect fetches page 1, then the sampled pages in ascending order.
func (h *Harvester) collect(ctx context.Context, run *categoryRun) error {
	first, err := h.fetch(ctx, run, 1)
	if err != nil {
		run.report.PagesPlanned = 1
		return err
	}

	total := first.TotalPages
	if h.maxPages > 0 && total > h.maxPages {
		total = h.maxPages
	}

	if h.reached(run) {
		run.report.PagesPlanned = 1
		return nil
	}

	pages := h.plan(total, run)
	run.report.PagesPlanned = 1 + len(pages)

	logging.Trace(ctx, "pages planned",
		slog.Int("total_pages", total),
		slog.Any("pages", pages),
	)

	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := h.fetch(ctx, run, n); err != nil {
			return err
		}

		if h.reached(run) {
			return nil
		}
	}

	return nil
}

// plan chooses the pages after the first. Without a target every page up to
// the cap is fetched in order regardless of policy.
func (h *Harvester) plan(total int, run *categoryRun) []int {
	if h.target == 0 {
		return remaining(total, run.fetched)
	}

	return h.sampler.SelectPages(total, h.target-len(run.records), h.pageSize, run.fetched)
}

func (h *Harvester) reached(run *categoryRun) bool {
	return h.target > 0 && len(run.records) >= h.target
}

// fetch retrieves one page and pauses afterwards, whether or not it succeeded.
func (h *Harvester) fetch(ctx context.Context, run *categoryRun, n int) (page *domain.Page, err error) {
	// The pause follows every fetch, including one that panics.
	defer func() {
		if pauseErr := h.pacer.Pause(ctx); pauseErr != nil && err == nil {
			page, err = nil, pauseErr
		}
	}()

	page, err = h.fetcher.FetchPage(ctx, run.category, n)
	if err == nil && page == nil {
		err = errEmptyPage
	}

	run.fetched[n] = true
	h.recorder.PageFetched(run.category, err)

	if err != nil {
		run.report.PagesFailed++
		return nil, fmt.Errorf("page %d: %w", n, err)
	}

	run.report.PagesFetched++
	run.records = append(run.records, page.Records...)

	return page, nil
}

// finish deduplicates, caps and classifies the collected records.
func (h *Harvester) finish(run *categoryRun) domain.CategoryResult {
	seen := make(map[domain.Fingerprint]struct{}, len(run.records))
	result := make(domain.CategoryResult, 0, len(run.records))

	for _, r := range run.records {
		fp := r.Fingerprint()
		if _, dup := seen[fp]; dup {
			run.report.Duplicates++
			continue
		}

		seen[fp] = struct{}{}
		result = append(result, r)
	}

	if h.maxRecords > 0 && len(result) > h.maxRecords {
		if h.sampler.Policy() == PolicyRandomized {
			h.shuffle(result)
		}

		run.report.Trimmed = len(result) - h.maxRecords
		result = result[:h.maxRecords]
	}

	run.report.Records = len(result)

	switch {
	case len(result) == 0:
		run.report.Status = domain.CategoryEmpty
	case run.report.Err != nil:
		run.report.Status = domain.CategoryPartial
	default:
		run.report.Status = domain.CategoryComplete
	}

	return result
}

func (h *Harvester) shuffle(records domain.CategoryResult) {
	h.randMu.Lock()
	defer h.randMu.Unlock()

	h.rand.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// nopRecorder discards harvest outcomes.
type nopRecorder struct{}

func (nopRecorder) PageFetched(string, error)                {}
func (nopRecorder) CategoryHarvested(*domain.CategoryReport) {}
func (nopRecorder) RunCompleted(*domain.RunReport)           {}
