package quotesite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/clients"
	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
)

const (
	// DefaultPathTemplate is the listing path on the live site.
	DefaultPathTemplate = "/api/tags/{category}"

	categoryPlaceholder = "{category}"

	// maxPageBytes bounds how much of a response body is parsed.
	maxPageBytes = 4 << 20
)

// PageClientConfig contains configuration for the page client.
type PageClientConfig struct {
	// Client is the HTTP client whose BaseURL points at the quote site.
	Client *clients.Client

	// PathTemplate is the listing path; {category} is replaced per request.
	PathTemplate string

	// PageSize is sent as the page_size query parameter. Zero omits it.
	PageSize int

	Selectors Selectors

	Logger *slog.Logger
}

// PageClient fetches and parses category listing pages.
// It implements ports.PageFetcher and ports.HealthChecker.
type PageClient struct {
	client       *clients.Client
	pathTemplate string
	pageSize     int
	selectors    Selectors
	logger       *slog.Logger
}

// NewPageClient creates a page client.
// Panics if Client is nil.
func NewPageClient(cfg PageClientConfig) *PageClient {
	if cfg.Client == nil {
		panic("quotesite.PageClient: Client is required")
	}

	tmpl := cfg.PathTemplate
	if tmpl == "" {
		tmpl = DefaultPathTemplate
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PageClient{
		client:       cfg.Client,
		pathTemplate: tmpl,
		pageSize:     cfg.PageSize,
		selectors:    cfg.Selectors.withDefaults(),
		logger:       logger.With(slog.String("component", "quotesite.PageClient")),
	}
}

// FetchPage downloads one listing page and parses it.
// Transport failures and non-2xx responses return a *domain.NetworkError.
// A missing page indicator is not an error: the page reports a total of 1.
func (p *PageClient) FetchPage(ctx context.Context, category string, page int) (*domain.Page, error) {
	path := p.pagePath(category, page)
	logger := logging.FromContext(ctx)

	logger.Log(ctx, logging.LevelTrace, "fetching page",
		slog.String("category", category),
		slog.Int("page", page),
		slog.String("path", path),
	)

	start := time.Now()

	resp, err := p.client.Get(ctx, path)
	if err != nil {
		return nil, domain.NewNetworkError(category, page, p.client.URL(path), clients.StatusCode(err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.NewNetworkError(category, page, p.client.URL(path), resp.StatusCode, nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, domain.NewNetworkError(category, page, p.client.URL(path), resp.StatusCode,
			fmt.Errorf("reading body: %w", err))
	}

	records := p.selectors.ParseQuotes(doc, category)

	total, err := p.selectors.TotalPages(doc)
	if err != nil {
		logger.DebugContext(ctx, "page count unavailable, assuming one page",
			slog.String("category", category),
			slog.Int("page", page),
			slog.Any("error", err),
		)
	}

	logger.Log(ctx, logging.LevelTrace, "page parsed",
		slog.String("category", category),
		slog.Int("page", page),
		slog.Int("records", len(records)),
		slog.Int("total_pages", total),
		slog.Duration("duration", time.Since(start)),
	)

	return &domain.Page{
		Number:     page,
		TotalPages: total,
		Records:    records,
	}, nil
}

// pagePath expands the template and appends the paging query.
func (p *PageClient) pagePath(category string, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	if p.pageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.pageSize))
	}

	return strings.ReplaceAll(p.pathTemplate, categoryPlaceholder, url.PathEscape(category)) + "?" + q.Encode()
}

// Name implements ports.HealthChecker.
func (p *PageClient) Name() string {
	return p.client.ServiceName()
}

// Check reports the source unavailable while the circuit breaker is open.
// It never contacts the site.
func (p *PageClient) Check(_ context.Context) error {
	stats := p.client.CircuitStats()
	if stats.State != clients.StateOpen {
		return nil
	}

	return domain.NewUnavailableError(p.Name(),
		fmt.Sprintf("circuit open after repeated failures, next probe in %s", stats.Cooldown.Round(time.Second)))
}
