// Package quotesitetest serves fake quote listing pages for tests.
package quotesitetest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// ListingPrefix is the path the fake site serves categories under.
// It matches the default page client path template.
const ListingPrefix = "/api/tags/"

// Site renders category listings in the live site's markup.
// Pages are 1-based; a page past the end renders with no quotes.
type Site struct {
	mu       sync.Mutex
	pageSize int
	quotes   map[string][]domain.QuoteRecord
	failures map[string]int
	hits     map[string]int
}

// New creates an empty site paging quotes pageSize at a time.
func New(pageSize int) *Site {
	return &Site{
		pageSize: max(pageSize, 1),
		quotes:   make(map[string][]domain.QuoteRecord),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}
}

// Start serves the site until the returned server is closed.
func (s *Site) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// AddCategory publishes quotes under category, replacing any earlier listing.
func (s *Site) AddCategory(category string, quotes []domain.QuoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[category] = quotes
}

// Fail makes one page answer with status instead of its listing.
func (s *Site) Fail(category string, page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[pageKey(category, page)] = status
}

// Hits returns how many requests a category received.
func (s *Site) Hits(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[category]
}

// TotalPages returns the page count the site reports for category.
func (s *Site) TotalPages(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.totalPages(category)
}

func (s *Site) totalPages(category string) int {
	return max((len(s.quotes[category])+s.pageSize-1)/s.pageSize, 1)
}

// ServeHTTP implements http.Handler.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	category, ok := strings.CutPrefix(r.URL.Path, ListingPrefix)
	if !ok || category == "" {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.hits[category]++
	status, failing := s.failures[pageKey(category, page)]
	quotes, known := s.quotes[category]
	total := s.totalPages(category)
	s.mu.Unlock()

	switch {
	case failing:
		w.WriteHeader(status)
		return
	case !known:
		http.NotFound(w, r)
		return
	}

	lo := min((page-1)*s.pageSize, len(quotes))
	hi := min(lo+s.pageSize, len(quotes))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(RenderPage(quotes[lo:hi], page, total)))
}

// RenderPage renders one listing page.
func RenderPage(quotes []domain.QuoteRecord, page, total int) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html><body><main class=\"quotes\">\n")

	for _, q := range quotes {
		b.WriteString(`<div class="quote-container">`)
		fmt.Fprintf(&b, `<p class="quote-text">%s</p>`, html.EscapeString(q.Text))
		fmt.Fprintf(&b, `<span class="author">— %s</span>`, html.EscapeString(q.Author))

		if len(q.Tags) > 0 {
			b.WriteString(`<div class="tags">`)

			for _, tag := range q.Tags {
				fmt.Fprintf(&b, `<a class="tag">%s</a>`, html.EscapeString(tag))
			}

			b.WriteString(`</div>`)
		}

		b.WriteString("</div>\n")
	}

	fmt.Fprintf(&b, "</main><nav><span class=\"pagination-info\">Page %d of %d</span></nav></body></html>\n", page, total)

	return b.String()
}

// Quotes generates n distinct records for category.
func Quotes(category string, n int) []domain.QuoteRecord {
	out := make([]domain.QuoteRecord, 0, n)

	for i := range n {
		out = append(out, domain.QuoteRecord{
			Text:     fmt.Sprintf("%s quote number %d.", category, i+1),
			Author:   fmt.Sprintf("Author %d", i%7+1),
			Category: category,
			Tags:     []string{category},
		})
	}

	return out
}

func pageKey(category string, page int) string {
	return category + "#" + strconv.Itoa(page)
}
