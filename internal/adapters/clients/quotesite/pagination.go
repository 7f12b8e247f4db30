package quotesite

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// pageIndicator matches "Page X of Y" in any case and spacing.
var pageIndicator = regexp.MustCompile(`(?i)page\s+\d+\s+of\s+(\d+)`)

// TotalPages reads the page count using the default selectors.
func TotalPages(doc *goquery.Document) (int, error) {
	return DefaultSelectors().TotalPages(doc)
}

// TotalPages reads the "Page X of Y" indicator and returns Y.
// The pagination element is searched first, then the whole document.
// When no usable count is found it returns 1 with a *domain.MalformedPageError;
// callers may treat that as a single-page category.
func (s Selectors) TotalPages(doc *goquery.Document) (int, error) {
	s = s.withDefaults()

	for _, text := range []string{doc.Find(s.Pagination).Text(), doc.Text()} {
		m := pageIndicator.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 1, domain.NewMalformedPageError("invalid page count " + strconv.Quote(strings.TrimSpace(m[0])))
		}

		return n, nil
	}

	return 1, domain.NewMalformedPageError("pagination indicator not found")
}
