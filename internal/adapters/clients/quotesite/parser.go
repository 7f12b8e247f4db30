package quotesite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// Selectors locate quote markup within a listing page.
type Selectors struct {
	Container  string
	Text       string
	Author     string
	Tag        string
	Pagination string
}

// DefaultSelectors returns the selectors for the live site's markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:  ".quote-container",
		Text:       ".quote-text",
		Author:     ".author",
		Tag:        ".tag",
		Pagination: ".pagination-info",
	}
}

// withDefaults fills any empty selector from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()

	if s.Container == "" {
		s.Container = d.Container
	}

	if s.Text == "" {
		s.Text = d.Text
	}

	if s.Author == "" {
		s.Author = d.Author
	}

	if s.Tag == "" {
		s.Tag = d.Tag
	}

	if s.Pagination == "" {
		s.Pagination = d.Pagination
	}

	return s
}

// ParseQuotes extracts records from doc using the default selectors.
func ParseQuotes(doc *goquery.Document, category string) []domain.QuoteRecord {
	return DefaultSelectors().ParseQuotes(doc, category)
}

// ParseQuotes extracts every well-formed quote in document order.
// Containers missing text or author are skipped.
func (s Selectors) ParseQuotes(doc *goquery.Document, category string) []domain.QuoteRecord {
	s = s.withDefaults()
	records := []domain.QuoteRecord{}

	doc.Find(s.Container).Each(func(_ int, container *goquery.Selection) {
		text := container.Find(s.Text).First().Text()
		author := container.Find(s.Author).First().Text()

		var tags []string

		container.Find(s.Tag).Each(func(_ int, tag *goquery.Selection) {
			if label := strings.TrimSpace(tag.Text()); label != "" {
				tags = append(tags, label)
			}
		})

		if record, ok := domain.NewQuoteRecord(text, author, category, tags); ok {
			records = append(records, record)
		}
	})

	return records
}
