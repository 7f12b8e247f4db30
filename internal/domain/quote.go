package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// attributionMarkers are stripped from the front of an author line.
var attributionMarkers = []string{"—", "–", "―", "-", "•", "·", "~"}

// QuoteRecord is one harvested quote.
// Text and Author are never empty; records are immutable once built.
type QuoteRecord struct {
	// Text is the quote itself.
	Text string `json:"text"`

	// Author is who said or wrote the quote, without any attribution dash.
	Author string `json:"author"`

	// Category is the category the record was harvested under.
	Category string `json:"category"`

	// Tags are the tag labels shown on the quote, in page order.
	Tags []string `json:"tags"`
}

// NewQuoteRecord builds a record from raw extracted strings.
// Returns false when text or author is empty after trimming.
func NewQuoteRecord(text, author, category string, tags []string) (QuoteRecord, bool) {
	text = strings.TrimSpace(text)
	author = StripAttribution(author)

	if text == "" || author == "" {
		return QuoteRecord{}, false
	}

	if tags == nil {
		tags = []string{}
	}

	return QuoteRecord{
		Text:     text,
		Author:   author,
		Category: category,
		Tags:     tags,
	}, true
}

// StripAttribution trims the author and removes one leading attribution marker.
func StripAttribution(author string) string {
	author = strings.TrimSpace(author)
	for _, marker := range attributionMarkers {
		if rest, ok := strings.CutPrefix(author, marker); ok {
			return strings.TrimSpace(rest)
		}
	}

	return author
}

// Fingerprint returns the deduplication identity of the record.
func (q QuoteRecord) Fingerprint() Fingerprint {
	return NewFingerprint(q.Text, q.Author)
}

// CategoryResult is the bounded, duplicate-free list of records for one category.
type CategoryResult []QuoteRecord

// Page is the parsed content of one fetched listing page.
type Page struct {
	// Number is the 1-based page number that was requested.
	Number int

	// TotalPages is the page count reported by the pagination indicator (>= 1).
	TotalPages int

	// Records are the well-formed records on the page, in DOM order.
	Records []QuoteRecord
}

// Snapshot maps category names to their results, keeping insertion order.
// The zero value is ready to use.
type Snapshot struct {
	order   []string
	results map[string]CategoryResult
}

// NewSnapshot creates an empty snapshot with room for n categories.
func NewSnapshot(n int) *Snapshot {
	return &Snapshot{
		order:   make([]string, 0, n),
		results: make(map[string]CategoryResult, n),
	}
}

// Set records the result for a category. A nil result is stored as empty.
// Setting an existing category replaces its result and keeps its position.
func (s *Snapshot) Set(category string, result CategoryResult) {
	if s.results == nil {
		s.results = make(map[string]CategoryResult)
	}

	if result == nil {
		result = CategoryResult{}
	}

	if _, exists := s.results[category]; !exists {
		s.order = append(s.order, category)
	}

	s.results[category] = result
}

// Get returns the result for a category.
func (s *Snapshot) Get(category string) (CategoryResult, bool) {
	result, ok := s.results[category]
	return result, ok
}

// Categories returns the category names in insertion order.
func (s *Snapshot) Categories() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// Len returns the number of categories.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// TotalRecords returns the number of records across all categories.
func (s *Snapshot) TotalRecords() int {
	total := 0
	for _, category := range s.order {
		total += len(s.results[category])
	}

	return total
}

// MarshalJSON encodes the snapshot as an object whose keys follow insertion order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, category := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(category)
		if err != nil {
			return nil, fmt.Errorf("encoding category %q: %w", category, err)
		}

		records, err := json.Marshal(s.results[category])
		if err != nil {
			return nil, fmt.Errorf("encoding records for %q: %w", category, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(records)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of category lists, preserving key order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("snapshot must be a JSON object")
	}

	*s = Snapshot{results: make(map[string]CategoryResult)}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading category key: %w", err)
		}

		category, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var result CategoryResult
		if err := dec.Decode(&result); err != nil {
			return fmt.Errorf("decoding category %q: %w", category, err)
		}

		s.Set(category, result)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading snapshot end: %w", err)
	}

	return nil
}
