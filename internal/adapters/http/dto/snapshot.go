package dto

import "github.com/jsamuelsen/quote-harvester/internal/domain"

// SnapshotPath identifies a stored snapshot.
type SnapshotPath struct {
	Date string `uri:"date" validate:"required,datekey"`
}

// CategoryPath identifies one category of a stored snapshot.
type CategoryPath struct {
	Date     string `uri:"date"     validate:"required,datekey"`
	Category string `uri:"category" validate:"required,notblank,max=64"`
}

// QuoteResponse is one harvested quote.
type QuoteResponse struct {
	Text     string   `json:"text"`
	Author   string   `json:"author"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// CategoryResponse is the result of one category.
type CategoryResponse struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Quotes   []QuoteResponse `json:"quotes"`
}

// SnapshotResponse is a stored snapshot. Categories keep their harvest order.
type SnapshotResponse struct {
	Date       string             `json:"date"`
	Total      int                `json:"total"`
	Categories []CategoryResponse `json:"categories"`
}

// SnapshotSummary is one entry of the snapshot listing.
type SnapshotSummary struct {
	Date string `json:"date"`
}

// NewCategoryResponse converts a category result.
func NewCategoryResponse(category string, result domain.CategoryResult) CategoryResponse {
	quotes := make([]QuoteResponse, 0, len(result))
	for _, q := range result {
		tags := q.Tags
		if tags == nil {
			tags = []string{}
		}

		quotes = append(quotes, QuoteResponse{
			Text:     q.Text,
			Author:   q.Author,
			Category: q.Category,
			Tags:     tags,
		})
	}

	return CategoryResponse{Category: category, Count: len(quotes), Quotes: quotes}
}

// NewSnapshotResponse converts a snapshot stored under date.
func NewSnapshotResponse(date string, s *domain.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Date:       date,
		Total:      s.TotalRecords(),
		Categories: make([]CategoryResponse, 0, s.Len()),
	}

	for _, c := range s.Categories() {
		result, _ := s.Get(c)
		resp.Categories = append(resp.Categories, NewCategoryResponse(c, result))
	}

	return resp
}
