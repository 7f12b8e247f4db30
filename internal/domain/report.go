package domain

import "time"

// CategoryStatus summarizes how a category harvest ended.
type CategoryStatus string

const (
	// CategoryComplete means every planned page was fetched, or the target was reached.
	CategoryComplete CategoryStatus = "complete"

	// CategoryPartial means a fetch failed after some records were accumulated.
	CategoryPartial CategoryStatus = "partial"

	// CategoryEmpty means the category produced no records. This is a
	// legitimate end state, not an error.
	CategoryEmpty CategoryStatus = "empty"
)

// CategoryReport describes the outcome of harvesting one category.
type CategoryReport struct {
	Category     string
	Status       CategoryStatus
	Records      int
	PagesPlanned int
	PagesFetched int
	PagesFailed  int
	Duplicates   int
	Trimmed      int
	Duration     time.Duration

	// Err is the failure that ended the harvest early, if any.
	Err error
}

// Degraded reports whether the category ended on a failure.
func (r CategoryReport) Degraded() bool {
	return r.Err != nil
}

// RunReport describes a complete harvest run.
type RunReport struct {
	RunID      string
	DateKey    string
	Policy     string
	Started    time.Time
	Duration   time.Duration
	Categories []CategoryReport
}

// TotalRecords returns the number of records harvested across categories.
func (r *RunReport) TotalRecords() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Records
	}

	return total
}

// DegradedCategories returns the names of categories that hit a failure.
func (r *RunReport) DegradedCategories() []string {
	var names []string

	for _, c := range r.Categories {
		if c.Degraded() {
			names = append(names, c.Category)
		}
	}

	return names
}
