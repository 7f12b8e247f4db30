// Package ports defines the contracts between the harvesting core and the
// outside world. The application layer depends only on these interfaces;
// adapters provide the implementations.
//
// Conventions:
//   - Context is always the first parameter
//   - Return domain types, never transport or storage types
//   - Errors are domain errors (ErrNetwork, ErrNotFound, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
)

// PageFetcher retrieves and parses one listing page of a category.
//
// Implementations return a *domain.NetworkError when the page could not be
// retrieved. A page without a readable pagination indicator is not an error:
// TotalPages is reported as 1.
type PageFetcher interface {
	FetchPage(ctx context.Context, category string, page int) (*domain.Page, error)
}

// SnapshotWriter persists the snapshot of one run under its date key (YYYY-MM-DD).
// Writing a date that already exists replaces it.
type SnapshotWriter interface {
	Write(ctx context.Context, dateKey string, snapshot *domain.Snapshot) error
}

// SnapshotReader reads previously persisted snapshots.
type SnapshotReader interface {
	// Read returns the snapshot for a date.
	// Returns domain.ErrNotFound if no snapshot exists for the date.
	Read(ctx context.Context, dateKey string) (*domain.Snapshot, error)

	// List returns the stored date keys, newest first.
	List(ctx context.Context) ([]string, error)
}

// SnapshotStore reads and writes snapshots.
type SnapshotStore interface {
	SnapshotWriter
	SnapshotReader
}

// HarvestRecorder receives harvest outcomes for metrics.
// Implementations must be safe for concurrent use.
type HarvestRecorder interface {
	// PageFetched records one page fetch attempt.
	PageFetched(category string, err error)

	// CategoryHarvested records the outcome of one category.
	CategoryHarvested(report *domain.CategoryReport)

	// RunCompleted records the outcome of a whole run.
	RunCompleted(report *domain.RunReport)
}
