package storage

import (
	"context"
	"fmt"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

var _ ports.SnapshotWriter = Fanout(nil)

// Fanout writes a snapshot to each writer in order and stops at the first failure.
type Fanout []ports.SnapshotWriter

// Write implements ports.SnapshotWriter.
func (f Fanout) Write(ctx context.Context, dateKey string, snapshot *domain.Snapshot) error {
	for i, w := range f {
		if err := w.Write(ctx, dateKey, snapshot); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}

	return nil
}
