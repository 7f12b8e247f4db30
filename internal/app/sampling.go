package app

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

// SamplingPolicy selects which listing pages beyond the first are fetched.
type SamplingPolicy string

const (
	// PolicySequential walks pages in order until the target is met.
	PolicySequential SamplingPolicy = "sequential"

	// PolicyRandomized draws a random subset of pages sized to the target.
	PolicyRandomized SamplingPolicy = "randomized"
)

// PageSampler chooses the pages to fetch for a category.
// Implementations never block and never fail.
type PageSampler interface {
	Policy() SamplingPolicy

	// SelectPages returns distinct page numbers in ascending order, none of
	// which appear in fetched. targetRecords is the number of records still
	// wanted; zero or less means no limit.
	SelectPages(totalPages, targetRecords, pageSize int, fetched map[int]bool) []int
}

// NewPageSampler builds the sampler for policy. maxPages caps the page range
// considered. rng is only used by the randomized policy; nil seeds from the runtime.
func NewPageSampler(policy SamplingPolicy, maxPages int, rng *rand.Rand) (PageSampler, error) {
	switch policy {
	case PolicySequential:
		return &SequentialSampler{MaxPages: maxPages}, nil
	case PolicyRandomized:
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // sampling, not security
		}

		return &RandomSampler{MaxPages: maxPages, Rand: rng}, nil
	default:
		return nil, fmt.Errorf("unknown sampling policy %q", policy)
	}
}

// SequentialSampler returns every remaining page up to the cap in order.
// The harvester stops early once it has enough records.
type SequentialSampler struct {
	MaxPages int
}

// Policy implements PageSampler.
func (s *SequentialSampler) Policy() SamplingPolicy { return PolicySequential }

// SelectPages implements PageSampler.
func (s *SequentialSampler) SelectPages(totalPages, _, _ int, fetched map[int]bool) []int {
	return remaining(available(totalPages, s.MaxPages), fetched)
}

// RandomSampler picks just enough random pages to cover the target.
// It is safe for concurrent use.
type RandomSampler struct {
	MaxPages int
	Rand     *rand.Rand

	mu sync.Mutex
}

// Policy implements PageSampler.
func (s *RandomSampler) Policy() SamplingPolicy { return PolicyRandomized }

// SelectPages implements PageSampler.
func (s *RandomSampler) SelectPages(totalPages, targetRecords, pageSize int, fetched map[int]bool) []int {
	if targetRecords <= 0 || pageSize <= 0 {
		return nil
	}

	needed := (targetRecords + pageSize - 1) / pageSize
	candidates := remaining(available(totalPages, s.MaxPages), fetched)

	if needed >= len(candidates) {
		return candidates
	}

	s.mu.Lock()

	// Partial Fisher-Yates: the first `needed` slots end up a uniform sample.
	for i := range needed {
		j := i + s.Rand.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	s.mu.Unlock()

	picked := candidates[:needed]
	slices.Sort(picked)

	return picked
}

// available is the number of pages eligible for sampling.
func available(totalPages, maxPages int) int {
	if maxPages > 0 && totalPages > maxPages {
		return maxPages
	}

	return totalPages
}

// remaining lists 1..n in order, skipping fetched pages.
func remaining(n int, fetched map[int]bool) []int {
	pages := make([]int, 0, max(n-len(fetched), 0))

	for p := 1; p <= n; p++ {
		if !fetched[p] {
			pages = append(pages, p)
		}
	}

	return pages
}
