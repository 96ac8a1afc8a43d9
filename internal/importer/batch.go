package importer

import (
	"context"
	"fmt"

	"limscore/pkg/domain"
)

// DefaultBatchThreshold bounds how many payloads accumulate before an
// automatic whole-accumulator flush.
const DefaultBatchThreshold = 500

// Accumulator buffers per-entity record payloads so very wide relations
// (thousands of uncertainty ranges, for example) are written as bounded
// batches instead of one giant update. Per-target append order survives
// flushing; the threshold counts payloads across all targets.
type Accumulator struct {
	repo      domain.Repository
	relation  string
	threshold int

	order   []string
	pending map[string][]domain.Record
	since   int
	flushes int
}

// NewAccumulator builds an accumulator extending the named record-list
// relation on its targets. A threshold <= 0 falls back to
// DefaultBatchThreshold.
func NewAccumulator(repo domain.Repository, relation string, threshold int) *Accumulator {
	if threshold <= 0 {
		threshold = DefaultBatchThreshold
	}
	return &Accumulator{
		repo:      repo,
		relation:  relation,
		threshold: threshold,
		pending:   map[string][]domain.Record{},
	}
}

// Add buffers one payload for the target entity. Reaching the threshold
// flushes the entire accumulator, not just the target's bucket.
func (a *Accumulator) Add(ctx context.Context, targetUID string, payload domain.Record) error {
	if _, ok := a.pending[targetUID]; !ok {
		a.order = append(a.order, targetUID)
	}
	a.pending[targetUID] = append(a.pending[targetUID], payload.Clone())
	a.since++
	if a.since >= a.threshold {
		return a.Flush(ctx)
	}
	return nil
}

// Flush writes every buffered payload by reading each target's current
// relation value, extending it, and rewriting it, then clears the buffers.
// A flush with nothing pending is a no-op. The owning pass must call Flush
// once more when it ends to emit any remainder.
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.order) == 0 {
		return nil
	}
	for _, uid := range a.order {
		payloads := a.pending[uid]
		_, err := a.repo.Update(ctx, uid, func(e *domain.Entity) error {
			current, _ := e.Field(a.relation)
			records := append(append([]domain.Record(nil), current.Records...), payloads...)
			e.SetField(a.relation, domain.RecordsValue(records...))
			return nil
		})
		if err != nil {
			return fmt.Errorf("flush %d payloads to %s: %w", len(payloads), uid, err)
		}
	}
	a.order = nil
	a.pending = map[string][]domain.Record{}
	a.since = 0
	a.flushes++
	return nil
}

// FlushCount reports how many non-empty flushes have run, automatic and
// final alike.
func (a *Accumulator) FlushCount() int { return a.flushes }
