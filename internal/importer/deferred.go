package importer

import (
	"context"
	"errors"
	"fmt"

	"limscore/pkg/domain"
)

// DeferredLink is one relation binding postponed until every sheet has
// finished its eager pass. Links are immutable once enqueued.
type DeferredLink struct {
	SourceUID string
	Relation  string
	Target    Criteria
	Multi     bool
}

// DeferredQueue is the run-scoped worklist of postponed bindings. Links
// drain in enqueue order, so multi-valued relations keep the order their
// rows appeared in.
type DeferredQueue struct {
	links   []DeferredLink
	drained bool
}

// NewDeferredQueue returns an empty queue.
func NewDeferredQueue() *DeferredQueue { return &DeferredQueue{} }

// Defer queues a single-valued relation binding. Enqueueing never fails.
func (q *DeferredQueue) Defer(sourceUID, relation string, target Criteria) {
	q.links = append(q.links, DeferredLink{SourceUID: sourceUID, Relation: relation, Target: target})
}

// DeferMulti queues a multi-valued relation binding; when drained it
// appends to the relation instead of replacing it.
func (q *DeferredQueue) DeferMulti(sourceUID, relation string, target Criteria) {
	q.links = append(q.links, DeferredLink{SourceUID: sourceUID, Relation: relation, Target: target, Multi: true})
}

// Len reports the number of links waiting to drain.
func (q *DeferredQueue) Len() int { return len(q.links) }

// Drain resolves every queued link exactly once. Resolved targets are
// bound on their source entity; unresolved ones are logged as warnings and
// counted, never raised. Storage failures abort the drain. Calling Drain a
// second time in the same run violates the engine contract and returns an
// error, since re-draining would double-append multi-valued relations.
func (q *DeferredQueue) Drain(ctx context.Context, resolver *Resolver, repo domain.Repository, log Logger, metrics Metrics) (int, error) {
	if q.drained {
		return 0, errors.New("deferred queue already drained")
	}
	q.drained = true
	if log == nil {
		log = NopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}

	unresolved := 0
	for _, link := range q.links {
		target, err := resolver.Resolve(ctx, link.Target)
		if err != nil {
			var nf domain.ErrNotFound
			if !errors.As(err, &nf) {
				return unresolved, fmt.Errorf("resolve %s %q: %w", link.Target.Kind, link.Target.KeyValue, err)
			}
			log.Warnw("unresolved reference",
				"source", link.SourceUID,
				"relation", link.Relation,
				"kind", link.Target.Kind,
				"key", link.Target.KeyValue)
			metrics.ReferenceUnresolved()
			unresolved++
			continue
		}
		_, err = repo.Update(ctx, link.SourceUID, func(e *domain.Entity) error {
			if link.Multi {
				e.AppendRef(link.Relation, target.UID)
			} else {
				e.SetField(link.Relation, domain.RefValue(target.UID))
			}
			return nil
		})
		if err != nil {
			var nf domain.ErrNotFound
			if errors.As(err, &nf) {
				log.Warnw("deferred source no longer exists",
					"source", link.SourceUID,
					"relation", link.Relation)
				metrics.ReferenceUnresolved()
				unresolved++
				continue
			}
			return unresolved, fmt.Errorf("bind %s on %s: %w", link.Relation, link.SourceUID, err)
		}
	}
	q.links = nil
	return unresolved, nil
}
