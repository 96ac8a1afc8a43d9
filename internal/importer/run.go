package importer

import (
	"context"
	"errors"
	"fmt"

	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

// DefaultStartRow matches the standard sheet layout: row 1 carries headers,
// rows 2-3 carry instructions, data begins at row 4.
const DefaultStartRow = 3

// checkpointEvery is the row interval at which the normalizer asks the
// repository to persist a recoverable snapshot.
const checkpointEvery = 1000

// Run carries the shared collaborators for one dataset import: the source
// workbook, the destination repository, the attachment source, and the
// run-scoped resolver and deferred queue. One Run serves exactly one
// Engine.Execute call.
type Run struct {
	Repo     domain.Repository
	Assets   domain.AssetSource
	Log      Logger
	Metrics  Metrics
	StartRow int

	book  workbook.Workbook
	res   *Resolver
	queue *DeferredQueue

	widthWarned map[string]bool
}

// NewRun wires a run over the given collaborators. A nil logger or metrics
// sink falls back to the no-op implementation; a nil asset source makes
// every attachment lookup a miss.
func NewRun(book workbook.Workbook, repo domain.Repository, assets domain.AssetSource, log Logger, metrics Metrics) *Run {
	if log == nil {
		log = NopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Run{
		Repo:        repo,
		Assets:      assets,
		Log:         log,
		Metrics:     metrics,
		StartRow:    DefaultStartRow,
		book:        book,
		res:         NewResolver(repo, log),
		queue:       NewDeferredQueue(),
		widthWarned: map[string]bool{},
	}
}

// EachRow streams normalized records from the named worksheet into fn in
// sheet order. Row 1 supplies the headers as-is; rows up to and including
// StartRow are skipped, so the first record comes from row StartRow+1.
// Every 1000th physical row triggers a repository checkpoint. A missing
// worksheet logs and yields nothing; an error from fn stops the sheet and
// propagates.
func (r *Run) EachRow(ctx context.Context, sheet string, fn func(Record) error) error {
	ws, ok := r.book.Sheet(sheet)
	if !ok {
		r.Log.Infow("No records found", "sheet", sheet)
		return nil
	}
	cursor, err := ws.Rows()
	if err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	defer cursor.Close()

	var headers []string
	rowNr := 0
	for cursor.Next() {
		rowNr++
		cols, err := cursor.Columns()
		if err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, rowNr, err)
		}
		if rowNr == 1 {
			headers = make([]string, len(cols))
			for i, c := range cols {
				headers[i] = c.String()
			}
			continue
		}
		if rowNr%checkpointEvery == 0 {
			if err := r.Repo.Checkpoint(ctx); err != nil {
				return fmt.Errorf("checkpoint at row %d of %q: %w", rowNr, sheet, err)
			}
		}
		if rowNr <= r.StartRow {
			continue
		}
		if len(cols) > len(headers) && !r.widthWarned[sheet] {
			r.widthWarned[sheet] = true
			r.Log.Warnw("row wider than header row, extra cells dropped",
				"sheet", sheet, "row", rowNr, "headers", len(headers), "cells", len(cols))
		}
		if err := fn(newRecord(sheet, rowNr, headers, cols)); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, rowNr, err)
		}
	}
	return nil
}

// Create persists a new entity under parent and counts it.
func (r *Run) Create(ctx context.Context, parent string, kind domain.Kind, title string, fields domain.Values) (domain.Entity, error) {
	entity, err := r.Repo.Create(ctx, parent, kind, title, fields)
	if err != nil {
		return domain.Entity{}, err
	}
	r.Metrics.EntityCreated(string(kind))
	return entity, nil
}

// SkipRow logs a skipped record with enough context to find it and counts
// the skip.
func (r *Run) SkipRow(rec Record, reason string) {
	r.Log.Warnw("skipping row", "sheet", rec.Sheet, "row", rec.Row, "reason", reason)
	r.Metrics.RowSkipped(rec.Sheet)
}

// Resolve looks up an already-created entity by criteria.
func (r *Run) Resolve(ctx context.Context, c Criteria) (domain.Entity, error) {
	return r.res.Resolve(ctx, c)
}

// ResolveTitle looks up an already-created entity of kind by title.
func (r *Run) ResolveTitle(ctx context.Context, kind domain.Kind, title string) (domain.Entity, error) {
	return r.res.Resolve(ctx, ByTitle(kind, title))
}

// Defer queues a single-valued relation binding for the second pass.
func (r *Run) Defer(sourceUID, relation string, target Criteria) {
	r.queue.Defer(sourceUID, relation, target)
	r.Metrics.ReferenceDeferred()
}

// DeferMulti queues a multi-valued relation binding for the second pass.
func (r *Run) DeferMulti(sourceUID, relation string, target Criteria) {
	r.queue.DeferMulti(sourceUID, relation, target)
	r.Metrics.ReferenceDeferred()
}

// Asset fetches a named attachment, probing the known extensions. A miss
// is counted and reported as domain.ErrNotFound; callers log it and keep
// the owning entity without the attachment.
func (r *Run) Asset(ctx context.Context, name string) ([]byte, string, error) {
	data, resolved, err := ResolveAsset(ctx, r.Assets, name)
	if err != nil {
		var nf domain.ErrNotFound
		if errors.As(err, &nf) {
			r.Metrics.AssetMissing()
		}
		return nil, "", err
	}
	return data, resolved, nil
}
