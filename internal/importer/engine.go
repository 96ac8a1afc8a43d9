// Package importer implements the tabular dataset import engine: worksheet
// row normalization, entity resolution with per-kind fallbacks, deferred
// reference binding, bounded batch writes, and attachment probing. Concrete
// per-sheet drivers live in internal/setupdata and run on top of this
// package through the Run facade.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Driver imports one worksheet's records. Implementations are registered
// with the engine in the fixed dataset sheet order; later drivers may rely
// on entities created by earlier ones.
type Driver interface {
	// Sheet returns the primary worksheet title.
	Sheet() string
	// Import processes the primary worksheet through run. Drivers defer
	// unresolvable references and never drain the queue themselves.
	Import(ctx context.Context, run *Run) error
}

// Report summarizes one completed import run.
type Report struct {
	RunID      string
	Dataset    string
	Sheets     int // worksheets present and processed
	Missing    int // worksheets absent from the workbook
	Deferred   int // references queued during the eager pass
	Unresolved int // references still unbound after the drain
	Elapsed    time.Duration
}

// Engine executes a fixed sequence of drivers over one workbook, then
// drains the deferred reference queue exactly once and checkpoints the
// repository. Execution is single-threaded; sheet order is the dependency
// order.
type Engine struct {
	Drivers []Driver
	Dataset string // label for progress logs and the report
}

// Execute runs every driver whose worksheet is present, in order. A driver
// error aborts the run; recoverable per-row conditions never reach here.
func (e *Engine) Execute(ctx context.Context, run *Run) (Report, error) {
	started := time.Now()
	report := Report{RunID: uuid.NewString(), Dataset: e.Dataset}

	for _, driver := range e.Drivers {
		name := driver.Sheet()
		if _, ok := run.book.Sheet(name); !ok {
			run.Log.Infow("No records found", "sheet", name)
			report.Missing++
			continue
		}
		run.Log.Infow("Loading worksheet", "dataset", e.Dataset, "sheet", name)
		if err := driver.Import(ctx, run); err != nil {
			return report, fmt.Errorf("sheet %q: %w", name, err)
		}
		report.Sheets++
	}

	report.Deferred = run.queue.Len()
	unresolved, err := run.queue.Drain(ctx, run.res, run.Repo, run.Log, run.Metrics)
	if err != nil {
		return report, err
	}
	report.Unresolved = unresolved

	if err := run.Repo.Checkpoint(ctx); err != nil {
		return report, fmt.Errorf("final checkpoint: %w", err)
	}
	report.Elapsed = time.Since(started)
	run.Log.Infow("Import finished",
		"run_id", report.RunID,
		"sheets", report.Sheets,
		"missing", report.Missing,
		"deferred", report.Deferred,
		"unresolved", report.Unresolved,
		"elapsed", report.Elapsed)
	return report, nil
}
