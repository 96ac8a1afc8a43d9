package setupdata

import (
	"context"
	"testing"

	"limscore/internal/importer"
	"limscore/internal/infra/persistence/memory"
	"limscore/internal/workbook"
	"limscore/pkg/domain"
)

// addSheet appends a worksheet in the standard layout: headers in row 1,
// two instruction rows, then data starting at physical row 4.
func addSheet(book *workbook.Memory, name string, headers []string, rows ...[]string) {
	all := make([][]workbook.Cell, 0, len(rows)+3)
	all = append(all, workbook.Strings(headers...))
	all = append(all, workbook.Strings(), workbook.Strings())
	for _, r := range rows {
		all = append(all, workbook.Strings(r...))
	}
	book.AddSheet(name, all...)
}

func newTestRun(book workbook.Workbook) (*importer.Run, *memory.Store) {
	store := memory.NewStore()
	return importer.NewRun(book, store, nil, nil, nil), store
}

// runDrivers executes the given drivers through the engine, so deferred
// references drain exactly as they would in a real import.
func runDrivers(t *testing.T, run *importer.Run, drivers ...importer.Driver) importer.Report {
	t.Helper()
	engine := importer.Engine{Drivers: drivers, Dataset: "test"}
	report, err := engine.Execute(context.Background(), run)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return report
}

func mustQuery(t *testing.T, store *memory.Store, kind domain.Kind, filters domain.Filters) []domain.Entity {
	t.Helper()
	matches, err := store.Query(context.Background(), kind, filters)
	if err != nil {
		t.Fatalf("query %s: %v", kind, err)
	}
	return matches
}

// one fetches exactly one entity of the kind, failing the test otherwise.
func one(t *testing.T, store *memory.Store, kind domain.Kind, filters domain.Filters) domain.Entity {
	t.Helper()
	matches := mustQuery(t, store, kind, filters)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one %s for %v, got %d", kind, filters, len(matches))
	}
	return matches[0]
}

func fieldText(t *testing.T, e domain.Entity, name string) string {
	t.Helper()
	v, ok := e.Field(name)
	if !ok {
		t.Fatalf("entity %q has no field %q", e.Title, name)
	}
	return v.AsText()
}

func fieldRef(t *testing.T, e domain.Entity, name string) string {
	t.Helper()
	v, ok := e.Field(name)
	if !ok {
		t.Fatalf("entity %q has no field %q", e.Title, name)
	}
	return v.Ref
}
