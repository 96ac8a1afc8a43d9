package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"limscore/internal/infra/persistence/postgres/testutil"
	"limscore/pkg/domain"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := newStubStore(t)
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS state") {
		t.Fatalf("expected state table DDL, got %v", conn.Execs)
	}
}

func TestNewStoreUsesDefaultDSNWhenEmpty(t *testing.T) {
	db, _ := testutil.NewStubDB()
	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		gotDriver = driverName
		gotDSN = dsn
		return db, nil
	})
	defer restore()
	if _, err := NewStore(""); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if gotDriver != "pgx" {
		t.Fatalf("expected pgx driver, got %q", gotDriver)
	}
	if gotDSN != defaultDSN {
		t.Fatalf("expected default DSN, got %q", gotDSN)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreSurfacesRowIterationErrors(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.RowsErr = fmt.Errorf("connection reset")
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "iterate state") {
		t.Fatalf("expected iteration error, got %v", err)
	}
}

func TestCheckpointPersistsSortedBuckets(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "", domain.KindSupplier, "Reagents Inc", nil); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if _, err := store.Create(ctx, "", domain.KindClient, "Acme Labs", nil); err != nil {
		t.Fatalf("create client: %v", err)
	}
	if err := store.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	rows := conn.Tables["state"]
	if len(rows) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(rows))
	}
	if rows[0]["bucket"] != "client" || rows[1]["bucket"] != "supplier" {
		t.Fatalf("expected sorted buckets, got %v and %v", rows[0]["bucket"], rows[1]["bucket"])
	}
	// A second checkpoint must upsert, not duplicate.
	if err := store.Checkpoint(ctx); err != nil {
		t.Fatalf("second checkpoint: %v", err)
	}
	if got := len(conn.Tables["state"]); got != 2 {
		t.Fatalf("expected upsert to keep 2 buckets, got %d", got)
	}
}

func TestReopenHydratesSnapshot(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, "", domain.KindClient, "Acme Labs", domain.Values{
		"ClientID": domain.TextValue("AC"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return testutil.Reopen(conn), nil })
	defer restore()
	reopened, err := NewStore("postgres://elsewhere/limscore")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	clients, err := reopened.Query(ctx, domain.KindClient, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(clients) != 1 {
		t.Fatalf("expected 1 client after reopen, got %d", len(clients))
	}
	if clients[0].UID != created.UID {
		t.Fatalf("expected UID %q preserved, got %q", created.UID, clients[0].UID)
	}
	if v, ok := clients[0].Field("ClientID"); !ok || v.Text != "AC" {
		t.Fatalf("expected ClientID field to survive reload, got %+v", clients[0].Fields)
	}
}

func TestCheckpointBeginFailure(t *testing.T) {
	store, conn := newStubStore(t)
	conn.FailBegin = true
	if err := store.Checkpoint(context.Background()); err == nil || !strings.Contains(err.Error(), "begin tx") {
		t.Fatalf("expected begin error, got %v", err)
	}
}

func TestCheckpointUpsertFailure(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "", domain.KindClient, "Acme Labs", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	conn.FailExec = true
	if err := store.Checkpoint(ctx); err == nil || !strings.Contains(err.Error(), "upsert") {
		t.Fatalf("expected upsert error, got %v", err)
	}
}

func TestCheckpointCommitFailure(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "", domain.KindClient, "Acme Labs", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	conn.FailCommit = true
	if err := store.Checkpoint(ctx); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestCloseWritesFinalSnapshot(t *testing.T) {
	store, conn := newStubStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "", domain.KindSampleType, "Water", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	rows := conn.Tables["state"]
	if len(rows) != 1 || rows[0]["bucket"] != "sample_type" {
		t.Fatalf("expected sample_type bucket after close, got %v", rows)
	}
}
