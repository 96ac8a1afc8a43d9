// Package persistence selects a repository backend from the environment.
package persistence

import (
	"fmt"
	"os"

	"limscore/internal/infra/persistence/memory"
	"limscore/internal/infra/persistence/postgres"
	"limscore/internal/infra/persistence/sqlite"
	"limscore/pkg/domain"
)

// Driver identifies a concrete repository implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (dry runs / tests)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Open selects a repository backend using environment variables.
// Defaults to sqlite when unset.
//
//	LIMSCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LIMSCORE_SQLITE_PATH: path to sqlite file (default ./limscore.db)
//	LIMSCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (domain.Repository, error) {
	driver := os.Getenv("LIMSCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("LIMSCORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("LIMSCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
