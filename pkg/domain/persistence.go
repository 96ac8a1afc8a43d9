package domain

import (
	"context"
	"fmt"
)

// Filters narrows a repository query. The reserved keys "title" and "parent"
// match the entity title and parent UID; any other key matches the named
// field's textual rendering. Comparison is case-insensitive after Unicode
// NFC normalization (see NormalizeKey).
type Filters map[string]string

// Repository is the narrow persistence contract the import engine depends
// on. Implementations live under internal/infra/persistence and must return
// query results in entity creation order.
type Repository interface {
	// Create stores a new entity under the given parent UID ("" for a root
	// entity) and returns the stored handle.
	Create(ctx context.Context, parent string, kind Kind, title string, fields Values) (Entity, error)
	// Update applies mutate to a copy of the stored entity and persists the
	// result. The mutator sees a clone; partial mutations are not visible on
	// error.
	Update(ctx context.Context, uid string, mutate func(*Entity) error) (Entity, error)
	// Get returns the entity with the given UID.
	Get(ctx context.Context, uid string) (Entity, error)
	// Query returns all entities of kind matching every filter, in creation
	// order.
	Query(ctx context.Context, kind Kind, filters Filters) ([]Entity, error)
	// Checkpoint persists a recoverable snapshot of current state. Called by
	// the row normalizer every 1000 rows and by the engine at end of run.
	Checkpoint(ctx context.Context) error
	// Close releases underlying resources.
	Close() error
}

// AssetSource exposes a named dataset's attachment files. Lookup by exact
// name only; extension probing is layered on top by the import engine.
type AssetSource interface {
	// Open returns the contents of the named file.
	Open(ctx context.Context, name string) ([]byte, error)
	// Exists reports whether the named file is present.
	Exists(ctx context.Context, name string) (bool, error)
	// Driver names the backing implementation (fs, memory, s3).
	Driver() string
}

// ErrNotFound reports a missing entity or asset.
type ErrNotFound struct {
	Kind Kind
	Key  string
}

// Error implements the error interface.
func (e ErrNotFound) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%q not found", e.Key)
	}
	return fmt.Sprintf("%s %q not found", string(e.Kind), e.Key)
}
