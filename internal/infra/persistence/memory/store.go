// Package memory provides the in-memory repository used for tests and
// ephemeral imports, plus the snapshot state shared by the durable stores.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"limscore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store satisfies the domain
// repository interface.
var _ domain.Repository = (*Store)(nil)

// Snapshot captures a point-in-time clone of the repository state. Entities
// are stored per kind in creation order so queries replay deterministically
// after a reload.
type Snapshot struct {
	Entities map[domain.Kind][]domain.Entity `json:"entities"`
}

// migrateSnapshot normalizes snapshots written by older builds: nil maps
// become empty, entries without a UID are dropped, and the kind recorded on
// the entity wins over the bucket it was found in.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Entities == nil {
		snapshot.Entities = map[domain.Kind][]domain.Entity{}
	}
	for kind, entities := range snapshot.Entities {
		kept := entities[:0]
		for _, entity := range entities {
			if entity.UID == "" {
				continue
			}
			if entity.Kind == "" {
				entity.Kind = kind
			}
			kept = append(kept, entity)
		}
		snapshot.Entities[kind] = kept
	}
	return snapshot
}

type memoryState struct {
	byUID map[string]domain.Entity
	order map[domain.Kind][]string
}

func newMemoryState() memoryState {
	return memoryState{
		byUID: make(map[string]domain.Entity),
		order: make(map[domain.Kind][]string),
	}
}

// Store is an in-memory hierarchical entity repository.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
}

// NewStore constructs an empty in-memory repository.
func NewStore() *Store {
	return &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Create stores a new entity under parent and returns the stored clone.
func (s *Store) Create(_ context.Context, parent string, kind domain.Kind, title string, fields domain.Values) (domain.Entity, error) {
	if kind == "" {
		return domain.Entity{}, fmt.Errorf("memory: entity kind required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent != "" {
		if _, ok := s.state.byUID[parent]; !ok {
			return domain.Entity{}, fmt.Errorf("memory: parent %q not found", parent)
		}
	}
	now := s.nowFn()
	entity := domain.Entity{
		Base:   domain.Base{UID: s.newID(), CreatedAt: now, UpdatedAt: now},
		Kind:   kind,
		Parent: parent,
		Title:  title,
		Fields: fields.Clone(),
	}
	s.state.byUID[entity.UID] = entity.Clone()
	s.state.order[kind] = append(s.state.order[kind], entity.UID)
	return entity, nil
}

// Update applies mutate to a clone of the stored entity and persists it.
// UID, kind, and creation time are pinned across the mutation.
func (s *Store) Update(_ context.Context, uid string, mutate func(*domain.Entity) error) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.state.byUID[uid]
	if !ok {
		return domain.Entity{}, domain.ErrNotFound{Key: uid}
	}
	updated := current.Clone()
	if err := mutate(&updated); err != nil {
		return domain.Entity{}, err
	}
	updated.UID = current.UID
	updated.Kind = current.Kind
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.nowFn()
	s.state.byUID[uid] = updated.Clone()
	return updated, nil
}

// Get returns a clone of the entity with the given UID.
func (s *Store) Get(_ context.Context, uid string) (domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.state.byUID[uid]
	if !ok {
		return domain.Entity{}, domain.ErrNotFound{Key: uid}
	}
	return entity.Clone(), nil
}

// Query returns clones of all entities of kind matching every filter, in
// creation order.
func (s *Store) Query(_ context.Context, kind domain.Kind, filters domain.Filters) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entity
	for _, uid := range s.state.order[kind] {
		entity, ok := s.state.byUID[uid]
		if !ok {
			continue
		}
		if matchesFilters(entity, filters) {
			out = append(out, entity.Clone())
		}
	}
	return out, nil
}

func matchesFilters(entity domain.Entity, filters domain.Filters) bool {
	for field, want := range filters {
		switch field {
		case "parent":
			// Parent filters compare UIDs verbatim.
			if entity.Parent != want {
				return false
			}
		case "title":
			if domain.NormalizeKey(entity.Title) != domain.NormalizeKey(want) {
				return false
			}
		default:
			if domain.NormalizeKey(entity.Fields[field].AsText()) != domain.NormalizeKey(want) {
				return false
			}
		}
	}
	return true
}

// Checkpoint is a no-op for the purely in-memory store.
func (s *Store) Checkpoint(context.Context) error { return nil }

// Close releases no resources for the in-memory store.
func (s *Store) Close() error { return nil }

// ExportState clones the current repository state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{Entities: make(map[domain.Kind][]domain.Entity, len(s.state.order))}
	for kind, uids := range s.state.order {
		entities := make([]domain.Entity, 0, len(uids))
		for _, uid := range uids {
			if entity, ok := s.state.byUID[uid]; ok {
				entities = append(entities, entity.Clone())
			}
		}
		snapshot.Entities[kind] = entities
	}
	return snapshot
}

// ImportState replaces the repository state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot = migrateSnapshot(snapshot)
	state := newMemoryState()
	for kind, entities := range snapshot.Entities {
		for _, entity := range entities {
			state.byUID[entity.UID] = entity.Clone()
			state.order[kind] = append(state.order[kind], entity.UID)
		}
	}
	s.state = state
}
