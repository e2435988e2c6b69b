package storage

import (
	"context"

	"github.com/poiesic/stilbar/core"
)

// CodeSuffixSeparator joins a duplicated code and its discriminator in the
// code index ("H–77–H#2"). The first record with a code owns the plain key;
// later ones get suffixed keys.
const CodeSuffixSeparator = "#"

// DeleteResult reports the outcome of a batch deletion.
// Unresolvable identities never abort deletion of the resolvable subset;
// they are reported per-identity in Errors instead.
type DeleteResult struct {
	Success      bool
	DeletedCount int
	Deleted      []*core.Compound
	Errors       []string
}

// CompoundRepository provides operations for managing compound records.
// Implementations must be thread-safe for concurrent reads; mutations
// assume a single writing process.
type CompoundRepository interface {
	// Add validates the compound, derives its identity from code and name,
	// persists it, and returns the identity. Returns ErrDuplicateIdentity
	// if a record with the same identity already exists. The in-memory
	// index is only updated after the persisted table was written.
	Add(ctx context.Context, compound *core.Compound) (core.ID, error)

	// Delete removes compounds by identity. Identities that don't resolve
	// are recorded as errors in the result while the rest are deleted.
	// If no identity resolves, the result reports failure, ErrNoDeletions
	// is returned, and the backing table is untouched.
	Delete(ctx context.Context, ids ...core.ID) (*DeleteResult, error)

	// Get retrieves a single compound by identity.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.Compound, error)

	// FindByCodeKey retrieves the compound indexed under the given code
	// key. The key is matched exactly against the stored index, including
	// suffixed duplicate keys ("code#2"). Returns ErrNotFound on a miss.
	FindByCodeKey(ctx context.Context, key string) (*core.Compound, error)

	// All returns every compound in a stable order (table order for the
	// CSV backend, key order for badger). The order is stable within one
	// load but carries no further meaning.
	All(ctx context.Context) ([]*core.Compound, error)

	// CodeKeys returns every code index key, including suffixed duplicate
	// keys, in the same stable order as All.
	CodeKeys(ctx context.Context) ([]string, error)

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)

	// Reload discards the in-memory index and rebuilds it from the
	// persisted table.
	Reload(ctx context.Context) error

	// Close closes the storage backend and releases resources.
	Close() error
}
