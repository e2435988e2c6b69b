package csvstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/storage"
)

// Store keeps the compound catalog in a CSV table file.
// The whole table is held in memory and fully rebuilt on every load;
// mutations rewrite the file in a single pass before the in-memory index
// is touched.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	records  []*core.Compound
	byID     map[core.ID]*core.Compound
	byCode   map[string]core.ID
	codeKeys []string
	hasBOM   bool
	skipped  int
	closed   bool
}

var _ storage.CompoundRepository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// Open creates a Store backed by the table at path and loads it.
// A missing file is not an error: the store starts empty and the first add
// creates the table.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the in-memory index from the table file.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("table file not found, starting empty", "path", s.path)
			s.install(nil, false, 0)
			return nil
		}
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}

	parsed := parseTable(data)
	s.install(parsed.records, parsed.hasBOM, parsed.skipped)
	s.logger.Info("loaded compound table",
		"path", s.path,
		"records", len(s.records),
		"skipped", s.skipped)
	return nil
}

// install replaces the in-memory state. Caller holds the write lock.
// Rows whose identity collides with an earlier row are dropped so the
// identity-uniqueness invariant holds after every load.
func (s *Store) install(records []*core.Compound, hasBOM bool, skipped int) {
	byID := make(map[core.ID]*core.Compound, len(records))
	kept := make([]*core.Compound, 0, len(records))

	for _, record := range records {
		if _, exists := byID[record.Identity]; exists {
			s.logger.Warn("dropping row with duplicate identity",
				"identity", record.Identity, "code", record.Code)
			skipped++
			continue
		}
		byID[record.Identity] = record
		kept = append(kept, record)
	}

	s.records = kept
	s.byID = byID
	s.byCode, s.codeKeys = buildCodeIndex(kept)
	s.hasBOM = hasBOM
	s.skipped = skipped
}

// buildCodeIndex maps normalized codes to identities. The first record
// with a given code owns the plain key; later ones get suffixed keys.
func buildCodeIndex(records []*core.Compound) (map[string]core.ID, []string) {
	byCode := make(map[string]core.ID, len(records))
	keys := make([]string, 0, len(records))

	for _, record := range records {
		key := record.NormalizedCode()
		if key == "" {
			continue
		}
		if _, taken := byCode[key]; taken {
			for n := 2; ; n++ {
				candidate := key + storage.CodeSuffixSeparator + strconv.Itoa(n)
				if _, taken := byCode[candidate]; !taken {
					key = candidate
					break
				}
			}
		}
		byCode[key] = record.Identity
		keys = append(keys, key)
	}
	return byCode, keys
}

// Add persists a new compound and returns its identity.
func (s *Store) Add(ctx context.Context, compound *core.Compound) (core.ID, error) {
	if err := core.ValidateCompound(compound); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", storage.ErrStorageClosed
	}

	record := &core.Compound{
		Name:      strings.TrimSpace(compound.Name),
		Code:      strings.TrimSpace(compound.Code),
		Structure: strings.TrimSpace(compound.Structure),
		Num:       len(s.records) + 1,
	}
	record.Identity = core.IdentityFromContent(record.Code, record.Name)
	record.InsertedAt = time.Now().UTC()
	record.UpdatedAt = record.InsertedAt

	if _, exists := s.byID[record.Identity]; exists {
		return "", fmt.Errorf("%w: code %q name %q hashes to %s",
			storage.ErrDuplicateIdentity, record.Code, record.Name, record.Identity)
	}

	updated := make([]*core.Compound, len(s.records), len(s.records)+1)
	copy(updated, s.records)
	updated = append(updated, record)

	if err := s.writeTable(updated); err != nil {
		return "", err
	}

	// File is on disk; only now is the index advanced. The rewrite holds
	// only parsed records, so rows the last load skipped are compacted away.
	s.records = updated
	s.byID[record.Identity] = record
	s.byCode, s.codeKeys = buildCodeIndex(updated)
	s.skipped = 0

	s.logger.Info("added compound",
		"identity", record.Identity, "code", record.Code, "name", record.Name)
	return record.Identity, nil
}

// Delete removes compounds by identity. Identities that don't resolve are
// reported in the result while the rest are deleted. If nothing resolves,
// the table is untouched and ErrNoDeletions is returned.
func (s *Store) Delete(ctx context.Context, ids ...core.ID) (*storage.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	result := &storage.DeleteResult{}
	doomed := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		record, exists := s.byID[id]
		if !exists {
			result.Errors = append(result.Errors, fmt.Sprintf("identity not found: %s", id))
			continue
		}
		doomed[id] = true
		result.Deleted = append(result.Deleted, record)
	}

	if len(doomed) == 0 {
		result.Deleted = nil
		result.Errors = append(result.Errors, "no valid compounds found to delete")
		return result, storage.ErrNoDeletions
	}

	// Full backup of the pre-deletion table before any overwrite.
	previous, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	if err := writeBackup(s.path, previous); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}

	kept := make([]*core.Compound, 0, len(s.records)-len(doomed))
	for _, record := range s.records {
		if !doomed[record.Identity] {
			kept = append(kept, record)
		}
	}

	if err := s.writeTable(kept); err != nil {
		return nil, err
	}

	// The rewrite holds only parsed records, so rows the last load skipped
	// are compacted away and the skipped counter resets.
	s.install(kept, s.hasBOM, 0)
	result.Success = true
	result.DeletedCount = len(doomed)

	s.logger.Info("deleted compounds",
		"count", result.DeletedCount, "missing", len(result.Errors))
	return result, nil
}

// writeTable persists the given records as the whole table in one pass.
// Caller holds the write lock. The in-memory state is never touched here,
// so a failed write leaves readers at the pre-mutation state.
func (s *Store) writeTable(records []*core.Compound) error {
	data, err := encodeTable(records, s.hasBOM)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	return nil
}

// Get retrieves a compound by identity.
func (s *Store) Get(ctx context.Context, id core.ID) (*core.Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	record, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// FindByCodeKey retrieves the compound indexed under the given code key.
func (s *Store) FindByCodeKey(ctx context.Context, key string) (*core.Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	id, exists := s.byCode[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return s.byID[id], nil
}

// All returns every compound in table order.
func (s *Store) All(ctx context.Context) ([]*core.Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	records := make([]*core.Compound, len(s.records))
	copy(records, s.records)
	return records, nil
}

// CodeKeys returns every code index key in table order.
func (s *Store) CodeKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	keys := make([]string, len(s.codeKeys))
	copy(keys, s.codeKeys)
	return keys, nil
}

// Count returns the number of records in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}
	return len(s.records), nil
}

// SkippedRows returns the number of malformed rows dropped by the last load.
// Mutations rewrite the whole table from parsed records, compacting skipped
// rows out of the file, so the count resets to zero after Add or Delete.
func (s *Store) SkippedRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}

// Path returns the table file path.
func (s *Store) Path() string {
	return s.path
}

// Close marks the store closed. Subsequent operations fail with
// ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
