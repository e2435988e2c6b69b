package badger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/storage"
)

// CompoundRepository implements storage.CompoundRepository for BadgerDB.
// Unlike the CSV-backed store there is no table file to back up or reload;
// every mutation is a single transaction.
type CompoundRepository struct {
	backend *Backend
	numSeq  *badger.Sequence
}

var _ storage.CompoundRepository = (*CompoundRepository)(nil)

// NewCompoundRepository creates a new CompoundRepository.
func NewCompoundRepository(backend *Backend) (*CompoundRepository, error) {
	numSeq, err := backend.GetSequence(compoundNumSeq)
	if err != nil {
		return nil, err
	}

	return &CompoundRepository{
		backend: backend,
		numSeq:  numSeq,
	}, nil
}

// Close releases the sequence.
func (r *CompoundRepository) Close() error {
	return r.numSeq.Release()
}

// Add persists a new compound and returns its identity.
func (r *CompoundRepository) Add(ctx context.Context, compound *core.Compound) (core.ID, error) {
	if err := core.ValidateCompound(compound); err != nil {
		return "", err
	}
	if r.backend.IsClosed() {
		return "", storage.ErrStorageClosed
	}

	record := &core.Compound{
		Name:      strings.TrimSpace(compound.Name),
		Code:      strings.TrimSpace(compound.Code),
		Structure: strings.TrimSpace(compound.Structure),
	}
	record.Identity = core.IdentityFromContent(record.Code, record.Name)
	record.InsertedAt = time.Now().UTC()
	record.UpdatedAt = record.InsertedAt

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCompoundKey(record.Identity)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: code %q name %q hashes to %s",
				storage.ErrDuplicateIdentity, record.Code, record.Name, record.Identity)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		num, err := r.nextNum()
		if err != nil {
			return err
		}
		record.Num = int(num)

		if err := tx.Set(key, storage.MarshalCompound(record)); err != nil {
			return err
		}
		if err := tx.Set(makeNumKey(num), []byte(record.Identity)); err != nil {
			return err
		}

		// Assign the code key, suffixing on collision.
		codeKey := record.NormalizedCode()
		if codeKey != "" {
			assigned, err := assignCodeKey(tx, codeKey)
			if err != nil {
				return err
			}
			if err := tx.Set(makeCodeIndexKey(assigned), []byte(record.Identity)); err != nil {
				return err
			}
			if err := tx.Set(makeKeyOfKey(record.Identity), []byte(assigned)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}

	return record.Identity, nil
}

// nextNum draws the next sequence number, skipping the zero BadgerDB
// sequences can return on first use.
func (r *CompoundRepository) nextNum() (uint64, error) {
	num, err := r.numSeq.Next()
	if err != nil {
		return 0, err
	}
	if num == 0 {
		num, err = r.numSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return num, nil
}

// assignCodeKey finds the first free code index key for the given
// normalized code. The first record with a code owns the plain key;
// later ones get suffixed keys.
func assignCodeKey(tx *badger.Txn, codeKey string) (string, error) {
	candidate := codeKey
	for n := 2; ; n++ {
		_, err := tx.Get(makeCodeIndexKey(candidate))
		if err == badger.ErrKeyNotFound {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = codeKey + storage.CodeSuffixSeparator + strconv.Itoa(n)
	}
}

// Delete removes compounds by identity. Identities that don't resolve are
// reported in the result while the rest are deleted. If nothing resolves,
// nothing is committed and ErrNoDeletions is returned.
func (r *CompoundRepository) Delete(ctx context.Context, ids ...core.ID) (*storage.DeleteResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	result := &storage.DeleteResult{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCompoundKey(id)
			record, err := readCompound(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				result.Errors = append(result.Errors, fmt.Sprintf("identity not found: %s", id))
				continue
			}

			if err := tx.Delete(makeNumKey(uint64(record.Num))); err != nil {
				return err
			}
			if err := r.deleteCodeIndex(tx, id); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			result.Deleted = append(result.Deleted, record)
		}

		if len(result.Deleted) == 0 {
			result.Errors = append(result.Errors, "no valid compounds found to delete")
			return storage.ErrNoDeletions
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return result, err
	}

	result.Success = true
	result.DeletedCount = len(result.Deleted)
	return result, nil
}

// deleteCodeIndex removes the code index entry and its reverse entry for
// an identity, if any were assigned.
func (r *CompoundRepository) deleteCodeIndex(tx *badger.Txn, id core.ID) error {
	keyOfKey := makeKeyOfKey(id)
	item, err := tx.Get(keyOfKey)
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	var assigned string
	if err := item.Value(func(val []byte) error {
		assigned = string(val)
		return nil
	}); err != nil {
		return err
	}

	if err := tx.Delete(makeCodeIndexKey(assigned)); err != nil {
		return err
	}
	return tx.Delete(keyOfKey)
}

// Get retrieves a compound by identity.
func (r *CompoundRepository) Get(ctx context.Context, id core.ID) (*core.Compound, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Compound
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCompound(tx, makeCompoundKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindByCodeKey retrieves the compound indexed under the given code key.
func (r *CompoundRepository) FindByCodeKey(ctx context.Context, codeKey string) (*core.Compound, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Compound
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCodeIndexKey(codeKey))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			id = core.ID(val)
			return nil
		}); err != nil {
			return err
		}

		result, err = readCompound(tx, makeCompoundKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// All returns every compound in insertion order.
func (r *CompoundRepository) All(ctx context.Context) ([]*core.Compound, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []*core.Compound
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.eachNumEntry(tx, func(tx *badger.Txn, id core.ID) error {
			record, err := readCompound(tx, makeCompoundKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
			return nil
		})
	}, false)
	return results, err
}

// CodeKeys returns every assigned code index key in insertion order.
func (r *CompoundRepository) CodeKeys(ctx context.Context) ([]string, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var keys []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.eachNumEntry(tx, func(tx *badger.Txn, id core.ID) error {
			item, err := tx.Get(makeKeyOfKey(id))
			if err == badger.ErrKeyNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				keys = append(keys, string(val))
				return nil
			})
		})
	}, false)
	return keys, err
}

// Count returns the number of compounds stored.
func (r *CompoundRepository) Count(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(compoundNumPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Reload is a no-op: there is no external table to pick up changes from.
func (r *CompoundRepository) Reload(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// eachNumEntry iterates the sequence index in insertion order, calling fn
// with each stored identity.
func (r *CompoundRepository) eachNumEntry(tx *badger.Txn, fn func(tx *badger.Txn, id core.ID) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(compoundNumPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			id = core.ID(val)
			return nil
		}); err != nil {
			return err
		}
		if err := fn(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// readCompound reads a compound record from the transaction.
func readCompound(tx *badger.Txn, key []byte) (*core.Compound, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Compound
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalCompound(val)
		return unmarshalErr
	})
	return record, err
}
