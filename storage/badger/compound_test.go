package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/storage"
)

const testStructure = "OC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1"

func TestCompoundBasics(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	id, err := repo.Add(ctx, &core.Compound{
		Name:      "resveratrol monomer",
		Code:      "H",
		Structure: testStructure,
	})
	if err != nil {
		t.Fatalf("Failed to add compound: %v", err)
	}

	want := core.IdentityFromContent("H", "resveratrol monomer")
	if id != want {
		t.Fatalf("Expected identity %s, got %s", want, id)
	}

	retrieved, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get compound: %v", err)
	}
	if retrieved.Structure != testStructure {
		t.Fatalf("Expected structure %q, got %q", testStructure, retrieved.Structure)
	}
	if retrieved.Num == 0 {
		t.Fatal("Expected non-zero num")
	}
	if retrieved.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 compound, got %d", count)
	}
}

func TestCompoundDuplicateIdentity(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	compound := &core.Compound{
		Name:      "pallidol",
		Code:      "H≡4r7.5r5r.74r≡H",
		Structure: testStructure,
	}
	if _, err := repo.Add(ctx, compound); err != nil {
		t.Fatalf("Failed to add compound: %v", err)
	}

	_, err = repo.Add(ctx, &core.Compound{
		Name:      "pallidol",
		Code:      "H≡4r7.5r5r.74r≡H",
		Structure: testStructure,
	})
	if !errors.Is(err, storage.ErrDuplicateIdentity) {
		t.Fatalf("Expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestCompoundCodeIndex(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Stored with ASCII hyphens; the index key carries en dashes.
	id, err := repo.Add(ctx, &core.Compound{
		Name:      "trans-δ-viniferin",
		Code:      "T-04r.15r-H",
		Structure: testStructure,
	})
	if err != nil {
		t.Fatalf("Failed to add compound: %v", err)
	}

	found, err := repo.FindByCodeKey(ctx, "T–04r.15r–H")
	if err != nil {
		t.Fatalf("Failed to look up code key: %v", err)
	}
	if found.Identity != id {
		t.Fatalf("Expected identity %s, got %s", id, found.Identity)
	}

	if _, err := repo.FindByCodeKey(ctx, "T-04r.15r-H"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for raw hyphen key, got %v", err)
	}
}

func TestCompoundDuplicateCodeSuffixes(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	var ids []core.ID
	for _, name := range []string{"isomer one", "isomer two", "isomer three"} {
		id, err := repo.Add(ctx, &core.Compound{
			Name:      name,
			Code:      "T|–04r.15r–|H",
			Structure: testStructure,
		})
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		ids = append(ids, id)
	}

	keys, err := repo.CodeKeys(ctx)
	if err != nil {
		t.Fatalf("Failed to list code keys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("Expected 3 code keys, got %d", len(keys))
	}
	if keys[1] != keys[0]+"#2" || keys[2] != keys[0]+"#3" {
		t.Fatalf("Expected suffixed keys, got %v", keys)
	}

	for i, key := range keys {
		found, err := repo.FindByCodeKey(ctx, key)
		if err != nil {
			t.Fatalf("Failed to look up %s: %v", key, err)
		}
		if found.Identity != ids[i] {
			t.Fatalf("Key %s: expected %s, got %s", key, ids[i], found.Identity)
		}
	}
}

func TestCompoundDelete(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	keep, err := repo.Add(ctx, &core.Compound{Name: "keeper", Code: "H", Structure: testStructure})
	if err != nil {
		t.Fatalf("Failed to add keeper: %v", err)
	}
	doomed, err := repo.Add(ctx, &core.Compound{Name: "doomed", Code: "T", Structure: testStructure})
	if err != nil {
		t.Fatalf("Failed to add doomed: %v", err)
	}

	result, err := repo.Delete(ctx, doomed, core.ID("deadbeef"))
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if !result.Success || result.DeletedCount != 1 {
		t.Fatalf("Expected 1 deletion, got %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error entry, got %v", result.Errors)
	}

	if _, err := repo.Get(ctx, doomed); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deleted compound to be gone, got %v", err)
	}
	if _, err := repo.FindByCodeKey(ctx, "T"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected code index entry to be gone, got %v", err)
	}
	if _, err := repo.Get(ctx, keep); err != nil {
		t.Fatalf("Expected keeper to survive, got %v", err)
	}
}

func TestCompoundDeleteNothingResolves(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	if _, err := repo.Add(ctx, &core.Compound{Name: "survivor", Code: "H", Structure: testStructure}); err != nil {
		t.Fatalf("Failed to add: %v", err)
	}

	result, err := repo.Delete(ctx, core.ID("deadbeef"))
	if !errors.Is(err, storage.ErrNoDeletions) {
		t.Fatalf("Expected ErrNoDeletions, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatalf("Expected unsuccessful result, got %+v", result)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected survivor to remain, got count %d", count)
	}
}

func TestCompoundAllInsertionOrder(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	names := []string{"first", "second", "third"}
	codes := []string{"H", "T", "C"}
	for i := range names {
		if _, err := repo.Add(ctx, &core.Compound{
			Name:      names[i],
			Code:      codes[i],
			Structure: testStructure,
		}); err != nil {
			t.Fatalf("Failed to add %s: %v", names[i], err)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 compounds, got %d", len(all))
	}
	for i, record := range all {
		if record.Name != names[i] {
			t.Fatalf("Position %d: expected %s, got %s", i, names[i], record.Name)
		}
	}
}
