package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/stilbar/core"
)

func TestOpenBackendPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")
	ctx := context.Background()

	backend, err := OpenBackend(dir)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	repo, err := NewCompoundRepository(backend)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}

	id, err := repo.Add(ctx, &core.Compound{
		Name:      "resveratrol monomer",
		Code:      "H",
		Structure: testStructure,
	})
	if err != nil {
		t.Fatalf("Failed to add compound: %v", err)
	}

	repo.Close()
	if err := backend.Close(); err != nil {
		t.Fatalf("Failed to close backend: %v", err)
	}
	if !backend.IsClosed() {
		t.Fatal("Expected backend to report closed")
	}

	backend, err = OpenBackend(dir)
	if err != nil {
		t.Fatalf("Failed to reopen backend: %v", err)
	}
	defer backend.Close()
	repo, err = NewCompoundRepository(backend)
	if err != nil {
		t.Fatalf("Failed to recreate repository: %v", err)
	}
	defer repo.Close()

	retrieved, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get compound after reopen: %v", err)
	}
	if retrieved.Structure != testStructure {
		t.Fatalf("Expected structure %q, got %q", testStructure, retrieved.Structure)
	}
}
