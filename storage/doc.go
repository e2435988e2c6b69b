// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for the StilBAR
// catalog.
//
// This package defines the repository interface that decouples storage
// implementation from lookup logic. Two backends implement it: csvstore,
// which keeps the catalog in the shared CSV table the chemistry group
// maintains, and badger, which keeps it in a transactional key-value store.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.CompoundRepository
// interface to keep consumers decoupled from any one backend:
//
//	repo, err := csvstore.Open(path)  // returns storage.CompoundRepository
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Code Index Keys
//
// Stored codes are indexed under their normalized form. The first record
// with a given code owns the plain key; later records with the same code
// are indexed under suffixed keys ("code#2", "code#3", ...) so that
// duplicates stay addressable without overwriting one another.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent reads. Writers assume a single process owns the backing
// table; cross-process write coordination is the caller's problem.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage
