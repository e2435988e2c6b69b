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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateIdentity indicates an add would collide with an existing
	// record's identity (same normalized code and name).
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrNoDeletions indicates that none of the requested identities were
	// found, so the table was left unmodified.
	ErrNoDeletions = errors.New("no matching records to delete")

	// ErrPersistence indicates an I/O failure reading or writing the table.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedRow indicates a table row lacks required fields.
	// Malformed rows are skipped and counted during load, never fatal.
	ErrMalformedRow = errors.New("malformed row")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")
)
