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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCompound indicates a Compound failed validation.
	ErrInvalidCompound = errors.New("invalid compound")

	// ErrEmptyStructure indicates the Structure field is empty.
	ErrEmptyStructure = errors.New("structure cannot be empty")

	// ErrEmptyNameAndCode indicates both Name and Code are empty.
	ErrEmptyNameAndCode = errors.New("compound needs a name or a code")
)
