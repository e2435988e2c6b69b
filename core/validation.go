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

import "fmt"

// ValidateCompound validates a Compound according to domain rules.
//
// Validation rules:
//   - Structure must not be empty
//   - At least one of Name and Code must be present
//
// NOT validated (populated by the store):
//   - Identity (derived on add)
//   - Num (legacy display number, 0 is valid)
//   - Timestamps
func ValidateCompound(compound *Compound) error {
	if compound == nil {
		return fmt.Errorf("%w: compound is nil", ErrInvalidCompound)
	}

	if compound.Structure == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCompound, ErrEmptyStructure)
	}

	if NormalizeCode(compound.Code) == "" && compound.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCompound, ErrEmptyNameAndCode)
	}

	return nil
}
