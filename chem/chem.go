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


// Package chem provides lightweight sanity checks over SMILES strings.
//
// The checks are structural only: balanced branches and bracket atoms,
// paired ring-bond digits, plausible atom symbols. The results drive
// display hints, never lookup correctness; a structure the parser cannot
// make sense of is still stored and served verbatim.
package chem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStructure is returned when a structure fails a sanity check.
var ErrInvalidStructure = errors.New("invalid structure")

// Molecule summarizes what the sanity scan saw in a structure string.
type Molecule struct {
	HeavyAtoms int
	RingBonds  int
	Branches   int
}

// twoLetterSymbols are the organic-subset element symbols spanning two
// characters. They must be checked before their one-letter prefixes.
var twoLetterSymbols = []string{"Cl", "Br"}

// oneLetterSymbols are the remaining organic-subset element symbols,
// including the aromatic lowercase forms.
const oneLetterSymbols = "BCNOPSFIbcnops"

// Parse scans a SMILES string and returns a structural summary.
// It is not a full SMILES parser: stereo markers, charges, and isotopes
// inside bracket atoms are accepted without interpretation.
func Parse(structure string) (*Molecule, error) {
	structure = strings.TrimSpace(structure)
	if structure == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidStructure)
	}

	mol := &Molecule{}
	openRings := map[string]bool{}
	parenDepth := 0
	inBracket := false
	bracketHasAtom := false

	for i := 0; i < len(structure); i++ {
		ch := structure[i]

		if inBracket {
			if ch == '[' {
				return nil, fmt.Errorf("%w: nested bracket at position %d", ErrInvalidStructure, i)
			}
			if ch == ']' {
				if !bracketHasAtom {
					return nil, fmt.Errorf("%w: empty bracket atom at position %d", ErrInvalidStructure, i)
				}
				inBracket = false
				continue
			}
			if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
				bracketHasAtom = true
			}
			continue
		}

		switch {
		case ch == '[':
			inBracket = true
			bracketHasAtom = false
			mol.HeavyAtoms++

		case ch == ']':
			return nil, fmt.Errorf("%w: unmatched ']' at position %d", ErrInvalidStructure, i)

		case ch == '(':
			parenDepth++
			mol.Branches++

		case ch == ')':
			parenDepth--
			if parenDepth < 0 {
				return nil, fmt.Errorf("%w: unmatched ')' at position %d", ErrInvalidStructure, i)
			}

		case ch >= '0' && ch <= '9':
			toggleRing(openRings, string(ch), mol)

		case ch == '%':
			if i+2 >= len(structure) || !isDigit(structure[i+1]) || !isDigit(structure[i+2]) {
				return nil, fmt.Errorf("%w: malformed ring number at position %d", ErrInvalidStructure, i)
			}
			toggleRing(openRings, structure[i+1:i+3], mol)
			i += 2

		case ch == '-' || ch == '=' || ch == '#' || ch == ':' || ch == '/' || ch == '\\' || ch == '.':
			// Bonds and dot separators carry no atom.

		default:
			matched := false
			for _, symbol := range twoLetterSymbols {
				if strings.HasPrefix(structure[i:], symbol) {
					mol.HeavyAtoms++
					i += len(symbol) - 1
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.IndexByte(oneLetterSymbols, ch) >= 0 {
				mol.HeavyAtoms++
				continue
			}
			if ch == 'H' {
				// Explicit hydrogen outside brackets; legal, not heavy.
				continue
			}
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrInvalidStructure, ch, i)
		}
	}

	if inBracket {
		return nil, fmt.Errorf("%w: unterminated bracket atom", ErrInvalidStructure)
	}
	if parenDepth != 0 {
		return nil, fmt.Errorf("%w: %d unclosed branches", ErrInvalidStructure, parenDepth)
	}
	if len(openRings) != 0 {
		return nil, fmt.Errorf("%w: %d unpaired ring bonds", ErrInvalidStructure, len(openRings))
	}
	if mol.HeavyAtoms == 0 {
		return nil, fmt.Errorf("%w: no atoms", ErrInvalidStructure)
	}

	return mol, nil
}

// Valid reports whether a structure passes the sanity scan.
func Valid(structure string) bool {
	_, err := Parse(structure)
	return err == nil
}

func toggleRing(open map[string]bool, label string, mol *Molecule) {
	if open[label] {
		delete(open, label)
		mol.RingBonds++
	} else {
		open[label] = true
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
