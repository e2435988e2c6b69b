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


// Package resolver turns free-form StilBAR input into compound structures.
//
// The Resolver type implements a multi-strategy lookup algorithm that tries,
// in a fixed priority order:
//   - Exact match against the stored code keys
//   - Dash-normalized match
//   - Partial match on bracketed linkage fragments
//   - 1-based position into the catalog's stable order
//   - Suffixed duplicate-code keys as a last resort
//   - A built-in table of bare monomer symbols
//
// Every result carries provenance metadata naming the strategy used and a
// confidence value, so callers can tell an exact hit from a partial one.
package resolver
