package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ID is the stable identifier for a compound record.
// It is derived from record content, not from table position, so it
// survives deletions of other rows.
type ID string

// identityLength is the number of hex digits kept from the digest.
// Eight characters keep identities short enough to show in a UI while
// making collisions negligible at catalog scale.
const identityLength = 8

// LongDash is the en dash used by the StilBAR notation for linkage spans.
// User input frequently arrives with plain ASCII hyphens instead.
const LongDash = "–"

// CleanCode strips surrounding whitespace and internal spaces without
// touching dashes. Lookup uses it to try a code exactly as typed before
// dash normalization.
func CleanCode(code string) string {
	code = strings.TrimSpace(code)
	return strings.ReplaceAll(code, " ", "")
}

// NormalizeCode canonicalizes a StilBAR code: surrounding whitespace is
// trimmed, internal spaces are removed, and every ASCII hyphen becomes the
// notation's en dash. Normalizing an already-normalized code is a no-op.
func NormalizeCode(code string) string {
	return strings.ReplaceAll(CleanCode(code), "-", LongDash)
}

// IdentityFromContent derives a deterministic ID from a StilBAR code and
// compound name. The normalized code (or the trimmed name, when the code is
// empty) is joined to the trimmed name with a "|" separator, and the ID is
// the first 8 hex characters of the SHA-256 digest of that string.
// Identical content always produces the identical ID.
func IdentityFromContent(code, name string) ID {
	key := NormalizeCode(code)
	if key == "" {
		key = strings.TrimSpace(name)
	}
	sum := sha256.Sum256([]byte(key + "|" + strings.TrimSpace(name)))
	return ID(hex.EncodeToString(sum[:])[:identityLength])
}

// Compound represents one catalog entry: a stilbenoid structure addressed
// by its StilBAR code.
type Compound struct {
	Identity   ID
	Name       string
	Code       string // StilBAR code as stored; may be empty
	Structure  string // SMILES string; never empty for a valid record
	Num        int    // legacy sequence number from the table, 0 when unknown
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// NormalizedCode returns the compound's code in canonical form.
func (c *Compound) NormalizedCode() string {
	return NormalizeCode(c.Code)
}
