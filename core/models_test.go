package core

import (
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "hyphens become en dashes",
			code: "H-77-H",
			want: "H–77–H",
		},
		{
			name: "surrounding whitespace trimmed",
			code: "  T|–04r.15r–|H  ",
			want: "T|–04r.15r–|H",
		},
		{
			name: "internal spaces removed",
			code: "H – 77 – H",
			want: "H–77–H",
		},
		{
			name: "empty input",
			code: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.code); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestNormalizeCode_Idempotent(t *testing.T) {
	codes := []string{"H-77-H", "T|–04r.15r–|H", " H = 4s7 ", "H"}
	for _, code := range codes {
		once := NormalizeCode(code)
		twice := NormalizeCode(once)
		if once != twice {
			t.Errorf("NormalizeCode not idempotent for %q: %q vs %q", code, once, twice)
		}
	}
}

func TestIdentityFromContent(t *testing.T) {
	id1 := IdentityFromContent("H–77–H", "dimer")
	id2 := IdentityFromContent("H–77–H", "dimer")

	if id1 != id2 {
		t.Errorf("IdentityFromContent produced different IDs for same content: %s vs %s", id1, id2)
	}
	if len(id1) != identityLength {
		t.Errorf("IdentityFromContent length = %d, want %d", len(id1), identityLength)
	}
}

func TestIdentityFromContent_HyphenVariantsAgree(t *testing.T) {
	// A user typing hyphens and a table storing en dashes must land on the
	// same identity.
	plain := IdentityFromContent("H-77-H", "dimer")
	dashed := IdentityFromContent("H–77–H", "dimer")

	if plain != dashed {
		t.Errorf("hyphen and en dash forms hash differently: %s vs %s", plain, dashed)
	}
}

func TestIdentityFromContent_Different(t *testing.T) {
	id1 := IdentityFromContent("H", "monomer A")
	id2 := IdentityFromContent("H", "monomer B")

	if id1 == id2 {
		t.Errorf("IdentityFromContent produced same ID for different names")
	}
}

func TestIdentityFromContent_EmptyCodeUsesName(t *testing.T) {
	withName := IdentityFromContent("", "Wolfender2020_StilbeneAntimicrobials_cpd4")
	other := IdentityFromContent("", "Wolfender2020_StilbeneAntimicrobials_cpd9")

	if withName == other {
		t.Errorf("nameless-code compounds with different names collided")
	}
}

func TestCompound_NormalizedCode(t *testing.T) {
	c := &Compound{Code: "H-77-H"}
	if got := c.NormalizedCode(); got != "H–77–H" {
		t.Errorf("NormalizedCode() = %q", got)
	}
}
