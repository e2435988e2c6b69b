package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stilbar/core"
)

func TestCompoundSerialization_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.Compound{
		Identity:   "2cb53c72",
		Name:       "trans-δ-Viniferin",
		Code:       "T|–04r.15r–|H",
		Structure:  "OC(C=C1)=CC=C1[C@H](O2)[C@H](C3=CC(O)=CC(O)=C3)C4=C2C=CC(/C=C/C5=CC(O)=CC(O)=C5)=C4",
		Num:        8,
		InsertedAt: now,
		UpdatedAt:  now,
	}

	data := MarshalCompound(original)
	restored, err := UnmarshalCompound(data)
	require.NoError(t, err)

	assert.Equal(t, original.Identity, restored.Identity)
	assert.Equal(t, original.Name, restored.Name)
	assert.Equal(t, original.Code, restored.Code)
	assert.Equal(t, original.Structure, restored.Structure)
	assert.Equal(t, original.Num, restored.Num)
	assert.True(t, original.InsertedAt.Equal(restored.InsertedAt))
	assert.True(t, original.UpdatedAt.Equal(restored.UpdatedAt))
}

func TestCompoundSerialization_EmptyFields(t *testing.T) {
	original := &core.Compound{
		Identity:  "44bd7ae6",
		Name:      "Wolfender2020_StilbeneAntimicrobials_cpd4",
		Structure: "OC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1",
	}

	data := MarshalCompound(original)
	restored, err := UnmarshalCompound(data)
	require.NoError(t, err)

	assert.Equal(t, original.Identity, restored.Identity)
	assert.Empty(t, restored.Code)
	assert.Equal(t, original.Structure, restored.Structure)
}

func TestUnmarshalCompound_Truncated(t *testing.T) {
	original := &core.Compound{
		Identity:  "2cb53c72",
		Name:      "Pallidol",
		Code:      "H≡4r7.5r5r.74r≡H",
		Structure: "OC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1",
	}

	data := MarshalCompound(original)
	_, err := UnmarshalCompound(data[:len(data)/2])
	assert.Error(t, err)
}
