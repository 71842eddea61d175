package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDetails(t *testing.T) {
	p := PlantInfo{AdditionalDetails: AdditionalDetails{
		BloomSeason: "Spring",
		NativeTo:    "Andes",
		WaterNeeds:  "Moderate",
	}}

	want := []Detail{
		{Key: "nativeTo", Label: "native to", Symbol: "🌍", Value: "Andes"},
		{Key: "waterNeeds", Label: "water needs", Symbol: "💧", Value: "Moderate"},
		{Key: "bloomSeason", Label: "bloom season", Symbol: "🌸", Value: "Spring"},
	}
	if diff := cmp.Diff(want, p.Details()); diff != "" {
		t.Errorf("Details() mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, PlantInfo{}.Details())
}

func TestSameSpecies(t *testing.T) {
	a := PlantInfo{Name: "Rose", ScientificName: "Rosa", Description: "red"}

	assert.True(t, a.SameSpecies(PlantInfo{Name: "Rose", ScientificName: "Rosa", Description: "white"}))
	assert.False(t, a.SameSpecies(PlantInfo{Name: "Rose", ScientificName: "Rosa rubiginosa"}))
	assert.False(t, a.SameSpecies(PlantInfo{Name: "Wild rose", ScientificName: "Rosa"}))
}

func TestValidAvatar(t *testing.T) {
	assert.Len(t, AvatarOptions, 32)
	assert.True(t, ValidAvatar(DefaultAvatar))
	assert.True(t, ValidAvatar("🦊"))
	assert.False(t, ValidAvatar(""))
	assert.False(t, ValidAvatar("🚀"))
}

func TestNormalize(t *testing.T) {
	got := PlantInfo{
		Description:       "climber",
		AdditionalDetails: AdditionalDetails{SoilType: "loam"},
	}.Normalize()

	want := PlantInfo{
		Name:              DefaultName,
		ScientificName:    DefaultScientificName,
		Description:       "climber",
		CareInstructions:  DefaultCareInstructions,
		AdditionalDetails: AdditionalDetails{SoilType: "loam"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, want.Normalize())
}
