// Package models defines the core data structures for plant records,
// gallery items and user profiles.
package models

import "time"

// Defaults substituted for missing fields of an identification result.
const (
	DefaultName             = "Unknown Plant"
	DefaultScientificName   = "N/A"
	DefaultDescription      = "No description available"
	DefaultCareInstructions = "No care instructions found"
)

// AdditionalDetails holds the optional facts about a plant. Any of them may be empty.
type AdditionalDetails struct {
	NativeTo    string `json:"nativeTo,omitempty"`
	SunExposure string `json:"sunExposure,omitempty"`
	WaterNeeds  string `json:"waterNeeds,omitempty"`
	SoilType    string `json:"soilType,omitempty"`
	GrowthRate  string `json:"growthRate,omitempty"`
	BloomSeason string `json:"bloomSeason,omitempty"`
}

// PlantInfo is the normalized identification result. All top-level fields
// are always populated.
type PlantInfo struct {
	// Name is the common name of the plant.
	Name string `json:"name"`
	// ScientificName is the botanical name.
	ScientificName string `json:"scientificName"`
	// Description is a short free-text summary.
	Description string `json:"description"`
	// CareInstructions holds key care tips.
	CareInstructions string `json:"careInstructions"`
	// AdditionalDetails holds optional facts; empty values are not rendered.
	AdditionalDetails AdditionalDetails `json:"additionalDetails"`
}

// Normalize returns p with the defaults substituted for empty top-level
// fields.
func (p PlantInfo) Normalize() PlantInfo {
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.ScientificName == "" {
		p.ScientificName = DefaultScientificName
	}
	if p.Description == "" {
		p.Description = DefaultDescription
	}
	if p.CareInstructions == "" {
		p.CareInstructions = DefaultCareInstructions
	}
	return p
}

// Detail is a single rendered entry of AdditionalDetails.
type Detail struct {
	Key    string
	Label  string
	Symbol string
	Value  string
}

// Details returns the non-empty additional details in a fixed order.
func (p PlantInfo) Details() []Detail {
	d := p.AdditionalDetails
	all := []Detail{
		{Key: "nativeTo", Label: "native to", Symbol: "🌍", Value: d.NativeTo},
		{Key: "sunExposure", Label: "sun exposure", Symbol: "☀️", Value: d.SunExposure},
		{Key: "waterNeeds", Label: "water needs", Symbol: "💧", Value: d.WaterNeeds},
		{Key: "soilType", Label: "soil type", Symbol: "🪴", Value: d.SoilType},
		{Key: "growthRate", Label: "growth rate", Symbol: "📏", Value: d.GrowthRate},
		{Key: "bloomSeason", Label: "bloom season", Symbol: "🌸", Value: d.BloomSeason},
	}
	out := all[:0]
	for _, e := range all {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out
}

// SameSpecies reports whether two records collide under the gallery
// uniqueness rule (same name and scientific name).
func (p PlantInfo) SameSpecies(o PlantInfo) bool {
	return p.Name == o.Name && p.ScientificName == o.ScientificName
}

// GalleryItem is a saved identification owned by one user.
type GalleryItem struct {
	// ID is assigned on creation and never changes.
	ID string `json:"id"`
	// Image is the data URL of the photo.
	Image string `json:"image"`
	// PlantInfo is the identification result.
	PlantInfo PlantInfo `json:"plantInfo"`
	// Timestamp is assigned by the store at write time.
	Timestamp time.Time `json:"timestamp"`
}

// Profile holds per-user display preferences.
type Profile struct {
	UserID    string    `json:"userId"`
	Avatar    string    `json:"avatar"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultAvatar is used until the user picks one.
const DefaultAvatar = "🌱"

// AvatarOptions is the fixed set of selectable avatar symbols.
var AvatarOptions = []string{
	"🐱", "🐶", "🦊", "🐰", "🐼", "🦁", "🐨", "🐸",
	"🦉", "🦋", "🐢", "🦒", "🐘", "🦔", "🐝", "🐞",
	"🌱", "🌿", "🌵", "🌴", "🌳", "🍀", "🌸", "🌺",
	"🌻", "🌹", "🌷", "🌼", "🍄", "🎋", "🌾", "🪴",
}

// ValidAvatar reports whether s is one of AvatarOptions.
func ValidAvatar(s string) bool {
	for _, a := range AvatarOptions {
		if a == s {
			return true
		}
	}
	return false
}
