package model

import "time"

// Rarity grades a studio inventory item.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Condition describes the physical state of a studio inventory item.
type Condition string

const (
	ConditionPoor      Condition = "poor"
	ConditionFair      Condition = "fair"
	ConditionGood      Condition = "good"
	ConditionExcellent Condition = "excellent"
	ConditionPristine  Condition = "pristine"
)

// StudioItem is one piece of a studio's inventory. Items are immutable once
// embedded except via whole-studio update.
type StudioItem struct {
	Name            string            `json:"name"`
	Category        string            `json:"category,omitempty"`
	Description     string            `json:"description,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
	Rarity          Rarity            `json:"rarity,omitempty"`
	Condition       Condition         `json:"condition,omitempty"`
	AcquiredAt      *time.Time        `json:"acquired_at,omitempty"`
	AcquisitionCost float64           `json:"acquisition_cost,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// Studio is a shared creative-context record referenced by agents via
// studio_id. Read-shared by any number of agents, never owned exclusively.
type Studio struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Theme       string       `json:"theme"`
	ArtStyle    string       `json:"art_style"`
	Items       []StudioItem `json:"items,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DefaultStudio is the creative context substituted when an agent has no
// studio or its studio_id does not resolve. Prompt compilation never fails
// due to a missing studio.
func DefaultStudio() *Studio {
	return &Studio{
		ID:          "default",
		Name:        "Untitled Studio",
		Description: "A creative space for artistic expression",
		Theme:       "abstract",
		ArtStyle:    "digital",
	}
}
