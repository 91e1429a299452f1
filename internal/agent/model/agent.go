package model

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	errx "github.com/resistingdestiny/memedici/internal/core/error"
)

// Interaction types recognised by the evolution engine.
const (
	InteractionArtworkCreation  = "artwork_creation"
	InteractionCreativeAnalysis = "creative_analysis"
	InteractionCustomToolUsage  = "custom_tool_usage"
)

// TraitExperienced is gained once when artworks_created first reaches a
// positive multiple of five.
const TraitExperienced = "experienced"

const (
	maxDisplayNameLen = 60
	maxCoreTraits     = 8
	maxArtworkIDs     = 50
	maxTemperature    = 2.0
)

// DefaultToolsEnabled is the baseline creative tool set for new agents.
var DefaultToolsEnabled = []string{"generate_image", "generate_video", "list_models"}

// AuthConfig describes how a custom tool authenticates against its API.
// Type is one of "none", "bearer", "api_key", "basic".
type AuthConfig struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// APIConfig is the HTTP descriptor backing a custom tool.
type APIConfig struct {
	Endpoint       string     `json:"endpoint"`
	Method         string     `json:"method"`
	ContentType    string     `json:"content_type,omitempty"`
	Auth           AuthConfig `json:"auth,omitempty"`
	ResponseFormat string     `json:"response_format,omitempty"`
}

// CustomToolSpec is a user-defined tool embedded in an agent configuration.
type CustomToolSpec struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	APIConfig   APIConfig `json:"api_config"`
}

// EvolutionEntry is one record in the append-only persona evolution log.
type EvolutionEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	InteractionType  string    `json:"interaction_type"`
	Outcome          string    `json:"outcome"`
	InteractionCount int       `json:"interaction_count"`
}

// AgentConfig is the versioned configuration document for one creative agent.
// The ID is immutable after creation; all mutation is in-place field update.
type AgentConfig struct {
	ID string `json:"id"`

	// Identity
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Archetype   string   `json:"archetype"`
	CoreTraits  []string `json:"core_traits"`
	OriginStory string   `json:"origin_story"`

	// Creative specification
	PrimaryMediums  []string `json:"primary_mediums"`
	SignatureMotifs []string `json:"signature_motifs"`
	Influences      []string `json:"influences"`
	ColourPalette   []string `json:"colour_palette"`
	PromptFormula   string   `json:"prompt_formula,omitempty"`
	VoiceStyle      string   `json:"voice_style,omitempty"`
	CreationRate    int      `json:"creation_rate"`
	CollabAffinity  []string `json:"collab_affinity"`

	// Studio association (resolved through the studio registry)
	StudioID string `json:"studio_id,omitempty"`

	// Technical configuration
	ModelName          string           `json:"model_name"`
	Temperature        float32          `json:"temperature"`
	MaxTokens          *int             `json:"max_tokens,omitempty"`
	ToolsEnabled       []string         `json:"tools_enabled"`
	CustomTools        []CustomToolSpec `json:"custom_tools,omitempty"`
	MemoryEnabled      bool             `json:"memory_enabled"`
	StructuredOutput   bool             `json:"structured_output"`
	CustomInstructions string           `json:"custom_instructions,omitempty"`

	// Evolution state; counters only ever increase.
	InteractionCount        int              `json:"interaction_count"`
	ArtworksCreated         int              `json:"artworks_created"`
	ArtworkIDs              []string         `json:"artwork_ids,omitempty"`
	PersonaEvolutionHistory []EvolutionEntry `json:"persona_evolution_history,omitempty"`

	// Optional deterministic seed for reproducible generation calls.
	BlockchainSeed *int64 `json:"blockchain_seed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAgentConfig returns a configuration pre-populated with documented
// defaults. Unmarshal incoming JSON over this value so absent optional
// fields keep their defaults (memory_enabled in particular).
func NewAgentConfig() AgentConfig {
	now := time.Now().UTC()
	return AgentConfig{
		DisplayName:    "Creative Soul",
		Archetype:      "creative_artist",
		CoreTraits:     []string{"curious", "experimental", "intuitive"},
		OriginStory:    "An emerging digital artist exploring the intersection of technology and creativity",
		PrimaryMediums: []string{"digital", "generative"},
		CreationRate:   4,
		ModelName:      "gpt-3.5-turbo",
		Temperature:    0.7,
		ToolsEnabled:   slices.Clone(DefaultToolsEnabled),
		MemoryEnabled:  true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ApplyDefaults back-fills zero-valued optional fields with documented
// defaults. Safe to call on partially populated configurations.
func (c *AgentConfig) ApplyDefaults() {
	if c.DisplayName == "" {
		c.DisplayName = "Creative Soul"
	}
	if c.Archetype == "" {
		c.Archetype = "creative_artist"
	}
	if c.ModelName == "" {
		c.ModelName = "gpt-3.5-turbo"
	}
	if c.ToolsEnabled == nil {
		c.ToolsEnabled = slices.Clone(DefaultToolsEnabled)
	}
	if c.CreationRate == 0 {
		c.CreationRate = 4
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
}

// Validate enforces field types and ranges. It returns an error carrying a
// 400 status; callers surface it as a rejected create/update.
func (c *AgentConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errx.Validation("agent id is required")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errx.Validation("display_name is required")
	}
	if utf8.RuneCountInString(c.DisplayName) > maxDisplayNameLen {
		return errx.Validation("display_name exceeds %d characters", maxDisplayNameLen)
	}
	if c.Temperature < 0 || c.Temperature > maxTemperature {
		return errx.Validation("temperature %v out of range [0, %v]", c.Temperature, maxTemperature)
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return errx.Validation("max_tokens must be positive")
	}
	if c.CreationRate < 0 {
		return errx.Validation("creation_rate must be non-negative")
	}
	for _, ct := range c.CustomTools {
		if strings.TrimSpace(ct.Name) == "" {
			return errx.Validation("custom tool name is required")
		}
	}
	return nil
}

// Evolve records one interaction outcome on the configuration in place.
// interaction_count always increments; artworks_created only on
// artwork_creation. Callers guarantee at-most-once invocation per genuine
// interaction and own persistence.
func (c *AgentConfig) Evolve(interactionType, outcome string) {
	c.InteractionCount++
	c.PersonaEvolutionHistory = append(c.PersonaEvolutionHistory, EvolutionEntry{
		Timestamp:        time.Now().UTC(),
		InteractionType:  interactionType,
		Outcome:          outcome,
		InteractionCount: c.InteractionCount,
	})

	if interactionType == InteractionArtworkCreation {
		c.ArtworksCreated++
		if c.ArtworksCreated%5 == 0 &&
			len(c.CoreTraits) < maxCoreTraits &&
			!slices.Contains(c.CoreTraits, TraitExperienced) {
			c.CoreTraits = append(c.CoreTraits, TraitExperienced)
		}
	}

	c.UpdatedAt = time.Now().UTC()
}

// AppendArtwork records a newly created artwork id, newest last, keeping
// the list bounded.
func (c *AgentConfig) AppendArtwork(artworkID string) {
	c.ArtworkIDs = append(c.ArtworkIDs, artworkID)
	if len(c.ArtworkIDs) > maxArtworkIDs {
		c.ArtworkIDs = c.ArtworkIDs[len(c.ArtworkIDs)-maxArtworkIDs:]
	}
	c.UpdatedAt = time.Now().UTC()
}
