package model

import "encoding/json"

// legacyFields carries the pre-rework schema names still present in older
// agent documents and bulk-import files.
type legacyFields struct {
	PersonaName        string   `json:"persona_name"`
	PersonaBackground  string   `json:"persona_background"`
	PersonalityTraits  []string `json:"personality_traits"`
	ArtisticInfluences []string `json:"artistic_influences"`
	PreferredMediums   []string `json:"preferred_mediums"`
	AgentType          string   `json:"agent_type"`
}

// MigrateAgentDocument decodes a raw agent document, back-filling current
// schema fields from their legacy equivalents when absent. Partial and
// legacy records load with defaults instead of failing.
func MigrateAgentDocument(raw []byte) (AgentConfig, error) {
	cfg := NewAgentConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AgentConfig{}, err
	}

	var legacy legacyFields
	if err := json.Unmarshal(raw, &legacy); err != nil {
		// current-schema decode already succeeded; legacy fields are optional
		legacy = legacyFields{}
	}

	// display_name <- persona_name, origin_story <- persona_background, etc.
	if cfg.DisplayName == "" || cfg.DisplayName == "Creative Soul" {
		if legacy.PersonaName != "" {
			cfg.DisplayName = legacy.PersonaName
		}
	}
	if legacy.PersonaBackground != "" && !explicitField(raw, "origin_story") {
		cfg.OriginStory = legacy.PersonaBackground
	}
	if len(legacy.PersonalityTraits) > 0 && !explicitField(raw, "core_traits") {
		cfg.CoreTraits = legacy.PersonalityTraits
	}
	if len(legacy.ArtisticInfluences) > 0 && !explicitField(raw, "influences") {
		cfg.Influences = legacy.ArtisticInfluences
	}
	if len(legacy.PreferredMediums) > 0 && !explicitField(raw, "primary_mediums") {
		cfg.PrimaryMediums = legacy.PreferredMediums
	}
	if legacy.AgentType != "" && !explicitField(raw, "archetype") {
		cfg.Archetype = legacy.AgentType
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// explicitField reports whether the raw document sets the given key itself,
// in which case the legacy fallback must not override it.
func explicitField(raw []byte, key string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	v, ok := m[key]
	if !ok {
		return false
	}
	return string(v) != "null"
}
