package model

import (
	"encoding/json"
	"strings"
	"time"
)

// AssetInfo describes one artifact produced by a tool call during a turn.
type AssetInfo struct {
	Type       string         `json:"type"`
	URL        string         `json:"url,omitempty"`
	Path       string         `json:"path,omitempty"`
	Prompt     string         `json:"prompt,omitempty"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TurnResult is the structured outcome of one conversation turn. The
// runtime always returns one; failures never propagate past its boundary.
type TurnResult struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"response,omitempty"`
	Assets          map[string]AssetInfo `json:"assets"`
	ToolsUsed       []string             `json:"tools_used,omitempty"`
	ArtworksCreated int                  `json:"artworks_created"`
	PersonaEvolved  bool                 `json:"persona_evolved"`
	AgentID         string               `json:"agent_id"`
	ThreadID        string               `json:"thread_id"`
	Error           string               `json:"error,omitempty"`
}

// FinalAnswer is the canonical shape of a reasoner's closing output.
type FinalAnswer struct {
	Message string               `json:"message"`
	Assets  map[string]AssetInfo `json:"assets"`
}

// CanonicalizeFinal normalises the reasoner's final output into FinalAnswer.
// A JSON object matching the schema is decoded; anything else, including a
// failed parse, is wrapped verbatim as a plain-text answer with no assets.
func CanonicalizeFinal(content string) FinalAnswer {
	trimmed := strings.TrimSpace(content)
	candidate := stripCodeFence(trimmed)

	if strings.HasPrefix(candidate, "{") {
		var fa FinalAnswer
		if err := json.Unmarshal([]byte(candidate), &fa); err == nil && fa.Message != "" {
			if fa.Assets == nil {
				fa.Assets = map[string]AssetInfo{}
			}
			return fa
		}
	}

	return FinalAnswer{Message: trimmed, Assets: map[string]AssetInfo{}}
}

// stripCodeFence removes a surrounding markdown code fence, which models
// frequently wrap JSON answers in.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
