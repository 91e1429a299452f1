package runtime

import (
	"strings"

	"github.com/resistingdestiny/memedici/internal/agent/model"
)

// evolutionRule is one persona evolution signal fired by a turn.
type evolutionRule struct {
	interactionType string
	outcome         string
}

// firedRules maps the tools used in a turn to the evolution signals it
// fires. Artwork creation and creative analysis are mutually exclusive,
// creation winning; the custom-tool rule fires independently of either,
// so a turn using an artwork tool and a custom tool records two
// evolutions. A turn with no tool calls fires nothing and leaves the
// persona untouched.
func firedRules(toolsUsed []string, standard map[string]bool) []evolutionRule {
	if len(toolsUsed) == 0 {
		return nil
	}

	var sawArtwork, sawAnalysis, sawCustom bool
	for _, name := range toolsUsed {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "generate") || strings.Contains(lower, "create") || strings.Contains(lower, "artwork") {
			sawArtwork = true
		} else if strings.Contains(lower, "analy") {
			sawAnalysis = true
		}
		if !standard[name] {
			sawCustom = true
		}
	}

	var rules []evolutionRule
	switch {
	case sawArtwork:
		rules = append(rules, evolutionRule{model.InteractionArtworkCreation, "successful"})
	case sawAnalysis:
		rules = append(rules, evolutionRule{model.InteractionCreativeAnalysis, "insightful"})
	}
	if sawCustom {
		rules = append(rules, evolutionRule{model.InteractionCustomToolUsage, "creative_expansion"})
	}
	return rules
}
