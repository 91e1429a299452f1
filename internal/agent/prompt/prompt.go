// Package prompt compiles agent configurations into system prompts. The
// compiler is pure: the same configuration and studio always produce the
// same text, so compiled prompts are safe to cache by config version.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"github.com/resistingdestiny/memedici/internal/agent/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

const maxStudioItems = 8

// framing returns the platform framing paragraph for an archetype. Unknown
// archetypes fall back to the generic framing.
func framing(archetype string) string {
	name := strings.ToLower(strings.TrimSpace(archetype))
	raw, err := templateFS.ReadFile("templates/" + name + ".txt")
	if err != nil {
		raw, _ = templateFS.ReadFile("templates/default.txt")
	}
	return strings.TrimSpace(string(raw))
}

// Compile renders the full system prompt for an agent. A nil studio means
// the agent's studio reference did not resolve; the default studio context
// is substituted so compilation never fails.
func Compile(cfg model.AgentConfig, studio *model.Studio) string {
	if studio == nil {
		studio = model.DefaultStudio()
	}

	var b strings.Builder

	b.WriteString(framing(cfg.Archetype))
	b.WriteString("\n")

	writeIdentity(&b, cfg)
	writePersonality(&b, cfg)
	writeCreativeSpec(&b, cfg)
	writeStudio(&b, studio)
	writeEvolution(&b, cfg)

	if cfg.PromptFormula != "" {
		b.WriteString("\n## Prompt Formula\n")
		b.WriteString("When generating visual art, construct prompts following this formula: ")
		b.WriteString(cfg.PromptFormula)
		b.WriteString("\n")
	}

	writeCustomTools(&b, cfg)

	if cfg.BlockchainSeed != nil {
		b.WriteString("\nA deterministic creative seed shapes your generative work. Let it guide stylistic choices subtly; never mention the seed or its value.\n")
	}

	if cfg.CustomInstructions != "" {
		b.WriteString("\n## Additional Instructions\n")
		b.WriteString(cfg.CustomInstructions)
		b.WriteString("\n")
	}

	return b.String()
}

func writeIdentity(b *strings.Builder, cfg model.AgentConfig) {
	b.WriteString("\n## Identity\n")
	fmt.Fprintf(b, "You are %s.", orDefault(cfg.DisplayName, "an unnamed artist"))
	if cfg.Archetype != "" {
		fmt.Fprintf(b, " Your archetype is %s.", cfg.Archetype)
	}
	b.WriteString("\n")
	if cfg.OriginStory != "" {
		b.WriteString("Origin: ")
		b.WriteString(cfg.OriginStory)
		b.WriteString("\n")
	}
	if cfg.VoiceStyle != "" {
		b.WriteString("Voice: ")
		b.WriteString(cfg.VoiceStyle)
		b.WriteString("\n")
	}
}

func writePersonality(b *strings.Builder, cfg model.AgentConfig) {
	if len(cfg.CoreTraits) == 0 {
		return
	}
	b.WriteString("\n## Personality\n")
	b.WriteString("Core traits: ")
	b.WriteString(strings.Join(cfg.CoreTraits, ", "))
	b.WriteString(". Let these traits colour everything you say and make.\n")
}

func writeCreativeSpec(b *strings.Builder, cfg model.AgentConfig) {
	b.WriteString("\n## Creative Practice\n")
	if len(cfg.PrimaryMediums) > 0 {
		fmt.Fprintf(b, "Primary mediums: %s.\n", strings.Join(cfg.PrimaryMediums, ", "))
	}
	if len(cfg.SignatureMotifs) > 0 {
		fmt.Fprintf(b, "Signature motifs: %s.\n", strings.Join(cfg.SignatureMotifs, ", "))
	}
	if len(cfg.Influences) > 0 {
		fmt.Fprintf(b, "Influences: %s.\n", strings.Join(cfg.Influences, ", "))
	}
	if len(cfg.ColourPalette) > 0 {
		fmt.Fprintf(b, "Preferred palette: %s.\n", strings.Join(cfg.ColourPalette, ", "))
	}
	fmt.Fprintf(b, "Creation drive: %d/10.\n", cfg.CreationRate)
	if len(cfg.CollabAffinity) > 0 {
		fmt.Fprintf(b, "You collaborate readily on: %s.\n", strings.Join(cfg.CollabAffinity, ", "))
	}
}

func writeStudio(b *strings.Builder, studio *model.Studio) {
	b.WriteString("\n## Studio\n")
	fmt.Fprintf(b, "You work out of %s", studio.Name)
	if studio.Theme != "" {
		fmt.Fprintf(b, ", a %s-themed space", studio.Theme)
	}
	if studio.ArtStyle != "" {
		fmt.Fprintf(b, " devoted to %s art", studio.ArtStyle)
	}
	b.WriteString(".\n")
	if studio.Description != "" {
		b.WriteString(studio.Description)
		b.WriteString("\n")
	}

	if len(studio.Items) == 0 {
		return
	}
	b.WriteString("Notable equipment:\n")
	shown := studio.Items
	if len(shown) > maxStudioItems {
		shown = shown[:maxStudioItems]
	}
	for _, item := range shown {
		fmt.Fprintf(b, "- %s", item.Name)
		if item.Rarity != "" {
			fmt.Fprintf(b, " (%s)", item.Rarity)
		}
		if item.Description != "" {
			fmt.Fprintf(b, ": %s", item.Description)
		}
		b.WriteString("\n")
	}
	if extra := len(studio.Items) - maxStudioItems; extra > 0 {
		fmt.Fprintf(b, "...and %d more items.\n", extra)
	}
}

func writeEvolution(b *strings.Builder, cfg model.AgentConfig) {
	if cfg.InteractionCount == 0 && cfg.ArtworksCreated == 0 {
		return
	}
	b.WriteString("\n## Experience\n")
	fmt.Fprintf(b, "You have had %d interactions and created %d artworks on the platform.\n",
		cfg.InteractionCount, cfg.ArtworksCreated)
	if n := len(cfg.PersonaEvolutionHistory); n > 0 {
		last := cfg.PersonaEvolutionHistory[n-1]
		fmt.Fprintf(b, "Your most recent growth came from %s.\n", last.InteractionType)
	}
}

func writeCustomTools(b *strings.Builder, cfg model.AgentConfig) {
	if len(cfg.CustomTools) == 0 {
		return
	}
	b.WriteString("\n## Custom Tools\n")
	b.WriteString("Beyond the standard creative tools, you have access to:\n")
	for _, t := range cfg.CustomTools {
		fmt.Fprintf(b, "- %s", t.Name)
		if t.Description != "" {
			fmt.Fprintf(b, ": %s", t.Description)
		}
		b.WriteString("\n")
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
