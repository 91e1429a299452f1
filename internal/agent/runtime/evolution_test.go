package runtime

import (
	"reflect"
	"testing"

	"github.com/resistingdestiny/memedici/internal/agent/model"
)

func TestFiredRules(t *testing.T) {
	standard := map[string]bool{
		"generate_image": true,
		"generate_video": true,
		"list_models":    true,
	}

	artwork := evolutionRule{model.InteractionArtworkCreation, "successful"}
	analysis := evolutionRule{model.InteractionCreativeAnalysis, "insightful"}
	custom := evolutionRule{model.InteractionCustomToolUsage, "creative_expansion"}

	tests := []struct {
		name      string
		toolsUsed []string
		want      []evolutionRule
	}{
		{"no tools fires nothing", nil, nil},
		{"image generation", []string{"generate_image"}, []evolutionRule{artwork}},
		{"video generation", []string{"generate_video"}, []evolutionRule{artwork}},
		{"custom create tool fires both", []string{"create_collage"}, []evolutionRule{artwork, custom}},
		{"analysis tool fires analysis and custom", []string{"analyze_palette"}, []evolutionRule{analysis, custom}},
		{"standard listing fires nothing", []string{"list_models"}, nil},
		{"custom non-creative tool", []string{"fetch_inspiration"}, []evolutionRule{custom}},
		{"artwork plus custom fires both", []string{"fetch_inspiration", "generate_image"}, []evolutionRule{artwork, custom}},
		{"creation outranks analysis", []string{"generate_image", "analyze_palette"}, []evolutionRule{artwork, custom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firedRules(tt.toolsUsed, standard)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("firedRules(%v) = %v, want %v", tt.toolsUsed, got, tt.want)
			}
		})
	}
}
