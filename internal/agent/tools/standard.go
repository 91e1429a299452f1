package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/resistingdestiny/memedici/internal/agent/model"
)

// GenerationBackend produces image and video assets. The stub backend is
// used when no real generation service is configured.
type GenerationBackend interface {
	GenerateImage(ctx context.Context, req GenerationRequest) (model.AssetInfo, error)
	GenerateVideo(ctx context.Context, req GenerationRequest) (model.AssetInfo, error)
	Models(ctx context.Context) []ModelInfo
}

type GenerationRequest struct {
	AgentID string
	Prompt  string
	Model   string
	Seed    *int64
	Extra   map[string]any
}

type ModelInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Provider string `json:"provider"`
}

// generationResult is the JSON shape every standard creative tool returns.
// The runtime lifts the assets map out of tool results into the turn result.
type generationResult struct {
	Status  string                     `json:"status"`
	Message string                     `json:"message,omitempty"`
	Assets  map[string]model.AssetInfo `json:"assets,omitempty"`
	Models  []ModelInfo                `json:"models,omitempty"`
}

type generateImageInput struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Style  string `json:"style,omitempty"`
}

type generateVideoInput struct {
	Prompt   string `json:"prompt"`
	Model    string `json:"model,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type listModelsInput struct {
	Kind string `json:"kind,omitempty"`
}

func generateImageInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: "generate_image",
		Desc: "Create a new image artwork from a text prompt. Use this whenever you want to produce visual art. Returns the created asset.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"prompt": {
				Type:     "string",
				Desc:     "Full visual description of the artwork to create, in your own artistic voice.",
				Required: true,
			},
			"model": {
				Type: "string",
				Desc: "Optional generation model name. Leave empty for the default.",
			},
			"style": {
				Type: "string",
				Desc: "Optional style modifier appended to the prompt.",
			},
		}),
	}
}

func generateVideoInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: "generate_video",
		Desc: "Create a short video artwork from a text prompt. Returns the created asset.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"prompt": {
				Type:     "string",
				Desc:     "Full description of the video to create.",
				Required: true,
			},
			"model": {
				Type: "string",
				Desc: "Optional generation model name.",
			},
			"duration": {
				Type: "number",
				Desc: "Target duration in seconds (default 5).",
			},
		}),
	}
}

func listModelsInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: "list_models",
		Desc: "List the generation models available for creating images and videos.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"kind": {
				Type: "string",
				Desc: "Optional filter: image or video.",
			},
		}),
	}
}

// StandardDescriptors builds the built-in creative tool catalog over the
// given backend. The agent's seed is injected at bind time; it is not a
// model-visible parameter.
func StandardDescriptors(backend GenerationBackend) []Descriptor {
	return []Descriptor{
		&funcDescriptor{
			info: generateImageInfo(),
			bind: func(agent AgentContext) tool.InvokableTool {
				return utils.NewTool(generateImageInfo(), func(ctx context.Context, in *generateImageInput) (*generationResult, error) {
					if in.Prompt == "" {
						return nil, fmt.Errorf("prompt is required")
					}
					prompt := in.Prompt
					if in.Style != "" {
						prompt = prompt + ", " + in.Style
					}
					req := GenerationRequest{AgentID: agent.AgentID, Prompt: prompt, Model: in.Model}
					if seed, ok := agent.EffectiveSeed(); ok {
						req.Seed = &seed
					}
					asset, err := backend.GenerateImage(ctx, req)
					if err != nil {
						return nil, err
					}
					id := "artwork_" + uuid.NewString()
					return &generationResult{
						Status:  "success",
						Message: "image created",
						Assets:  map[string]model.AssetInfo{id: asset},
					}, nil
				})
			},
		},
		&funcDescriptor{
			info: generateVideoInfo(),
			bind: func(agent AgentContext) tool.InvokableTool {
				return utils.NewTool(generateVideoInfo(), func(ctx context.Context, in *generateVideoInput) (*generationResult, error) {
					if in.Prompt == "" {
						return nil, fmt.Errorf("prompt is required")
					}
					req := GenerationRequest{AgentID: agent.AgentID, Prompt: in.Prompt, Model: in.Model}
					if in.Duration > 0 {
						req.Extra = map[string]any{"duration": in.Duration}
					}
					if seed, ok := agent.EffectiveSeed(); ok {
						req.Seed = &seed
					}
					asset, err := backend.GenerateVideo(ctx, req)
					if err != nil {
						return nil, err
					}
					id := "artwork_" + uuid.NewString()
					return &generationResult{
						Status:  "success",
						Message: "video created",
						Assets:  map[string]model.AssetInfo{id: asset},
					}, nil
				})
			},
		},
		&funcDescriptor{
			info: listModelsInfo(),
			bind: func(agent AgentContext) tool.InvokableTool {
				return utils.NewTool(listModelsInfo(), func(ctx context.Context, in *listModelsInput) (*generationResult, error) {
					all := backend.Models(ctx)
					if in.Kind != "" {
						filtered := all[:0:0]
						for _, m := range all {
							if m.Kind == in.Kind {
								filtered = append(filtered, m)
							}
						}
						all = filtered
					}
					return &generationResult{Status: "success", Models: all}, nil
				})
			},
		},
	}
}

// StubBackend fabricates asset records without calling any external
// service. It keeps the creative loop functional in development and tests.
type StubBackend struct{}

func (StubBackend) GenerateImage(ctx context.Context, req GenerationRequest) (model.AssetInfo, error) {
	return stubAsset("image", req), nil
}

func (StubBackend) GenerateVideo(ctx context.Context, req GenerationRequest) (model.AssetInfo, error) {
	return stubAsset("video", req), nil
}

func (StubBackend) Models(ctx context.Context) []ModelInfo {
	return []ModelInfo{
		{Name: "flux-schnell", Kind: "image", Provider: "stub"},
		{Name: "flux-dev", Kind: "image", Provider: "stub"},
		{Name: "wan-video", Kind: "video", Provider: "stub"},
	}
}

func stubAsset(kind string, req GenerationRequest) model.AssetInfo {
	params := map[string]any{}
	if req.Seed != nil {
		params["seed"] = *req.Seed
	}
	for k, v := range req.Extra {
		params[k] = v
	}
	return model.AssetInfo{
		Type:       kind,
		URL:        fmt.Sprintf("https://assets.memedici.local/%s/%s", kind, uuid.NewString()),
		Prompt:     req.Prompt,
		Model:      req.Model,
		Parameters: params,
		CreatedAt:  time.Now().UTC(),
	}
}
