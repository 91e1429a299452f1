package runtime

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// GeminiEngine drives Google Gemini models. The genai client is shared;
// a chat model is constructed per request because model name and sampling
// parameters come from the agent configuration.
type GeminiEngine struct {
	client *genai.Client
}

func NewGeminiEngine(ctx context.Context, apiKey, baseURL string) (*GeminiEngine, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return &GeminiEngine{client: client}, nil
}

func (e *GeminiEngine) Generate(ctx context.Context, req EngineRequest) (*schema.Message, error) {
	cfg := &gemini.Config{
		Client:      e.client,
		Model:       req.Model,
		Temperature: &req.Temperature,
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = req.MaxTokens
	}

	cm, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	if len(req.Tools) > 0 {
		withTools, err := cm.WithTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		return withTools.Generate(ctx, req.Messages)
	}
	return cm.Generate(ctx, req.Messages)
}

var _ ReasoningEngine = (*GeminiEngine)(nil)
