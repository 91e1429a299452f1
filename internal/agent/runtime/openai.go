package runtime

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine drives OpenAI-compatible chat completion APIs. Messages and
// tool schemas are translated between the eino transcript types and the
// OpenAI wire format per request.
type OpenAIEngine struct {
	client *openai.Client
}

func NewOpenAIEngine(apiKey, baseURL string) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEngine{client: openai.NewClientWithConfig(cfg)}
}

func (e *OpenAIEngine) Generate(ctx context.Context, req EngineRequest) (*schema.Message, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages:    toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens != nil {
		apiReq.MaxTokens = *req.MaxTokens
	}

	apiTools, err := toOpenAITools(req.Tools)
	if err != nil {
		return nil, err
	}
	apiReq.Tools = apiTools

	resp, err := e.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func toOpenAIMessages(msgs []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := openai.ChatCompletionMessage{Content: m.Content}
		switch m.Role {
		case schema.System:
			cm.Role = openai.ChatMessageRoleSystem
		case schema.User:
			cm.Role = openai.ChatMessageRoleUser
		case schema.Assistant:
			cm.Role = openai.ChatMessageRoleAssistant
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		case schema.Tool:
			cm.Role = openai.ChatMessageRoleTool
			cm.ToolCallID = m.ToolCallID
		default:
			cm.Role = openai.ChatMessageRoleUser
		}
		out = append(out, cm)
	}
	return out
}

func toOpenAITools(infos []*schema.ToolInfo) ([]openai.Tool, error) {
	if len(infos) == 0 {
		return nil, nil
	}
	out := make([]openai.Tool, 0, len(infos))
	for _, info := range infos {
		var params any
		if info.ParamsOneOf != nil {
			sc, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("tool %s schema: %w", info.Name, err)
			}
			params = sc
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  params,
			},
		})
	}
	return out, nil
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) *schema.Message {
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

var _ ReasoningEngine = (*OpenAIEngine)(nil)
