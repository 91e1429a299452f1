package runtime

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// EngineRequest is one reasoning step: the full message transcript so far
// plus the tool surface the model may call.
type EngineRequest struct {
	Model       string
	Temperature float32
	MaxTokens   *int
	Messages    []*schema.Message
	Tools       []*schema.ToolInfo
}

// ReasoningEngine produces the next assistant message. An implementation
// wraps one LLM provider; the runtime is provider-agnostic.
type ReasoningEngine interface {
	Generate(ctx context.Context, req EngineRequest) (*schema.Message, error)
}
