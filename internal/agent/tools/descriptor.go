package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Descriptor describes a tool in the catalog without binding it to any
// particular agent. Bind produces the invokable instance with the agent's
// identity and seed closed over; the same descriptor can be bound for many
// agents concurrently.
type Descriptor interface {
	Name() string
	Info(ctx context.Context) (*schema.ToolInfo, error)
	Bind(agent AgentContext) tool.InvokableTool
}

// funcDescriptor adapts a bind function into a Descriptor.
type funcDescriptor struct {
	info *schema.ToolInfo
	bind func(agent AgentContext) tool.InvokableTool
}

func (d *funcDescriptor) Name() string { return d.info.Name }

func (d *funcDescriptor) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return d.info, nil
}

func (d *funcDescriptor) Bind(agent AgentContext) tool.InvokableTool {
	return d.bind(agent)
}
