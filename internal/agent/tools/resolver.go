package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	errx "github.com/resistingdestiny/memedici/internal/core/error"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// ToolSet is the bound tool surface for one agent: the infos advertised to
// the reasoner and the invokable instances keyed by name.
type ToolSet struct {
	Infos  []*schema.ToolInfo
	ByName map[string]tool.InvokableTool
}

func (ts ToolSet) Empty() bool { return len(ts.Infos) == 0 }

// Resolver assembles an agent's tool set from the standard catalog and its
// custom tool definitions.
type Resolver struct {
	standard []Descriptor
	custom   *CustomToolManager
}

func NewResolver(backend GenerationBackend, custom *CustomToolManager) *Resolver {
	return &Resolver{
		standard: StandardDescriptors(backend),
		custom:   custom,
	}
}

// Resolve binds the agent's enabled tools. Standard tools are included only
// when named in tools_enabled; custom tools are enabled by their presence in
// the configuration. On a name collision the standard tool wins. A tool
// whose schema cannot be produced is skipped with a warning rather than
// failing resolution, and an empty result is legal: the agent simply
// converses without tools.
func (r *Resolver) Resolve(ctx context.Context, cfg model.AgentConfig) ToolSet {
	agent := AgentContext{AgentID: cfg.ID, Seed: cfg.BlockchainSeed}

	ts := ToolSet{ByName: make(map[string]tool.InvokableTool)}

	enabled := make(map[string]bool, len(cfg.ToolsEnabled))
	for _, name := range cfg.ToolsEnabled {
		enabled[name] = true
	}

	for _, d := range r.standard {
		if !enabled[d.Name()] {
			continue
		}
		r.add(ctx, &ts, d, agent, cfg.ID)
	}

	if r.custom != nil {
		for _, rec := range r.custom.EnsureFromConfig(ctx, cfg) {
			d := r.custom.Descriptor(rec)
			if _, taken := ts.ByName[d.Name()]; taken {
				logx.Warn().Str("agent_id", cfg.ID).Str("tool", d.Name()).Msg("custom tool name shadowed by a standard tool; skipping")
				continue
			}
			r.add(ctx, &ts, d, agent, cfg.ID)
		}
	}

	return ts
}

func (r *Resolver) add(ctx context.Context, ts *ToolSet, d Descriptor, agent AgentContext, agentID string) {
	info, err := d.Info(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", errx.ErrToolResolution, err)
		logx.Warn().Err(err).Str("agent_id", agentID).Str("tool", d.Name()).Msg("tool schema unavailable; leaving tool unbound")
		return
	}
	ts.Infos = append(ts.Infos, info)
	ts.ByName[info.Name] = d.Bind(agent)
}
