// Package runtime drives the agent conversation loop: it compiles the
// agent's prompt and tool surface, alternates between the reasoning engine
// and tool execution under a hard step ceiling, and records the turn's
// effects on memory and persona.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	errx "github.com/resistingdestiny/memedici/internal/core/error"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/prompt"
	"github.com/resistingdestiny/memedici/internal/agent/registry"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
	"github.com/resistingdestiny/memedici/internal/dataset"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

const fallbackErrorReply = "I hit a creative block there. Could you try asking me again?"

type Runtime struct {
	registry *registry.Registry
	resolver *tools.Resolver
	engine   ReasoningEngine
	memory   MemoryStore
	sink     dataset.Sink
	cfg      model.RuntimeConfig

	mu    sync.Mutex
	cache map[string]*compiledAgent
}

// compiledAgent is the prompt and bound tool set for one agent at one
// config version. Any persisted change to the agent bumps the version and
// invalidates the entry on the next turn.
type compiledAgent struct {
	version uint64
	system  string
	tools   tools.ToolSet
}

func New(reg *registry.Registry, resolver *tools.Resolver, engine ReasoningEngine, memory MemoryStore, sink dataset.Sink, cfg model.RuntimeConfig) *Runtime {
	if sink == nil {
		sink = dataset.NopSink{}
	}
	return &Runtime{
		registry: reg,
		resolver: resolver,
		engine:   engine,
		memory:   memory,
		sink:     sink,
		cfg:      cfg,
		cache:    make(map[string]*compiledAgent),
	}
}

func (r *Runtime) compiled(ctx context.Context, cfg model.AgentConfig) *compiledAgent {
	version := r.registry.Version(cfg.ID)

	r.mu.Lock()
	ca, ok := r.cache[cfg.ID]
	r.mu.Unlock()
	if ok && ca.version == version {
		return ca
	}

	studio := r.registry.ResolveStudio(ctx, cfg)
	ca = &compiledAgent{
		version: version,
		system:  prompt.Compile(cfg, studio),
		tools:   r.resolver.Resolve(ctx, cfg),
	}

	r.mu.Lock()
	r.cache[cfg.ID] = ca
	r.mu.Unlock()

	logx.Debug().Str("agent_id", cfg.ID).Uint64("version", version).Int("tools", len(ca.tools.Infos)).Msg("agent compiled")
	return ca
}

// Chat runs one conversation turn. It always returns a TurnResult; engine
// failures, tool failures and the step ceiling all surface as structured
// failure results, never as errors or panics.
func (r *Runtime) Chat(ctx context.Context, agentID, threadID, userMessage string) (result model.TurnResult) {
	result = model.TurnResult{
		AgentID:  agentID,
		ThreadID: threadID,
		Assets:   map[string]model.AssetInfo{},
	}
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Any("panic", rec).Str("agent_id", agentID).Msg("conversation turn panicked")
			result.Success = false
			result.Message = fallbackErrorReply
			result.Error = "internal error"
		}
	}()

	cfg, _ := r.registry.GetConfig(ctx, agentID)
	ca := r.compiled(ctx, cfg)

	messages := []*schema.Message{schema.SystemMessage(ca.system)}
	if cfg.MemoryEnabled {
		history, err := r.memory.History(ctx, agentID, threadID)
		if err != nil {
			logx.Warn().Err(err).Str("agent_id", agentID).Str("thread_id", threadID).Msg("could not load thread history; continuing without it")
		} else {
			messages = append(messages, trimTail(history, r.cfg.MemoryMaxTurns)...)
		}
	}
	userMsg := schema.UserMessage(userMessage)
	messages = append(messages, userMsg)

	var toolsUsed []string
	var final *schema.Message

	for step := 0; step < r.cfg.MaxSteps; step++ {
		msg, err := r.engine.Generate(ctx, EngineRequest{
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Messages:    messages,
			Tools:       ca.tools.Infos,
		})
		if err != nil {
			logx.Error().Err(err).Str("agent_id", agentID).Int("step", step).Msg("reasoning step failed")
			result.Success = false
			result.Message = fallbackErrorReply
			result.Error = err.Error()
			return result
		}

		if len(msg.ToolCalls) == 0 {
			final = msg
			break
		}

		messages = append(messages, msg)
		results := r.dispatch(ctx, ca.tools, msg.ToolCalls, agentID)
		for i, tr := range results {
			toolsUsed = append(toolsUsed, msg.ToolCalls[i].Function.Name)
			liftAssets(tr.Content, result.Assets)
			messages = append(messages, tr)
		}
	}

	if final == nil {
		logx.Warn().Str("agent_id", agentID).Int("max_steps", r.cfg.MaxSteps).Msg("conversation exceeded step ceiling")
		result.Success = false
		result.Message = fallbackErrorReply
		result.Error = errx.ErrLoopExceeded.Error()
		result.ToolsUsed = toolsUsed
		return result
	}

	answer := model.CanonicalizeFinal(final.Content)
	for id, asset := range answer.Assets {
		result.Assets[id] = asset
	}

	result.Success = true
	result.Message = answer.Message
	result.ToolsUsed = toolsUsed
	result.ArtworksCreated = countArtworks(result.Assets)

	if cfg.MemoryEnabled {
		if err := r.memory.Append(ctx, agentID, threadID, userMsg, schema.AssistantMessage(answer.Message, nil)); err != nil {
			logx.Warn().Err(err).Str("agent_id", agentID).Str("thread_id", threadID).Msg("could not persist thread history")
		}
	}

	r.evolve(ctx, agentID, &result)

	for id, asset := range result.Assets {
		if !strings.HasPrefix(id, "artwork_") {
			continue
		}
		if err := r.registry.SaveArtwork(ctx, id, agentID, asset); err != nil {
			logx.Warn().Err(err).Str("agent_id", agentID).Str("artwork_id", id).Msg("could not persist artwork record")
		}
	}

	r.sink.Publish(dataset.InteractionRecord{
		AgentID:         agentID,
		ThreadID:        threadID,
		UserMessage:     userMessage,
		Response:        result.Message,
		ToolsUsed:       result.ToolsUsed,
		ArtworksCreated: result.ArtworksCreated,
		Success:         result.Success,
		Timestamp:       time.Now().UTC(),
	})

	return result
}

// ResetThread clears one thread's memory.
func (r *Runtime) ResetThread(ctx context.Context, agentID, threadID string) error {
	return r.memory.Reset(ctx, agentID, threadID)
}

// dispatch executes the step's tool calls concurrently and returns results
// in call order. A failed call becomes an error envelope the reasoner can
// read and react to; it never aborts the turn.
func (r *Runtime) dispatch(ctx context.Context, ts tools.ToolSet, calls []schema.ToolCall, agentID string) []*schema.Message {
	results := make([]*schema.Message, len(calls))
	timeout := time.Duration(r.cfg.ToolTimeout) * time.Second

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call schema.ToolCall) {
			defer wg.Done()
			results[i] = r.invoke(ctx, ts, call, agentID, timeout)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (r *Runtime) invoke(ctx context.Context, ts tools.ToolSet, call schema.ToolCall, agentID string, timeout time.Duration) *schema.Message {
	name := call.Function.Name

	inv, ok := ts.ByName[name]
	if !ok {
		logx.Warn().Str("agent_id", agentID).Str("tool", name).Msg("model called an unknown tool")
		return toolErrorMessage(call, "unknown tool "+name)
	}

	tctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := inv.InvokableRun(tctx, call.Function.Arguments)
	if err != nil {
		err = fmt.Errorf("%w: %v", errx.ErrToolExecution, err)
		logx.Warn().Err(err).Str("agent_id", agentID).Str("tool", name).Msg("tool call failed")
		return toolErrorMessage(call, err.Error())
	}
	return schema.ToolMessage(out, call.ID, schema.WithToolName(name))
}

func toolErrorMessage(call schema.ToolCall, msg string) *schema.Message {
	envelope, _ := json.Marshal(map[string]string{"status": "error", "error": msg})
	return schema.ToolMessage(string(envelope), call.ID, schema.WithToolName(call.Function.Name))
}

// liftAssets pulls an "assets" map out of a tool result into the turn's
// asset collection.
func liftAssets(content string, into map[string]model.AssetInfo) {
	var payload struct {
		Assets map[string]model.AssetInfo `json:"assets"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return
	}
	for id, asset := range payload.Assets {
		into[id] = asset
	}
}

func countArtworks(assets map[string]model.AssetInfo) int {
	n := 0
	for id := range assets {
		if strings.HasPrefix(id, "artwork_") {
			n++
		}
	}
	return n
}

// evolve records the turn's fired evolution signals and new artworks on
// the agent in one persisted update. Turns that used no tools fire no
// rules and persist nothing.
func (r *Runtime) evolve(ctx context.Context, agentID string, result *model.TurnResult) {
	standard := make(map[string]bool, len(model.DefaultToolsEnabled))
	for _, name := range model.DefaultToolsEnabled {
		standard[name] = true
	}
	rules := firedRules(result.ToolsUsed, standard)
	if len(rules) == 0 {
		return
	}

	_, err := r.registry.Mutate(ctx, agentID, func(cfg *model.AgentConfig) error {
		before := len(cfg.CoreTraits)
		for _, rule := range rules {
			cfg.Evolve(rule.interactionType, rule.outcome)
		}
		for id := range result.Assets {
			if strings.HasPrefix(id, "artwork_") {
				cfg.AppendArtwork(id)
			}
		}
		result.PersonaEvolved = len(cfg.CoreTraits) > before
		return nil
	})
	if err != nil {
		logx.Warn().Err(err).Str("agent_id", agentID).Msg("could not persist persona evolution")
	}
}
