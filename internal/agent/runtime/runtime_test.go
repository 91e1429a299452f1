package runtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/registry"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
)

// scriptedEngine replays a fixed sequence of responses; the last entry
// repeats once the script runs out. Safe for concurrent turns.
type scriptedEngine struct {
	script []*schema.Message
	err    error

	mu       sync.Mutex
	requests []EngineRequest
}

func (e *scriptedEngine) Generate(ctx context.Context, req EngineRequest) (*schema.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	if e.err != nil {
		return nil, e.err
	}
	i := len(e.requests) - 1
	if i >= len(e.script) {
		i = len(e.script) - 1
	}
	return e.script[i], nil
}

func toolCallMsg(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func newTestRuntime(t *testing.T, engine ReasoningEngine) (*Runtime, *registry.Registry, *InProcMemory) {
	t.Helper()
	st := store.NewMemoryRecordStore()
	reg := registry.New(st)
	resolver := tools.NewResolver(tools.StubBackend{}, tools.NewCustomToolManager(st))
	memory := NewInProcMemory()
	rt := New(reg, resolver, engine, memory, nil, model.RuntimeConfig{
		MaxSteps:       5,
		ToolTimeout:    5,
		MemoryMaxTurns: 20,
	})
	return rt, reg, memory
}

func TestChatTerminatesAtStepCeiling(t *testing.T) {
	// The model calls a tool on every step and never answers.
	engine := &scriptedEngine{script: []*schema.Message{
		toolCallMsg("generate_image", `{"prompt": "loop forever"}`),
	}}
	rt, _, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "paint something")

	if result.Success {
		t.Fatal("turn must fail when the step ceiling is hit")
	}
	if result.Error != "step limit exceeded" {
		t.Fatalf("Error = %q", result.Error)
	}
	if len(engine.requests) != 5 {
		t.Fatalf("engine called %d times, want exactly the configured ceiling", len(engine.requests))
	}
}

func TestChatEndToEndWithToolCall(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		toolCallMsg("generate_image", `{"prompt": "a glass river"}`),
		schema.AssistantMessage(`{"message": "I made a glass river for you."}`, nil),
	}}
	rt, reg, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "paint a river")

	if !result.Success {
		t.Fatalf("turn failed: %s", result.Error)
	}
	if result.Message != "I made a glass river for you." {
		t.Fatalf("Message = %q", result.Message)
	}
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "generate_image" {
		t.Fatalf("ToolsUsed = %v", result.ToolsUsed)
	}
	if result.ArtworksCreated != 1 || len(result.Assets) != 1 {
		t.Fatalf("ArtworksCreated = %d, Assets = %d", result.ArtworksCreated, len(result.Assets))
	}
	for id, asset := range result.Assets {
		if !strings.HasPrefix(id, "artwork_") {
			t.Errorf("asset id %q lacks artwork prefix", id)
		}
		if asset.Type != "image" || asset.Prompt == "" {
			t.Errorf("asset = %+v", asset)
		}
	}

	// The turn must have been recorded on the persisted persona.
	cfg, found := reg.GetConfig(context.Background(), "agent-1")
	if !found {
		t.Fatal("evolution must persist the agent")
	}
	if cfg.InteractionCount != 1 || cfg.ArtworksCreated != 1 {
		t.Fatalf("persisted counters = %d/%d", cfg.InteractionCount, cfg.ArtworksCreated)
	}
	if len(cfg.ArtworkIDs) != 1 {
		t.Fatalf("ArtworkIDs = %v", cfg.ArtworkIDs)
	}

	// The artwork document itself must be retrievable.
	rec, err := reg.GetArtwork(context.Background(), cfg.ArtworkIDs[0])
	if err != nil {
		t.Fatalf("artwork record not persisted: %v", err)
	}
	if rec.AgentID != "agent-1" || rec.Asset.Type != "image" {
		t.Fatalf("artwork record = %+v", rec)
	}
}

func TestChatPlainConversation(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage("Let's talk about chiaroscuro.", nil),
	}}
	rt, reg, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "hello")

	if !result.Success || result.Message != "Let's talk about chiaroscuro." {
		t.Fatalf("result = %+v", result)
	}
	if len(result.ToolsUsed) != 0 || result.ArtworksCreated != 0 {
		t.Fatalf("plain turn recorded tool use: %+v", result)
	}
	if result.PersonaEvolved {
		t.Fatal("plain turn must not evolve the persona")
	}

	// A tool-free turn fires no evolution rules, so nothing is written.
	cfg, found := reg.GetConfig(context.Background(), "agent-1")
	if found {
		t.Fatal("tool-free turn must not persist the agent")
	}
	if cfg.InteractionCount != 0 {
		t.Fatalf("InteractionCount = %d, want 0 for a tool-free turn", cfg.InteractionCount)
	}
}

func TestChatArtworkAndCustomToolEachEvolve(t *testing.T) {
	// One step calls a generation tool and a custom tool together; the
	// artwork rule and the custom-tool rule both fire, so the persona
	// records two interactions for the turn.
	multi := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "generate_image", Arguments: `{"prompt": "dawn"}`}},
			{ID: "call-2", Function: schema.FunctionCall{Name: "fetch_inspiration", Arguments: `{}`}},
		},
	}
	engine := &scriptedEngine{script: []*schema.Message{
		multi,
		schema.AssistantMessage(`{"message": "done"}`, nil),
	}}
	rt, reg, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "paint the dawn")

	if !result.Success {
		t.Fatalf("turn failed: %s", result.Error)
	}
	if len(result.ToolsUsed) != 2 {
		t.Fatalf("ToolsUsed = %v", result.ToolsUsed)
	}

	cfg, found := reg.GetConfig(context.Background(), "agent-1")
	if !found {
		t.Fatal("evolution must persist the agent")
	}
	if cfg.InteractionCount != 2 {
		t.Fatalf("InteractionCount = %d, want one per fired rule", cfg.InteractionCount)
	}
	if cfg.ArtworksCreated != 1 {
		t.Fatalf("ArtworksCreated = %d", cfg.ArtworksCreated)
	}

	types := make(map[string]bool)
	for _, entry := range cfg.PersonaEvolutionHistory {
		types[entry.InteractionType] = true
	}
	if !types[model.InteractionArtworkCreation] || !types[model.InteractionCustomToolUsage] {
		t.Fatalf("history types = %v", types)
	}
}

func TestChatEngineFailureNeverPanics(t *testing.T) {
	engine := &scriptedEngine{err: errors.New("provider down")}
	rt, _, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "hello")

	if result.Success {
		t.Fatal("engine failure must produce a failed result")
	}
	if result.Message == "" {
		t.Fatal("failed turns still carry a user-facing message")
	}
	if !strings.Contains(result.Error, "provider down") {
		t.Fatalf("Error = %q", result.Error)
	}
}

func TestChatMalformedFinalAnswerDegradesToText(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage(`{"message": "broken`, nil),
	}}
	rt, _, _ := newTestRuntime(t, engine)

	result := rt.Chat(context.Background(), "agent-1", "t1", "hello")

	if !result.Success {
		t.Fatalf("malformed final answer must not fail the turn: %+v", result)
	}
	if result.Message != `{"message": "broken` {
		t.Fatalf("Message = %q, want verbatim text", result.Message)
	}
}

func TestThreadMemoryIsolation(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage("noted", nil),
	}}
	rt, _, memory := newTestRuntime(t, engine)
	ctx := context.Background()

	// The two threads talk to the same agent at the same time.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rt.Chat(ctx, "agent-1", "thread-a", "my name is Ada")
	}()
	go func() {
		defer wg.Done()
		rt.Chat(ctx, "agent-1", "thread-b", "my name is Bo")
	}()
	wg.Wait()

	a, _ := memory.History(ctx, "agent-1", "thread-a")
	b, _ := memory.History(ctx, "agent-1", "thread-b")

	for _, msg := range a {
		if strings.Contains(msg.Content, "Bo") {
			t.Fatal("thread-a leaked into thread-b's content")
		}
	}
	for _, msg := range b {
		if strings.Contains(msg.Content, "Ada") {
			t.Fatal("thread-b leaked thread-a's content")
		}
	}
	// Each thread holds exactly its own user + assistant pair.
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("history lengths = %d/%d, want 2/2", len(a), len(b))
	}
}

func TestChatMemoryDisabledStoresNothing(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage("ok", nil),
	}}
	rt, reg, memory := newTestRuntime(t, engine)
	ctx := context.Background()

	cfg := model.NewAgentConfig()
	cfg.MemoryEnabled = false
	cfg.DisplayName = "Amnesiac"
	if _, err := reg.CreateAgent(ctx, "agent-1", cfg); err != nil {
		t.Fatal(err)
	}

	rt.Chat(ctx, "agent-1", "t1", "remember me")

	history, _ := memory.History(ctx, "agent-1", "t1")
	if len(history) != 0 {
		t.Fatalf("memory disabled but %d messages stored", len(history))
	}
}

func TestResetThreadClearsOnlyThatThread(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage("ok", nil),
	}}
	rt, _, memory := newTestRuntime(t, engine)
	ctx := context.Background()

	rt.Chat(ctx, "agent-1", "t1", "one")
	rt.Chat(ctx, "agent-1", "t2", "two")

	if err := rt.ResetThread(ctx, "agent-1", "t1"); err != nil {
		t.Fatal(err)
	}

	t1, _ := memory.History(ctx, "agent-1", "t1")
	t2, _ := memory.History(ctx, "agent-1", "t2")
	if len(t1) != 0 {
		t.Fatalf("t1 not cleared: %d messages", len(t1))
	}
	if len(t2) == 0 {
		t.Fatal("t2 must survive a reset of t1")
	}
}

func TestCompiledCacheInvalidatedByConfigChange(t *testing.T) {
	engine := &scriptedEngine{script: []*schema.Message{
		schema.AssistantMessage("ok", nil),
	}}
	rt, reg, _ := newTestRuntime(t, engine)
	ctx := context.Background()

	cfg := model.NewAgentConfig()
	cfg.DisplayName = "Before"
	if _, err := reg.CreateAgent(ctx, "agent-1", cfg); err != nil {
		t.Fatal(err)
	}

	rt.Chat(ctx, "agent-1", "t1", "hi")
	firstSystem := engine.requests[0].Messages[0].Content

	if _, err := reg.Mutate(ctx, "agent-1", func(c *model.AgentConfig) error {
		c.DisplayName = "After"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	rt.Chat(ctx, "agent-1", "t1", "hi again")
	secondSystem := engine.requests[len(engine.requests)-1].Messages[0].Content

	if firstSystem == secondSystem {
		t.Fatal("system prompt must be recompiled after a config change")
	}
	if !strings.Contains(secondSystem, "After") {
		t.Fatal("recompiled prompt missing updated display name")
	}
}
