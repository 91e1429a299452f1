package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

const customToolTimeout = 30 * time.Second

// CustomToolRecord is the persisted form of a user-defined tool. Usage is
// counted across all agents that share the tool.
type CustomToolRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	APIConfig   model.APIConfig `json:"api_config"`
	UsageCount  int             `json:"usage_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CustomToolManager persists user-defined tool definitions and executes
// them against their external APIs.
type CustomToolManager struct {
	store  store.RecordStore
	client *http.Client

	mu sync.Mutex // serialises usage-count read-modify-write
}

func NewCustomToolManager(st store.RecordStore) *CustomToolManager {
	return &CustomToolManager{
		store:  st,
		client: &http.Client{Timeout: customToolTimeout},
	}
}

// Register persists a tool definition, assigning an id when absent.
func (m *CustomToolManager) Register(ctx context.Context, rec CustomToolRecord) (CustomToolRecord, error) {
	if rec.Name == "" {
		return CustomToolRecord{}, fmt.Errorf("custom tool name is required")
	}
	if rec.APIConfig.Endpoint == "" {
		return CustomToolRecord{}, fmt.Errorf("custom tool endpoint is required")
	}
	if rec.ID == "" {
		rec.ID = "tool_" + uuid.NewString()
	}
	if rec.APIConfig.Method == "" {
		rec.APIConfig.Method = http.MethodPost
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := m.put(ctx, rec); err != nil {
		return CustomToolRecord{}, err
	}
	return rec, nil
}

func (m *CustomToolManager) put(ctx context.Context, rec CustomToolRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, store.KindCustomTool, rec.ID, doc)
}

func (m *CustomToolManager) Get(ctx context.Context, id string) (CustomToolRecord, error) {
	raw, err := m.store.Get(ctx, store.KindCustomTool, id)
	if err != nil {
		return CustomToolRecord{}, err
	}
	var rec CustomToolRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return CustomToolRecord{}, err
	}
	return rec, nil
}

func (m *CustomToolManager) List(ctx context.Context) ([]CustomToolRecord, error) {
	ids, err := m.store.List(ctx, store.KindCustomTool)
	if err != nil {
		return nil, err
	}
	recs := make([]CustomToolRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := m.Get(ctx, id)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (m *CustomToolManager) Delete(ctx context.Context, id string) (bool, error) {
	return m.store.Delete(ctx, store.KindCustomTool, id)
}

// EnsureFromConfig repairs missing persisted records for the tools an agent
// configuration declares. Agent configs embed full tool specs, so a wiped
// tool store heals on the next resolution instead of breaking the agent.
func (m *CustomToolManager) EnsureFromConfig(ctx context.Context, cfg model.AgentConfig) []CustomToolRecord {
	recs := make([]CustomToolRecord, 0, len(cfg.CustomTools))
	for _, spec := range cfg.CustomTools {
		rec, err := m.findByName(ctx, spec.Name)
		if err == nil {
			recs = append(recs, rec)
			continue
		}
		created, err := m.Register(ctx, CustomToolRecord{
			Name:        spec.Name,
			Description: spec.Description,
			Category:    spec.Category,
			APIConfig:   spec.APIConfig,
		})
		if err != nil {
			logx.Warn().Err(err).Str("agent_id", cfg.ID).Str("tool", spec.Name).Msg("could not restore custom tool from agent config")
			continue
		}
		logx.Info().Str("tool", spec.Name).Str("tool_id", created.ID).Msg("custom tool restored from agent config")
		recs = append(recs, created)
	}
	return recs
}

func (m *CustomToolManager) findByName(ctx context.Context, name string) (CustomToolRecord, error) {
	recs, err := m.List(ctx)
	if err != nil {
		return CustomToolRecord{}, err
	}
	for _, rec := range recs {
		if rec.Name == name {
			return rec, nil
		}
	}
	return CustomToolRecord{}, store.ErrNotFound
}

func (m *CustomToolManager) incrementUsage(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.Get(ctx, id)
	if err != nil {
		return
	}
	rec.UsageCount++
	rec.UpdatedAt = time.Now().UTC()
	if err := m.put(ctx, rec); err != nil {
		logx.Warn().Err(err).Str("tool_id", id).Msg("failed to record custom tool usage")
	}
}

// Descriptor wraps a persisted record as a catalog entry. Custom tools take
// a free-form argument object which is forwarded to the external API.
func (m *CustomToolManager) Descriptor(rec CustomToolRecord) Descriptor {
	return &customDescriptor{manager: m, rec: rec}
}

type customDescriptor struct {
	manager *CustomToolManager
	rec     CustomToolRecord
}

func (d *customDescriptor) Name() string { return d.rec.Name }

func (d *customDescriptor) Info(ctx context.Context) (*schema.ToolInfo, error) {
	desc := d.rec.Description
	if desc == "" {
		desc = fmt.Sprintf("Call the external %s API.", d.rec.Name)
	}
	return &schema.ToolInfo{
		Name: d.rec.Name,
		Desc: desc + " Pass request arguments as key/value parameters.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"parameters": {
				Type: "object",
				Desc: "Arguments forwarded to the external API.",
			},
		}),
	}, nil
}

func (d *customDescriptor) Bind(agent AgentContext) tool.InvokableTool {
	return &customInvocation{manager: d.manager, rec: d.rec, agent: agent}
}

type customInvocation struct {
	manager *CustomToolManager
	rec     CustomToolRecord
	agent   AgentContext
}

func (c *customInvocation) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return (&customDescriptor{manager: c.manager, rec: c.rec}).Info(ctx)
}

// InvokableRun executes the external call and returns the result envelope.
// Failures are reported inside the envelope rather than as Go errors so the
// reasoner sees what went wrong and can adapt. Usage is counted on every
// attempt, successful or not.
func (c *customInvocation) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	params := decodeArguments(argumentsInJSON)

	defer c.manager.incrementUsage(ctx, c.rec.ID)

	envelope := map[string]any{
		"tool_id":     c.rec.ID,
		"tool_name":   c.rec.Name,
		"parameters":  params,
		"executed_at": time.Now().UTC().Format(time.RFC3339),
	}

	result, err := c.execute(ctx, params)
	if err != nil {
		logx.Warn().Err(err).Str("tool", c.rec.Name).Str("agent_id", c.agent.AgentID).Msg("custom tool call failed")
		envelope["status"] = "error"
		envelope["error"] = err.Error()
	} else {
		envelope["status"] = "success"
		envelope["api_result"] = result
	}

	out, merr := json.Marshal(envelope)
	if merr != nil {
		return "", merr
	}
	return string(out), nil
}

// decodeArguments accepts either {"parameters": {...}} or a bare argument
// object; models produce both shapes.
func decodeArguments(argumentsInJSON string) map[string]any {
	var wrapped struct {
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &wrapped); err == nil && wrapped.Parameters != nil {
		return wrapped.Parameters
	}
	var bare map[string]any
	if err := json.Unmarshal([]byte(argumentsInJSON), &bare); err == nil {
		delete(bare, "parameters")
		return bare
	}
	return map[string]any{}
}

func (c *customInvocation) execute(ctx context.Context, params map[string]any) (any, error) {
	api := c.rec.APIConfig
	method := strings.ToUpper(api.Method)
	if method == "" {
		method = http.MethodPost
	}

	var req *http.Request
	var err error
	if method == http.MethodGet {
		endpoint, qerr := appendQuery(api.Endpoint, params)
		if qerr != nil {
			return nil, qerr
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
	} else {
		body, merr := json.Marshal(params)
		if merr != nil {
			return nil, merr
		}
		req, err = http.NewRequestWithContext(ctx, method, api.Endpoint, bytes.NewReader(body))
		if err == nil {
			ct := api.ContentType
			if ct == "" {
				ct = "application/json"
			}
			req.Header.Set("Content-Type", ct)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := applyAuth(req, api.Auth); err != nil {
		return nil, err
	}

	resp, err := c.manager.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	switch api.ResponseFormat {
	case "", "json":
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			// Fall back to text when the API lied about its format.
			return string(raw), nil
		}
		return parsed, nil
	case "text":
		return string(raw), nil
	case "raw":
		return map[string]any{
			"content_type": resp.Header.Get("Content-Type"),
			"body":         string(raw),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported response_format %q", api.ResponseFormat)
	}
}

func appendQuery(endpoint string, params map[string]any) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func applyAuth(req *http.Request, auth model.AuthConfig) error {
	switch auth.Type {
	case "", "none":
		return nil
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Value)
		return nil
	case "api_key":
		req.Header.Set("X-API-Key", auth.Value)
		return nil
	case "basic":
		user, pass, ok := strings.Cut(auth.Value, ":")
		if !ok {
			return errors.New("basic auth value must be user:password")
		}
		req.SetBasicAuth(user, pass)
		return nil
	default:
		return fmt.Errorf("unsupported auth type %q", auth.Type)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
