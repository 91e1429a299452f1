package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/registry"
	"github.com/resistingdestiny/memedici/internal/agent/runtime"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
)

type echoEngine struct{}

func (echoEngine) Generate(ctx context.Context, req runtime.EngineRequest) (*schema.Message, error) {
	return schema.AssistantMessage("echo", nil), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryRecordStore()
	reg := registry.New(st)
	tm := tools.NewCustomToolManager(st)
	resolver := tools.NewResolver(tools.StubBackend{}, tm)
	rt := runtime.New(reg, resolver, echoEngine{}, runtime.NewInProcMemory(), nil, model.RuntimeConfig{
		MaxSteps:       30,
		ToolTimeout:    5,
		MemoryMaxTurns: 20,
	})

	router := gin.New()
	NewServer(reg, rt, tm).SetupRoutes(router)
	return router, reg
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAgentGhostStudioReturns400(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/agents", map[string]any{
		"id":           "a1",
		"display_name": "Muse",
		"studio_id":    "nowhere",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}

func TestCreateAgentAcceptsLegacyDocument(t *testing.T) {
	router, reg := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/agents", map[string]any{
		"agent_id":           "legacy-1",
		"persona_name":       "Aurora",
		"personality_traits": []string{"bold"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	cfg, found := reg.GetConfig(context.Background(), "legacy-1")
	if !found || cfg.DisplayName != "Aurora" {
		t.Fatalf("persisted config = %+v (found=%v)", cfg, found)
	}
}

func TestChatAlwaysReturns200(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message":  "hello",
		"agent_id": "anyone",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var result model.TurnResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Message != "echo" {
		t.Fatalf("result = %+v", result)
	}
}

func TestChatMissingMessageReturns400(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/chat", map[string]any{"agent_id": "a1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStudioLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/studios", map[string]any{
		"studio_id": "s1",
		"name":      "Forge",
		"theme":     "industrial",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/studios/s1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/studios/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing studio status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/studios/s1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
}

func TestEvolveEndpoint(t *testing.T) {
	router, reg := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/agents/evolve", map[string]any{
		"agent_id":         "a1",
		"interaction_type": model.InteractionArtworkCreation,
		"artwork_id":       "artwork_x",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	cfg, _ := reg.GetConfig(context.Background(), "a1")
	if cfg.InteractionCount != 1 || cfg.ArtworksCreated != 1 || len(cfg.ArtworkIDs) != 1 {
		t.Fatalf("counters = %+v", cfg)
	}
}

func TestGetAgentMissingReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/agents/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestArtworkEndpoints(t *testing.T) {
	router, reg := newTestRouter(t)

	asset := model.AssetInfo{Type: "image", Prompt: "a salt garden"}
	if err := reg.SaveArtwork(context.Background(), "artwork_1", "a1", asset); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/artworks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Artworks []string `json:"artworks"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 || len(list.Artworks) != 1 {
		t.Fatalf("list = %+v", list)
	}

	w = doJSON(t, router, http.MethodGet, "/api/artworks/artwork_1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d; body: %s", w.Code, w.Body.String())
	}
	var rec registry.ArtworkRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.AgentID != "a1" || rec.Asset.Prompt != "a salt garden" {
		t.Fatalf("record = %+v", rec)
	}

	w = doJSON(t, router, http.MethodGet, "/api/artworks/artwork_missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing artwork status = %d", w.Code)
	}
}
