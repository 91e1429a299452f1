package registry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	errx "github.com/resistingdestiny/memedici/internal/core/error"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(store.NewMemoryRecordStore())
}

func TestCreateAgentRejectsGhostStudio(t *testing.T) {
	reg := newTestRegistry(t)

	cfg := model.NewAgentConfig()
	cfg.StudioID = "no-such-studio"

	_, err := reg.CreateAgent(context.Background(), "a1", cfg)
	if err == nil {
		t.Fatal("agent referencing a missing studio must be rejected")
	}
	var appErr *errx.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 validation error, got %v", err)
	}
}

func TestCreateAgentWithExistingStudio(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.CreateStudio(ctx, "s1", model.Studio{Name: "Forge"}); err != nil {
		t.Fatal(err)
	}

	cfg := model.NewAgentConfig()
	cfg.StudioID = "s1"
	saved, err := reg.CreateAgent(ctx, "a1", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if saved.StudioID != "s1" {
		t.Fatalf("StudioID = %q", saved.StudioID)
	}
}

func TestGetConfigMissingAgentDegradesToDefaults(t *testing.T) {
	reg := newTestRegistry(t)

	cfg, found := reg.GetConfig(context.Background(), "ghost")
	if found {
		t.Fatal("found must be false for a missing agent")
	}
	if cfg.ID != "ghost" {
		t.Fatalf("ID = %q, must carry the requested id", cfg.ID)
	}
	if cfg.DisplayName == "" || !cfg.MemoryEnabled || len(cfg.ToolsEnabled) == 0 {
		t.Fatalf("default config incomplete: %+v", cfg)
	}
}

func TestVersionBumpsOnEveryPersist(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if v := reg.Version("a1"); v != 0 {
		t.Fatalf("initial version = %d", v)
	}

	cfg := model.NewAgentConfig()
	if _, err := reg.CreateAgent(ctx, "a1", cfg); err != nil {
		t.Fatal(err)
	}
	if v := reg.Version("a1"); v != 1 {
		t.Fatalf("version after create = %d", v)
	}

	if _, err := reg.Mutate(ctx, "a1", func(c *model.AgentConfig) error {
		c.Evolve(model.InteractionArtworkCreation, "successful")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if v := reg.Version("a1"); v != 2 {
		t.Fatalf("version after mutate = %d", v)
	}

	if _, err := reg.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if v := reg.Version("a1"); v != 3 {
		t.Fatalf("version after delete = %d", v)
	}
}

func TestMutatePersistsChanges(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Mutate(ctx, "a1", func(c *model.AgentConfig) error {
		c.Evolve(model.InteractionCreativeAnalysis, "insightful")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, found := reg.GetConfig(ctx, "a1")
	if !found {
		t.Fatal("mutate must persist the agent")
	}
	if cfg.InteractionCount != 1 {
		t.Fatalf("InteractionCount = %d", cfg.InteractionCount)
	}
}

func TestResolveStudioDanglingReferenceDegrades(t *testing.T) {
	reg := newTestRegistry(t)

	cfg := model.NewAgentConfig()
	cfg.ID = "a1"
	cfg.StudioID = "vanished"

	if st := reg.ResolveStudio(context.Background(), cfg); st != nil {
		t.Fatalf("dangling studio reference must resolve to nil, got %+v", st)
	}
}

func TestDeleteAgentReportsExistence(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	ok, err := reg.DeleteAgent(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("deleting a missing agent must report false")
	}

	if _, err := reg.CreateAgent(ctx, "a1", model.NewAgentConfig()); err != nil {
		t.Fatal(err)
	}
	ok, err = reg.DeleteAgent(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("delete existing agent = (%v, %v)", ok, err)
	}

	if _, found := reg.GetConfig(ctx, "a1"); found {
		t.Fatal("agent still present after delete")
	}
}
