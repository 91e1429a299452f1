package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	errx "github.com/resistingdestiny/memedici/internal/core/error"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// Registry manages agent and studio configuration documents over a record
// store. It is constructed explicitly by the process entry point; there is
// no package-level instance.
type Registry struct {
	store store.RecordStore

	mu       sync.Mutex
	versions map[string]uint64
	locks    map[string]*sync.Mutex
}

func New(st store.RecordStore) *Registry {
	return &Registry{
		store:    st,
		versions: make(map[string]uint64),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Version returns a counter bumped on every persisted change to the agent.
// The runtime uses it to invalidate cached prompts and tool sets eagerly.
func (r *Registry) Version(agentID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[agentID]
}

func (r *Registry) bumpVersion(agentID string) {
	r.mu.Lock()
	r.versions[agentID]++
	r.mu.Unlock()
}

func (r *Registry) agentLock(agentID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[agentID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[agentID] = l
	}
	return l
}

// GetConfig loads an agent configuration. A missing agent degrades to the
// default configuration so unknown-agent chats never crash; the second
// return reports whether a persisted record was found.
func (r *Registry) GetConfig(ctx context.Context, agentID string) (model.AgentConfig, bool) {
	raw, err := r.store.Get(ctx, store.KindAgent, agentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logx.Error().Err(err).Str("agent_id", agentID).Msg("failed to load agent config; using defaults")
		}
		cfg := model.NewAgentConfig()
		cfg.ID = agentID
		return cfg, false
	}

	cfg, err := model.MigrateAgentDocument(raw)
	if err != nil {
		logx.Error().Err(err).Str("agent_id", agentID).Msg("corrupt agent document; using defaults")
		cfg = model.NewAgentConfig()
	}
	cfg.ID = agentID
	return cfg, true
}

// CreateAgent validates and persists an agent configuration. The creation
// path requires studio_id to reference an existing studio; this is a hard
// validation error, distinct from compile-time graceful degradation.
func (r *Registry) CreateAgent(ctx context.Context, agentID string, cfg model.AgentConfig) (model.AgentConfig, error) {
	cfg.ID = agentID
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return model.AgentConfig{}, err
	}
	if cfg.StudioID != "" {
		if _, err := r.GetStudio(ctx, cfg.StudioID); err != nil {
			return model.AgentConfig{}, errx.Validation("studio %q does not exist; create the studio first", cfg.StudioID)
		}
	}

	if err := r.persist(ctx, &cfg); err != nil {
		return model.AgentConfig{}, err
	}
	logx.Info().Str("agent_id", agentID).Str("display_name", cfg.DisplayName).Msg("agent configuration saved")
	return cfg, nil
}

// Mutate applies fn to the stored configuration under the per-agent lock
// and persists the result once. Evolution writes go through here so
// concurrent turns on the same agent never lose updates.
func (r *Registry) Mutate(ctx context.Context, agentID string, fn func(*model.AgentConfig) error) (model.AgentConfig, error) {
	l := r.agentLock(agentID)
	l.Lock()
	defer l.Unlock()

	cfg, _ := r.GetConfig(ctx, agentID)
	if err := fn(&cfg); err != nil {
		return model.AgentConfig{}, err
	}
	if err := r.persist(ctx, &cfg); err != nil {
		return model.AgentConfig{}, err
	}
	return cfg, nil
}

func (r *Registry) persist(ctx context.Context, cfg *model.AgentConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	doc, err := json.Marshal(cfg)
	if err != nil {
		return errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	if err := r.store.Put(ctx, store.KindAgent, cfg.ID, doc); err != nil {
		return errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to persist agent")
	}
	r.bumpVersion(cfg.ID)
	return nil
}

// DeleteAgent removes the persisted configuration; it reports whether one
// existed.
func (r *Registry) DeleteAgent(ctx context.Context, agentID string) (bool, error) {
	ok, err := r.store.Delete(ctx, store.KindAgent, agentID)
	if err != nil {
		return false, errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to delete agent")
	}
	if ok {
		r.bumpVersion(agentID)
	}
	return ok, nil
}

func (r *Registry) ListAgents(ctx context.Context) ([]string, error) {
	return r.store.List(ctx, store.KindAgent)
}

// AgentInfo summarises an agent for API consumers; the evolution history
// is truncated to the most recent entries.
func (r *Registry) AgentInfo(ctx context.Context, agentID string) (map[string]any, bool) {
	cfg, found := r.GetConfig(ctx, agentID)

	history := cfg.PersonaEvolutionHistory
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	return map[string]any{
		"agent_id":       agentID,
		"model_name":     cfg.ModelName,
		"temperature":    cfg.Temperature,
		"tools_enabled":  cfg.ToolsEnabled,
		"custom_tools":   cfg.CustomTools,
		"memory_enabled": cfg.MemoryEnabled,
		"studio_id":      cfg.StudioID,
		"identity": map[string]any{
			"display_name": cfg.DisplayName,
			"avatar_url":   cfg.AvatarURL,
			"archetype":    cfg.Archetype,
			"core_traits":  cfg.CoreTraits,
			"origin_story": cfg.OriginStory,
		},
		"creative_spec": map[string]any{
			"primary_mediums":  cfg.PrimaryMediums,
			"signature_motifs": cfg.SignatureMotifs,
			"influences":       cfg.Influences,
			"colour_palette":   cfg.ColourPalette,
			"creation_rate":    cfg.CreationRate,
			"collab_affinity":  cfg.CollabAffinity,
		},
		"evolution": map[string]any{
			"interaction_count": cfg.InteractionCount,
			"artworks_created":  cfg.ArtworksCreated,
			"artwork_ids":       cfg.ArtworkIDs,
			"evolution_history": history,
		},
	}, found
}

// ==================== Studios ====================

// CreateStudio validates and persists a studio document.
func (r *Registry) CreateStudio(ctx context.Context, studioID string, st model.Studio) (model.Studio, error) {
	if studioID == "" {
		return model.Studio{}, errx.Validation("studio id is required")
	}
	if st.Name == "" {
		return model.Studio{}, errx.Validation("studio name is required")
	}
	st.ID = studioID
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	st.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(st)
	if err != nil {
		return model.Studio{}, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	if err := r.store.Put(ctx, store.KindStudio, studioID, doc); err != nil {
		return model.Studio{}, errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to persist studio")
	}
	logx.Info().Str("studio_id", studioID).Str("name", st.Name).Msg("studio saved")
	return st, nil
}

// GetStudio loads a studio by id.
func (r *Registry) GetStudio(ctx context.Context, studioID string) (*model.Studio, error) {
	raw, err := r.store.Get(ctx, store.KindStudio, studioID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errx.New(err, http.StatusNotFound, fmt.Sprintf("studio %q not found", studioID))
		}
		return nil, errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to load studio")
	}
	var st model.Studio
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	return &st, nil
}

// ResolveStudio resolves an agent's studio for prompt compilation. A
// dangling or empty studio_id degrades to nil; the compiler substitutes
// the default studio context.
func (r *Registry) ResolveStudio(ctx context.Context, cfg model.AgentConfig) *model.Studio {
	if cfg.StudioID == "" {
		return nil
	}
	st, err := r.GetStudio(ctx, cfg.StudioID)
	if err != nil {
		logx.Warn().Str("agent_id", cfg.ID).Str("studio_id", cfg.StudioID).Msg("studio reference did not resolve; using default context")
		return nil
	}
	return st
}

func (r *Registry) ListStudios(ctx context.Context) ([]string, error) {
	return r.store.List(ctx, store.KindStudio)
}

func (r *Registry) DeleteStudio(ctx context.Context, studioID string) (bool, error) {
	ok, err := r.store.Delete(ctx, store.KindStudio, studioID)
	if err != nil {
		return false, errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to delete studio")
	}
	return ok, nil
}
