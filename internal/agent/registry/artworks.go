package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	errx "github.com/resistingdestiny/memedici/internal/core/error"
)

// ArtworkRecord is the persisted document for one created artwork. The
// agent document only carries the artwork id; the asset details live here.
type ArtworkRecord struct {
	ID        string          `json:"id"`
	AgentID   string          `json:"agent_id"`
	Asset     model.AssetInfo `json:"asset"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveArtwork persists an artwork created during a turn.
func (r *Registry) SaveArtwork(ctx context.Context, id, agentID string, asset model.AssetInfo) error {
	rec := ArtworkRecord{
		ID:        id,
		AgentID:   agentID,
		Asset:     asset,
		CreatedAt: time.Now().UTC(),
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	if err := r.store.Put(ctx, store.KindArtwork, id, doc); err != nil {
		return errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to persist artwork")
	}
	return nil
}

// GetArtwork loads one artwork record by id.
func (r *Registry) GetArtwork(ctx context.Context, id string) (*ArtworkRecord, error) {
	raw, err := r.store.Get(ctx, store.KindArtwork, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errx.New(err, http.StatusNotFound, fmt.Sprintf("artwork %q not found", id))
		}
		return nil, errx.New(errors.Join(errx.ErrPersistence, err), http.StatusBadGateway, "failed to load artwork")
	}
	var rec ArtworkRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	return &rec, nil
}

func (r *Registry) ListArtworks(ctx context.Context) ([]string, error) {
	return r.store.List(ctx, store.KindArtwork)
}
