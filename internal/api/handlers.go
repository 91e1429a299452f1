package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
	errx "github.com/resistingdestiny/memedici/internal/core/error"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail renders an error with its errx status; unknown errors become 500.
func fail(c *gin.Context, err error) {
	c.JSON(errx.StatusOf(err), gin.H{"success": false, "error": err.Error()})
}

// ==================== Agents ====================

// CreateAgent accepts a full agent document, legacy field names included.
func (s *Server) CreateAgent(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, errx.Validation("unreadable request body"))
		return
	}

	cfg, err := model.MigrateAgentDocument(raw)
	if err != nil {
		fail(c, errx.Validation("invalid agent document: %v", err))
		return
	}

	agentID := cfg.ID
	if agentID == "" {
		// Older clients send the id beside the config.
		var alias struct {
			AgentID string `json:"agent_id"`
		}
		_ = json.Unmarshal(raw, &alias)
		agentID = alias.AgentID
	}
	if agentID == "" {
		fail(c, errx.Validation("agent id is required"))
		return
	}

	saved, err := s.registry.CreateAgent(c.Request.Context(), agentID, cfg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "agent_id": saved.ID, "agent": saved})
}

func (s *Server) ListAgents(c *gin.Context) {
	ids, err := s.registry.ListAgents(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": ids, "count": len(ids)})
}

func (s *Server) GetAgent(c *gin.Context) {
	info, found := s.registry.AgentInfo(c.Request.Context(), c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "agent not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) DeleteAgent(c *gin.Context) {
	ok, err := s.registry.DeleteAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "agent not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EvolveAgent applies an out-of-band evolution signal, e.g. from a
// curation event rather than a conversation turn.
func (s *Server) EvolveAgent(c *gin.Context) {
	var req struct {
		AgentID         string `json:"agent_id" binding:"required"`
		InteractionType string `json:"interaction_type" binding:"required"`
		Outcome         string `json:"outcome"`
		ArtworkID       string `json:"artwork_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.Validation("agent_id and interaction_type are required"))
		return
	}
	if req.Outcome == "" {
		req.Outcome = "successful"
	}

	cfg, err := s.registry.Mutate(c.Request.Context(), req.AgentID, func(cfg *model.AgentConfig) error {
		cfg.Evolve(req.InteractionType, req.Outcome)
		if req.ArtworkID != "" {
			cfg.AppendArtwork(req.ArtworkID)
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"agent_id":          req.AgentID,
		"interaction_count": cfg.InteractionCount,
		"artworks_created":  cfg.ArtworksCreated,
		"core_traits":       cfg.CoreTraits,
	})
}

// ==================== Chat ====================

// Chat runs one conversation turn. The response status is always 200; the
// body's success flag and error field carry turn failures, so clients
// handle one shape.
func (s *Server) Chat(c *gin.Context) {
	var req struct {
		Message  string `json:"message" binding:"required"`
		AgentID  string `json:"agent_id"`
		ThreadID string `json:"thread_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.Validation("message is required"))
		return
	}
	if req.AgentID == "" {
		req.AgentID = "default"
	}
	if req.ThreadID == "" {
		req.ThreadID = "default"
	}

	result := s.runtime.Chat(c.Request.Context(), req.AgentID, req.ThreadID, req.Message)
	c.JSON(http.StatusOK, result)
}

func (s *Server) ResetMemory(c *gin.Context) {
	agentID := c.Param("agent_id")
	threadID := c.DefaultQuery("thread_id", "default")

	if err := s.runtime.ResetThread(c.Request.Context(), agentID, threadID); err != nil {
		fail(c, err)
		return
	}
	logx.Info().Str("agent_id", agentID).Str("thread_id", threadID).Msg("thread memory cleared")
	c.JSON(http.StatusOK, gin.H{"success": true, "agent_id": agentID, "thread_id": threadID})
}

// ==================== Studios ====================

func (s *Server) CreateStudio(c *gin.Context) {
	var req struct {
		StudioID string `json:"studio_id"`
		model.Studio
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.Validation("invalid studio document"))
		return
	}
	id := req.StudioID
	if id == "" {
		id = req.Studio.ID
	}

	st, err := s.registry.CreateStudio(c.Request.Context(), id, req.Studio)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "studio_id": st.ID, "studio": st})
}

func (s *Server) ListStudios(c *gin.Context) {
	ids, err := s.registry.ListStudios(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"studios": ids, "count": len(ids)})
}

func (s *Server) GetStudio(c *gin.Context) {
	st, err := s.registry.GetStudio(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) DeleteStudio(c *gin.Context) {
	ok, err := s.registry.DeleteStudio(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "studio not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Artworks ====================

func (s *Server) ListArtworks(c *gin.Context) {
	ids, err := s.registry.ListArtworks(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artworks": ids, "count": len(ids)})
}

func (s *Server) GetArtwork(c *gin.Context) {
	rec, err := s.registry.GetArtwork(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ==================== Custom tools ====================

func (s *Server) ListTools(c *gin.Context) {
	recs, err := s.tools.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": recs, "count": len(recs)})
}

func (s *Server) CreateTool(c *gin.Context) {
	var rec tools.CustomToolRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, errx.Validation("invalid tool document"))
		return
	}

	saved, err := s.tools.Register(c.Request.Context(), rec)
	if err != nil {
		fail(c, errx.Validation("%v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tool_id": saved.ID, "tool": saved})
}

func (s *Server) DeleteTool(c *gin.Context) {
	ok, err := s.tools.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "tool not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
