// Package api exposes the platform over HTTP using gin. Handlers hold
// their collaborators on a Server value; nothing is package-global.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/resistingdestiny/memedici/internal/agent/registry"
	"github.com/resistingdestiny/memedici/internal/agent/runtime"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
)

type Server struct {
	registry *registry.Registry
	runtime  *runtime.Runtime
	tools    *tools.CustomToolManager
}

func NewServer(reg *registry.Registry, rt *runtime.Runtime, tm *tools.CustomToolManager) *Server {
	return &Server{registry: reg, runtime: rt, tools: tm}
}

// SetupRoutes registers all API endpoints on the router.
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.GET("/health", s.Health)

	api := router.Group("/api")
	{
		api.POST("/agents", s.CreateAgent)
		api.GET("/agents", s.ListAgents)
		api.GET("/agents/:id", s.GetAgent)
		api.DELETE("/agents/:id", s.DeleteAgent)
		api.POST("/agents/evolve", s.EvolveAgent)

		api.POST("/chat", s.Chat)
		api.DELETE("/chat/:agent_id/memory", s.ResetMemory)

		api.POST("/studios", s.CreateStudio)
		api.GET("/studios", s.ListStudios)
		api.GET("/studios/:id", s.GetStudio)
		api.DELETE("/studios/:id", s.DeleteStudio)

		api.GET("/artworks", s.ListArtworks)
		api.GET("/artworks/:id", s.GetArtwork)

		api.GET("/tools", s.ListTools)
		api.POST("/tools", s.CreateTool)
		api.DELETE("/tools/:id", s.DeleteTool)
	}
}
