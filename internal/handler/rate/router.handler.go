package rate

import (
	"dashboard-cargo/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	rates := e.Group("/v1/rates", middleware.OptionalAuth())

	rates.POST("/quote", h.Quote)
	rates.POST("/search", h.Search)
	rates.POST("/select", h.Select)
	rates.GET("/session/:session_id", h.Session)
}
