package discount

import (
	"dashboard-cargo/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	discounts := e.Group("/v1/discounts", middleware.OptionalAuth())

	discounts.GET("/best", h.Best)
}
