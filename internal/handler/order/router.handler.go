package order

import (
	"dashboard-cargo/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	orders := e.Group("/v1/orders", middleware.AuthMiddleware())

	orders.POST("/confirm", h.Confirm)
	orders.POST("/preview", h.Preview)
	orders.POST("/:order_id/cancel", h.Cancel)
}
