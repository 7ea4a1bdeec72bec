package pricing

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	pricing := e.Group("/v1/pricing")

	pricing.POST("/calculate", h.Calculate)
}
