package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/yanditv/api-app/internal/configuration"
	"github.com/yanditv/api-app/internal/handler"
	"github.com/yanditv/api-app/internal/hub"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	// Create monitor service with hub reference
	monitorService := hub.NewMonitorService(container.Hub)

	// Create monitor handler
	monitorHandler := handler.NewMonitorHandler(monitorService)

	// Monitor API group
	monitorGroup := router.Group("/monitor")
	{
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
