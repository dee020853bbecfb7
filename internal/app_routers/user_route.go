package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/yanditv/api-app/internal/configuration"
	"github.com/yanditv/api-app/internal/middleware"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/users")
	userRoute.Use(middleware.Auth(container.Config.Auth.JwtSecret))
	{
		userRoute.GET("", container.UserHandler.ListUsers)
		userRoute.GET("/profile", container.UserHandler.GetProfile)
		userRoute.PATCH("/profile", container.UserHandler.UpdateProfile)
		userRoute.GET("/nearby", container.UserHandler.GetNearbyUsers)
		userRoute.PUT("/location", container.UserHandler.UpdateLocation)
		userRoute.GET("/:id/profile", container.UserHandler.GetProfileByID)
	}
}
