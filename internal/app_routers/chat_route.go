package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/yanditv/api-app/internal/configuration"
	"github.com/yanditv/api-app/internal/middleware"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/chat")
	chatRoute.Use(middleware.Auth(container.Config.Auth.JwtSecret))
	{
		chatRoute.POST("/conversations", container.ChatHandler.CreateConversation)
		chatRoute.GET("/conversations", container.ChatHandler.GetConversations)
		chatRoute.GET("/conversations/:id/messages", container.ChatHandler.GetMessages)
		chatRoute.POST("/conversations/:id/read", container.ChatHandler.MarkAsRead)
		chatRoute.POST("/messages", container.ChatHandler.SendMessage)
		chatRoute.DELETE("/messages/:id", container.ChatHandler.DeleteMessage)
	}
}
