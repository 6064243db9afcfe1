package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/bennyh960/stupid-chat-app/internal/handlers"
	"github.com/bennyh960/stupid-chat-app/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	{
		chat.GET("", handlers.GetChat)
		chat.POST("", middleware.UploadRateLimit(), handlers.SendChat)
		chat.POST("/delete-file", handlers.DeleteFile)
		chat.POST("/clear", handlers.ClearChat)
	}

	r.GET("/download/:filename", handlers.DownloadAttachment)
}
