package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bennyh960/stupid-chat-app/internal/config"
)

func CORSMiddleware() gin.HandlerFunc {
	// Basic CORS setup allowing the polling frontend
	config := cors.Config{
		AllowOrigins:     []string{config.AppConfig.FrontendURL, "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(config)
}
