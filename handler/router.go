package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/service"
)

type RouterDeps struct {
	Sessions  *middleware.SessionManager
	Upload    *UploadHandler
	Chat      *ChatHandler
	Insights  *InsightHandler
	Login     *LoginHandler
	Files     *FileHandler
	WebSocket *service.WebSocketService
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.Use(NewCorsHandler().CorsMiddleware)
	router.Use(deps.Sessions.LoadSession)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	router.GET("/login", deps.Login.HandleLogin)
	router.GET("/login/callback", deps.Login.HandleCallback)
	router.GET("/debug/session", deps.Login.HandleDebugSession)

	api := router.Group("/api")
	{
		api.POST("/upload", deps.Upload.UploadDocumentHandler)
		api.POST("/chat", deps.Chat.HandleChat)
		api.POST("/insights", deps.Insights.HandleInsights)
	}

	protected := router.Group("/")
	protected.Use(deps.Sessions.RequireSession)
	{
		protected.GET("/logout", deps.Login.HandleLogout)
		protected.GET("/api/me", deps.Login.HandleMe)
		protected.GET("/api/files", deps.Files.HandleList)
		protected.GET("/api/files/:filename", deps.Files.HandleDownload)
	}

	if deps.WebSocket != nil {
		router.GET("/ws/chat", gin.WrapF(deps.WebSocket.HandleChat))
	}
	return router
}
