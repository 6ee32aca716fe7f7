package router

import (
	"time"

	"github.com/autonotions/autonotions/internal/config"
	"github.com/autonotions/autonotions/internal/handlers"
	"github.com/autonotions/autonotions/internal/metrics"
	"github.com/autonotions/autonotions/internal/middleware"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit)
	member := middleware.WorkspaceMember()
	admin := middleware.RequireWorkspaceRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", middleware.RateLimit(limiter), handlers.CreateUser)
			auth.POST("/login", middleware.RateLimit(limiter), handlers.LoginUser)
			auth.POST("/signin", middleware.RateLimit(limiter), handlers.LoginUser)

			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/me", middleware.AuthMiddleware(), handlers.UpdateUser)
			auth.DELETE("/me", middleware.AuthMiddleware(), handlers.DeleteUser)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.LogoutUser)
		}

		protected := api.Group("", middleware.AuthMiddleware())
		{
			protected.GET("/users/search", handlers.SearchUsers)

			protected.GET("/notifications", handlers.ListNotifications)
			protected.POST("/notifications/read", handlers.MarkAllNotificationsRead)
			protected.POST("/notifications/:notification_id/read", handlers.MarkNotificationRead)

			protected.POST("/notes/preview", handlers.PreviewMarkdown)

			protected.GET("/ws/:workspace_id", member, handlers.WebSocket)

			protected.POST("/workspaces", handlers.CreateWorkspace)
			protected.GET("/workspaces", handlers.ListWorkspaces)
		}

		workspace := protected.Group("/workspaces/:workspace_id", member)
		{
			workspace.GET("", handlers.GetWorkspace)
			workspace.PATCH("", admin, handlers.UpdateWorkspace)
			workspace.DELETE("", handlers.DeleteWorkspace)
			workspace.GET("/dashboard", handlers.GetDashboard)

			workspace.GET("/members", handlers.ListMembers)
			workspace.POST("/members", admin, handlers.AddMember)
			workspace.PATCH("/members/:user_id", admin, handlers.UpdateMemberRole)
			workspace.DELETE("/members/:user_id", handlers.RemoveMember)

			workspace.GET("/channels", handlers.ListChannels)
			workspace.POST("/channels", handlers.CreateChannel)
			workspace.PATCH("/channels/:channel_id", handlers.UpdateChannel)
			workspace.DELETE("/channels/:channel_id", handlers.DeleteChannel)
			workspace.GET("/channels/:channel_id/messages", handlers.ListMessages)
			workspace.POST("/channels/:channel_id/messages", handlers.SendMessage)
			workspace.PATCH("/messages/:message_id", handlers.EditMessage)
			workspace.DELETE("/messages/:message_id", handlers.DeleteMessage)

			workspace.GET("/dms", handlers.ListConversations)
			workspace.GET("/dms/:user_id", handlers.ListDirectMessages)
			workspace.POST("/dms/:user_id", handlers.SendDirectMessage)
			workspace.GET("/recipients", handlers.SearchRecipients)

			workspace.GET("/boards", handlers.ListBoards)
			workspace.POST("/boards", handlers.CreateBoard)
			workspace.GET("/boards/:board_id", handlers.GetBoard)
			workspace.PATCH("/boards/:board_id", handlers.RenameBoard)
			workspace.DELETE("/boards/:board_id", handlers.DeleteBoard)
			workspace.POST("/boards/:board_id/columns", handlers.AddColumn)
			workspace.POST("/boards/:board_id/cards", handlers.AddCard)
			workspace.PATCH("/columns/:column_id", handlers.UpdateColumn)
			workspace.DELETE("/columns/:column_id", handlers.DeleteColumn)
			workspace.PATCH("/cards/:card_id", handlers.UpdateCard)
			workspace.DELETE("/cards/:card_id", handlers.DeleteCard)
			workspace.POST("/cards/:card_id/move", handlers.MoveCard)

			workspace.GET("/notes", handlers.ListNotes)
			workspace.POST("/notes", handlers.CreateNote)
			workspace.GET("/notes/:note_id", handlers.GetNote)
			workspace.PATCH("/notes/:note_id", handlers.UpdateNote)
			workspace.DELETE("/notes/:note_id", handlers.DeleteNote)
			workspace.GET("/notes/:note_id/preview", handlers.RenderNote)
		}
	}

	return r
}
