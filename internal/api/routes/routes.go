package routes

import (
	"ticketdesk/internal/api/handlers"
	"ticketdesk/internal/api/middleware"
	"ticketdesk/internal/config"
	"ticketdesk/internal/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// Initialize services
	authService := services.NewAuthService(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	ticketHandler := handlers.NewTicketHandler(cfg)
	commentHandler := handlers.NewCommentHandler(cfg)
	adminHandler := handlers.NewAdminHandler(cfg)

	// Middleware
	r.Use(middleware.CORSMiddleware())

	// Public routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "Ticketdesk API is running",
			})
		})

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	// Attachment blobs are served by their generated names
	r.GET("/uploads/:name", ticketHandler.GetAttachment)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		// Auth routes (protected)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.GetMe)

		// Ticket routes
		tickets := protected.Group("/tickets")
		{
			tickets.POST("", ticketHandler.CreateTicket)
			tickets.GET("", ticketHandler.GetTickets)
			tickets.GET("/search", ticketHandler.SearchTickets)
			tickets.PUT("/:id", ticketHandler.UpdateTicket)
			tickets.DELETE("/:id", ticketHandler.DeleteTicket)

			// Comment routes
			tickets.GET("/:id/comments", commentHandler.GetComments)
			tickets.POST("/:id/comments", commentHandler.CreateComment)
		}

		protected.DELETE("/comments/:id", commentHandler.DeleteComment)

		// Admin routes
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/tickets", adminHandler.GetAllTickets)
			admin.PUT("/tickets/:id", adminHandler.UpdateTicket)
			admin.GET("/tickets/:id/logs", adminHandler.GetTicketLogs)
		}
	}
}
