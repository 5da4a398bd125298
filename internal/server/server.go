package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/database"
	"github.com/emilythestrangee/devflow/backend/internal/handlers"
	"github.com/emilythestrangee/devflow/backend/internal/middleware"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type Server struct {
	db         database.Service
	handler    *handlers.Handler
	moderation *service.ModerationService
	events     *service.Dispatcher
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Bootstrap the schema over the raw driver, then hand off to gorm
	bootstrap, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := bootstrap.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	bootstrap.Close()

	// Initialize database
	db := database.New()
	gormDB := db.GetDB()

	// Notification fan-out runs on its own worker for the process lifetime
	events := service.NewDispatcher(gormDB)

	newServer := &Server{
		db:         db,
		handler:    handlers.NewHandler(gormDB, events),
		moderation: service.NewModerationService(gormDB),
		events:     events,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Question routes (public reads)
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/trending", s.handler.Question.GetTrendingQuestions)
		api.GET("/questions/tags", s.handler.Question.GetTags)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/questions", s.handler.Question.GetUserQuestions)
		api.GET("/users/:id/answers", s.handler.Answer.GetUserAnswers)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)

			// Notification routes
			protected.GET("/notifications", s.handler.Notification.GetNotifications)
			protected.GET("/notifications/unread-count", s.handler.Notification.GetUnreadCount)
			protected.PUT("/notifications/:id/read", s.handler.Notification.MarkAsRead)
			protected.PUT("/notifications/read-all", s.handler.Notification.MarkAllAsRead)

			// Privileged writes also pass the user-status gate
			gated := protected.Group("")
			gated.Use(middleware.UserStatus(s.moderation))
			{
				gated.POST("/questions", s.handler.Question.CreateQuestion)
				gated.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
				gated.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
				gated.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)

				gated.PUT("/answers/:id", s.handler.Answer.UpdateAnswer)
				gated.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)
				gated.POST("/answers/:id/vote", s.handler.Answer.VoteAnswer)
				gated.POST("/answers/:id/accept", s.handler.Answer.AcceptAnswer)
				gated.GET("/answers/:id/vote-status", s.handler.Answer.GetVoteStatus)

				gated.POST("/reports", s.handler.Moderation.SubmitReport)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/dashboard", s.handler.Moderation.GetDashboard)
				admin.GET("/reports", s.handler.Moderation.GetReports)
				admin.PUT("/reports/:id/review", s.handler.Moderation.ReviewReport)
				admin.POST("/users/:id/warn", s.handler.Moderation.WarnUser)
				admin.POST("/users/:id/suspend", s.handler.Moderation.SuspendUser)
				admin.POST("/users/make-admin", s.handler.Moderation.MakeUserAdmin)
			}
		}
	}

	return r
}
