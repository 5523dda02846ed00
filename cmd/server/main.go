package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/config"
	"leaflens/backend/internal/database"
	"leaflens/backend/internal/handler"
	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/presence"
	"leaflens/backend/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	// Swagger imports
	_ "leaflens/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           LeafLens API
// @version         1.0
// @description     Social backend for the LeafLens plant community: friends, notifications, chat, presence and watering reminders.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.AppConfig

	// Connect to the database
	db := database.Connect(cfg.DatabaseURL)

	// Presence side-channel
	redisOpts, err := redis.ParseURL(redisURL(cfg.RedisURL))
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	presenceStore := presence.NewStore(redisClient)

	// Services
	liveHub := hub.NewHub()
	notifications := service.NewNotificationService(db, liveHub)
	chat := service.NewChatService(db, liveHub)
	friends := service.NewFriendshipService(db, notifications, chat)
	users := service.NewUserService(db)
	posts := service.NewPostService(db)

	// Nightly retention sweep for read notifications
	startRetentionSweep(notifications, cfg.NotificationRetention)

	// Handlers
	userHandler := handler.NewUserHandler(users, friends, presenceStore)
	friendHandler := handler.NewFriendHandler(friends)
	notificationHandler := handler.NewNotificationHandler(notifications)
	chatHandler := handler.NewChatHandler(chat)
	plantHandler := handler.NewPlantHandler(db)
	postHandler := handler.NewPostHandler(posts)

	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// The clients authenticate with Firebase when credentials are
	// configured; otherwise accounts are local with JWT sessions.
	authMiddleware := auth.AuthMiddleware()
	if cfg.FirebaseCredentialsPath != "" {
		fbClient, err := auth.InitializeFirebase(cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase auth: %v", err)
		}
		authMiddleware = auth.FirebaseAuthMiddleware(fbClient)
		log.Println("Using Firebase ID-token authentication")
	}

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", userHandler.Register)
			authRoutes.POST("/login", userHandler.Login)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(authMiddleware)
		{
			userRoutes.GET("", userHandler.SearchUsers) // Must be before /:uid
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PUT("/me", userHandler.UpdateMe)
			userRoutes.DELETE("/me", userHandler.DeleteMe)
			userRoutes.POST("/me/sync", userHandler.SyncProfile)
			userRoutes.POST("/me/presence", userHandler.Heartbeat)
			userRoutes.DELETE("/me/presence", userHandler.GoOffline)
			userRoutes.GET("/:uid", userHandler.GetUserByUID)
			userRoutes.GET("/:uid/presence", userHandler.GetPresence)
		}

		// Friendship routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(authMiddleware)
		{
			friendRoutes.GET("", friendHandler.ListFriends)
			friendRoutes.POST("/requests", friendHandler.SendRequest)
			friendRoutes.GET("/requests", friendHandler.ListRequests)
			friendRoutes.POST("/requests/:id/accept", friendHandler.AcceptRequest)
			friendRoutes.POST("/requests/:id/reject", friendHandler.RejectRequest)
			friendRoutes.GET("/status/:uid", friendHandler.Status)
			friendRoutes.DELETE("/:uid", friendHandler.Unfriend)
		}

		// Notification routes (protected)
		notificationRoutes := apiV1.Group("/notifications")
		notificationRoutes.Use(authMiddleware)
		{
			notificationRoutes.GET("", notificationHandler.List)
			notificationRoutes.GET("/unread", notificationHandler.UnreadCount)
			notificationRoutes.GET("/stream", notificationHandler.Stream)
			notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)
			notificationRoutes.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Conversation routes (protected)
		chatRoutes := apiV1.Group("/conversations")
		chatRoutes.Use(authMiddleware)
		{
			chatRoutes.GET("", chatHandler.ListConversations)
			chatRoutes.POST("", chatHandler.OpenConversation)
			chatRoutes.GET("/:id", chatHandler.GetConversation)
			chatRoutes.GET("/:id/messages", chatHandler.ListMessages)
			chatRoutes.POST("/:id/messages", chatHandler.SendMessage)
			chatRoutes.GET("/:id/stream", chatHandler.Stream)
		}

		// Community feed routes (protected)
		postRoutes := apiV1.Group("/posts")
		postRoutes.Use(authMiddleware)
		{
			postRoutes.POST("", postHandler.CreatePost)
			postRoutes.GET("", postHandler.ListFeed)
			postRoutes.POST("/:id/like", postHandler.ToggleLike)
		}
		storyRoutes := apiV1.Group("/stories")
		storyRoutes.Use(authMiddleware)
		{
			storyRoutes.POST("", postHandler.CreateStory)
			storyRoutes.GET("", postHandler.ListStories)
			storyRoutes.DELETE("/:id", postHandler.DeleteStory)
		}

		// Plant monitoring routes (protected)
		plantRoutes := apiV1.Group("/plants")
		plantRoutes.Use(authMiddleware)
		{
			plantRoutes.POST("", plantHandler.AddPlant)
			plantRoutes.GET("", plantHandler.ListPlants)
			plantRoutes.POST("/:id/water", plantHandler.WaterPlant)
			plantRoutes.DELETE("/:id", plantHandler.RemovePlant)
		}
	}

	fmt.Printf("Server is running on %s\n", cfg.ServerAddr)
	fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", cfg.ServerAddr)
	log.Fatal(router.Run(cfg.ServerAddr))
}

func redisURL(configured string) string {
	if configured != "" {
		return configured
	}
	return "redis://localhost:6379"
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if allowedOrigins == "" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	return cors.New(corsCfg)
}

// startRetentionSweep deletes read notifications older than the configured
// retention window, nightly at midnight.
func startRetentionSweep(notifications *service.NotificationService, retentionDays int) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	maxAge := time.Duration(retentionDays) * 24 * time.Hour

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc("0 0 0 * * *", func() {
		removed, err := notifications.Sweep(context.Background(), maxAge)
		if err != nil {
			log.Printf("Notification sweep failed: %v", err)
			return
		}
		log.Printf("Notification sweep removed %d read notifications older than %d days", removed, retentionDays)
	})
	if err != nil {
		log.Printf("Failed to create notification sweep job: %v", err)
		return
	}

	log.Println("Notification retention sweep scheduled (nightly at 12:00AM)")
	c.Start()
}
