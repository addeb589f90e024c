package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"aihouse/internal/config"
	"aihouse/internal/handler"
	"aihouse/internal/repository"
	"aihouse/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("AI House Backend")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Initialize Ark client
	arkClient := service.NewArkClient(&cfg.LLM)
	if cfg.LLM.Enabled {
		log.Printf("✅ Ark client initialized")
		log.Printf("   - API Base: %s", cfg.LLM.APIBase)
		log.Printf("   - Chat model: %s", cfg.LLM.ChatModel)
		log.Printf("   - Vision model: %s", cfg.LLM.VisionModel)
		log.Printf("   - Embedding model: %s", cfg.LLM.EmbeddingModel)
	} else {
		log.Println("⚠️  Ark API is disabled - chat and text parsing fall back to rule-based extraction")
		log.Println("   Set ARK_API_KEY environment variable to enable AI features")
	}

	// Initialize services
	imageStore, err := service.NewImageStore(&cfg.Upload)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}

	parser := service.NewPropertyParser(arkClient)
	generator := service.NewSQLGenerator(arkClient)
	executor := service.NewQueryExecutor(repo.DB())
	summarizer := service.NewResultSummarizer(arkClient)
	orchestrator := service.NewChatOrchestrator(arkClient, generator, executor, summarizer)
	authService := service.NewAuthService(&cfg.Auth, repo)

	log.Println("✅ Services initialized")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	propertyHandler := handler.NewPropertyHandler(repo, parser, imageStore, arkClient)
	chatHandler := handler.NewChatHandler(orchestrator, cfg.LLM.Enabled)
	uploadHandler := handler.NewUploadHandler(repo, imageStore)

	// Setup Gin router
	router := gin.Default()
	router.Use(handler.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "ai-house-backend",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Public auth routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", handler.AuthRequired(authService), authHandler.Me)
	}

	// Image serving stays public so listings render without a token
	router.GET("/api/upload/images/:filename", uploadHandler.ServeImage)
	router.GET("/api/upload/thumbnails/:filename", uploadHandler.ServeThumbnail)

	// Authenticated API routes
	api := router.Group("/api", handler.AuthRequired(authService))
	{
		properties := api.Group("/properties")
		{
			properties.POST("", propertyHandler.Create)
			properties.GET("", propertyHandler.List)
			properties.GET("/:id", propertyHandler.Get)
			properties.PUT("/:id", propertyHandler.Update)
			properties.DELETE("/:id", propertyHandler.Delete)
			properties.POST("/parse-text", propertyHandler.ParseText)
			properties.POST("/:id/embedding", propertyHandler.GenerateEmbedding)
			properties.POST("/embeddings/batch", propertyHandler.BatchEmbeddings)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/text", chatHandler.Text)
			chat.POST("/text/stream", chatHandler.TextStream)
			chat.POST("/image", chatHandler.Image)
			chat.POST("/query/execute", chatHandler.ExecuteQuery)
			chat.POST("/query/execute/stream", chatHandler.ExecuteQueryStream)
			chat.GET("/status", chatHandler.Status)
		}

		upload := api.Group("/upload")
		{
			upload.POST("/properties/:id/images", uploadHandler.Upload)
			upload.DELETE("/images/:id", uploadHandler.Delete)
			upload.PUT("/properties/:id/images/:imageID/primary", uploadHandler.SetPrimary)
		}
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
