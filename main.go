package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pawpal/adoption_backend/controllers"
	"github.com/pawpal/adoption_backend/database"
	"github.com/pawpal/adoption_backend/docs"
	"github.com/pawpal/adoption_backend/middleware"
	"github.com/pawpal/adoption_backend/notifications"
	"github.com/pawpal/adoption_backend/services"
	"github.com/pawpal/adoption_backend/websocket"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Adoption API
// @version         1.0
// @description     API Server for Pet Adoption Application
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	database.Connect()
	database.Migrate()

	// Set up Swagger info
	docs.SwaggerInfo.Title = "Adoption API"
	docs.SwaggerInfo.Description = "API Server for Pet Adoption Application"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Realtime registry: local hub, with an optional Redis backplane for
	// multi-instance room fan-out
	hub := websocket.NewHub()
	go hub.Run()

	var registry websocket.Registry = hub
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		backplane, err := websocket.NewBackplane(context.Background(), hub, rdb)
		if err != nil {
			log.Fatalf("Failed to start redis backplane: %v", err)
		}
		registry = backplane
		log.Printf("Redis backplane enabled (%s)", addr)
	}

	// Services
	push := notifications.NewExpoDispatcher()
	adoptionService := services.NewAdoptionService(database.DB, registry, push)
	messageService := services.NewMessageService(database.DB, registry, push)
	likeService := services.NewLikeService(database.DB)
	commentService := services.NewCommentService(database.DB)

	// Controllers
	authController := controllers.NewAuthController(database.DB)
	userController := controllers.NewUserController(database.DB)
	petController := controllers.NewPetController(database.DB, adoptionService)
	adoptionController := controllers.NewAdoptionController(adoptionService)
	messageController := controllers.NewMessageController(messageService)
	commentController := controllers.NewCommentController(commentService)
	likeController := controllers.NewLikeController(likeService)
	notificationController := controllers.NewNotificationController(database.DB)

	eventHandler := websocket.NewEventHandler(hub, adoptionService, messageService)

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Authentication routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// User routes
		api.GET("/user/:id", userController.GetUser)
		api.PATCH("/user/:id/profile-picture", userController.UpdateProfilePicture)

		// Pet routes
		api.POST("/pets/register", petController.RegisterPet)
		api.GET("/pets", petController.GetPets)
		api.PATCH("/pets/setPetToAdopted/:id", petController.SetPetToAdopted)
		api.POST("/pets/:id/like", likeController.LikePet)
		api.DELETE("/pets/:id/like", likeController.UnlikePet)
		api.GET("/pets/:id/liked", likeController.HasLikedPet)

		// Adoption request routes
		api.GET("/adoption-requests/pending/:userId", adoptionController.GetPendingRequests)

		// Message routes
		api.GET("/messages/:receiverId", messageController.GetConversation)
		api.POST("/messages", messageController.SendMessage)

		// Comment routes
		api.GET("/comments/pet/:petId", commentController.GetCommentsByPet)
		api.POST("/comments", commentController.CreateComment)
		api.POST("/comments/:id/like", likeController.LikeComment)
		api.DELETE("/comments/:id/like", likeController.UnlikeComment)
		api.GET("/comments/:id/liked", likeController.HasLikedComment)

		// Notification routes
		api.PATCH("/notifications/updateNotificationToken", notificationController.UpdateNotificationToken)
	}

	// WebSocket route
	router.GET("/ws", eventHandler.HandleConnection)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server running on port %s", port)
	log.Printf("Swagger documentation available at http://localhost:%s/swagger/index.html", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
