// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/handlers"
	"go-collection-todo/backend/internal/repositories"
	"go-collection-todo/backend/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sql.DB) *gin.Engine {
	r := gin.Default()

	// CORS対策
	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3000"
	}
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{corsOrigin}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	r.Use(ErrorMiddleware())

	// リポジトリ
	userRepo := repositories.NewUserRepository(db)
	collectionRepo := repositories.NewCollectionRepository(db)
	todoRepo := repositories.NewTodoRepository(db)

	// サービス
	jwtService := services.NewJWTService()
	authzService := services.NewAuthzService(collectionRepo, todoRepo)
	userService := services.NewUserService(userRepo, jwtService)
	collectionService := services.NewCollectionService(collectionRepo, todoRepo, userRepo, authzService)
	todoService := services.NewTodoService(todoRepo, userRepo, authzService)

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	todoHandler := handlers.NewTodoHandler(todoService)

	r.GET("/api/v1/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	users := api.Group("/users")
	{
		users.POST("/register", userHandler.RegisterHandler)
		users.POST("/login", userHandler.LoginHandler)
		users.POST("/refresh-token", userHandler.RefreshTokenHandler)
	}

	usersAuth := api.Group("/users")
	usersAuth.Use(AuthMiddleware(jwtService))
	{
		usersAuth.POST("/logout", userHandler.LogoutHandler)
		usersAuth.GET("/me", userHandler.GetCurrentUserHandler)
		usersAuth.POST("/change-password", userHandler.ChangePasswordHandler)
	}

	collections := api.Group("/collections")
	collections.Use(AuthMiddleware(jwtService))
	{
		collections.GET("/user", collectionHandler.GetCollectionsByUsernameHandler)
		collections.GET("/me", collectionHandler.GetOwnCollectionsHandler)
		collections.POST("/me", collectionHandler.CreateCollectionHandler)
		collections.PATCH("/me/:collectionId/privacy", collectionHandler.TogglePrivacyHandler)
		collections.PUT("/me/:collectionId", collectionHandler.UpdateCollectionHandler)
		collections.DELETE("/me/:collectionId", collectionHandler.DeleteCollectionHandler)
		collections.GET("/:collectionId", collectionHandler.GetCollectionHandler)
	}

	todos := api.Group("/todos")
	todos.Use(AuthMiddleware(jwtService))
	{
		todos.POST("/:collectionId", todoHandler.CreateTodoHandler)
		todos.GET("/getTodos/:collectionId", todoHandler.GetTodosByCollectionHandler)
		todos.GET("/:todoId", todoHandler.GetTodoByIDHandler)
		todos.PUT("/:todoId", todoHandler.UpdateTodoHandler)
		todos.DELETE("/:todoId", todoHandler.DeleteTodoHandler)
		todos.PATCH("/:todoId/toggle", todoHandler.ToggleTodoStatusHandler)
		todos.PATCH("/:todoId/share", todoHandler.ShareTodoHandler)
		todos.PATCH("/:todoId/unshare", todoHandler.UnshareTodoHandler)
	}

	return r
}
