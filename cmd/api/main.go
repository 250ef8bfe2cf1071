package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"go-collection-todo/backend/internal/database"
	"go-collection-todo/backend/internal/routes"
)

func main() {
	// .envがないDocker環境では環境変数をそのまま使う
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db := database.InitDB()
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Fatal: Failed to initialize schema: %v", err)
	}

	r := routes.SetupRouter(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server listening on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
