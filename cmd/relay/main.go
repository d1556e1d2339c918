package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/uggybe/storage-buddy-bot/internal/core/logger"
	"github.com/uggybe/storage-buddy-bot/internal/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	zapLog := logger.NewLogger()
	defer zapLog.Sync()

	router := gin.Default()
	handler := relay.NewHandler(relay.NewClient(token), zapLog)
	handler.RegisterRoutes(router)

	addr := os.Getenv("RELAY_ADDR")
	if addr == "" {
		addr = ":3001"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("relay server stopped: %v", err)
	}
}
