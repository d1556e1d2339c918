package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/uggybe/storage-buddy-bot/cmd"
	"github.com/uggybe/storage-buddy-bot/internal/core/logger"
	"github.com/uggybe/storage-buddy-bot/internal/database"
	"github.com/uggybe/storage-buddy-bot/internal/integrations/googlesheets"
	"github.com/uggybe/storage-buddy-bot/internal/inventory/categories"
	"github.com/uggybe/storage-buddy-bot/internal/inventory/items"
	"github.com/uggybe/storage-buddy-bot/internal/inventory/warehouses"
	"github.com/uggybe/storage-buddy-bot/internal/middleware"
	"github.com/uggybe/storage-buddy-bot/internal/photos"
	"github.com/uggybe/storage-buddy-bot/internal/reports"
	"github.com/uggybe/storage-buddy-bot/internal/repository"
	"github.com/uggybe/storage-buddy-bot/internal/transactions"
	"github.com/uggybe/storage-buddy-bot/internal/users"
	"github.com/uggybe/storage-buddy-bot/pkg/security"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	// Subcommands (migrate) run instead of the server.
	if len(os.Args) > 1 {
		cmd.Execute(ctx)
		return
	}

	zapLog := logger.NewLogger()
	defer zapLog.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		zapLog.Fatal("DATABASE_URL environment variable is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		zapLog.Fatal("failed to connect to the database", zap.Error(err))
	}
	defer db.Close()

	zapLog.Info("Connected to the database successfully")

	repo := repository.NewRepository(db)

	txHandler := transactions.NewHandler(repo)
	auditLog := txHandler.Repository()

	photoDir := os.Getenv("PHOTO_DIR")
	if photoDir == "" {
		photoDir = "./photos"
	}
	blobs, err := photos.NewDiskStore(photoDir)
	if err != nil {
		zapLog.Fatal("failed to initialize photo storage", zap.Error(err))
	}

	itemRepo := items.NewRepository(repo)
	itemService := items.NewItemService(itemRepo, auditLog, blobs, zapLog)
	itemHandler := items.NewItemHandlerWithService(itemService, zapLog)

	photoService := photos.NewPhotoService(itemRepo, blobs, zapLog)
	photoHandler := photos.NewHandler(photoService, zapLog)

	userRepo := users.NewUserRepository(repo)
	gate := security.NewGate(userRepo, auditLog, zapLog)
	loginHandler := security.NewLoginHandler(gate)
	userHandler := users.NewHandler(userRepo)

	categoryHandler := categories.NewHandler(repo, auditLog, zapLog)
	warehouseHandler := warehouses.NewHandler(repo, auditLog, zapLog)

	relayURL := os.Getenv("RELAY_URL")
	if relayURL == "" {
		relayURL = "http://localhost:3001"
	}

	var sheetSink reports.SheetAppender
	if os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON") != "" || os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE") != "" {
		sheets, err := googlesheets.NewExportService(ctx)
		if err != nil {
			zapLog.Warn("sheet export disabled", zap.Error(err))
		} else {
			sheetSink = sheets
		}
	}
	reportService := reports.NewService(auditLog, reports.NewRelayClient(relayURL), sheetSink, zapLog)
	reportHandler := reports.NewHandler(reportService, zapLog)

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware(zapLog))
	router.Use(middleware.TimeoutMiddleware(30 * time.Second))

	loginHandler.RegisterRoutes(router)

	api := router.Group("/", security.JWTMiddleware())
	itemHandler.RegisterRoutes(api)
	photoHandler.RegisterRoutes(api)
	categoryHandler.RegisterRoutes(api)
	warehouseHandler.RegisterRoutes(api)
	txHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		zapLog.Fatal("server stopped", zap.Error(err))
	}
}
