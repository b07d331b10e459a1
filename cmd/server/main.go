package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spark-ledger/internal/ai"
	"spark-ledger/internal/auth"
	"spark-ledger/internal/cache"
	"spark-ledger/internal/catalog"
	"spark-ledger/internal/config"
	"spark-ledger/internal/database"
	"spark-ledger/internal/handlers"
	"spark-ledger/internal/reports"
	"spark-ledger/internal/sales"
	"spark-ledger/internal/settings"
	"spark-ledger/internal/uploads"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := database.SeedSettings(db, cfg.DefaultSettings); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	images, err := uploads.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}

	// Optional: without Redis the Idempotency-Key header is ignored
	var guard cache.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		guard = cache.NewRedisGuard(rdb, cfg.IdempotencyTTL)
		log.Println("connected to redis")
	}

	store := catalog.NewStore(db, images)
	ledger := sales.NewLedger(db)
	reporter := reports.NewReporter(db, ledger, time.Now, cfg.StoreLocation)

	var assistant handlers.Assistant
	if cfg.GeminiAPIKey != "" {
		assistant = ai.NewAgent(cfg.GeminiAPIKey, ai.NewTools(store, reporter, cfg.StoreLocation))
	} else {
		log.Println("GEMINI_API_KEY not set, /api/ask is disabled")
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handlers.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = uploads.MaxFiles * uploads.MaxFileSize

	handlers.SetupRoutes(r, handlers.Deps{
		DB:                db,
		Tokens:            auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Catalog:           store,
		Engine:            sales.NewEngine(db, time.Now),
		Ledger:            ledger,
		Reporter:          reporter,
		Settings:          settings.NewStore(db),
		Images:            images,
		UploadDir:         images.Dir(),
		Guard:             guard,
		Assistant:         assistant,
		Location:          cfg.StoreLocation,
		AllowRegistration: cfg.AllowRegistration,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("server stopped")
}
