package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/homeroomhq/homeroom/internal/ai"
	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/api"
	"github.com/homeroomhq/homeroom/internal/archive"
	"github.com/homeroomhq/homeroom/internal/attachment"
	"github.com/homeroomhq/homeroom/internal/config"
	"github.com/homeroomhq/homeroom/internal/jobs"
	"github.com/homeroomhq/homeroom/internal/pkg/distlock"
	"github.com/homeroomhq/homeroom/internal/repository/postgres"
)

func main() {
	log.Println("Homeroom analysis server starting")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("No database configured: set database.url or DATABASE_URL")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	log.Println("Database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unreachable, batch locks fall back to advisory locks: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis connected")
		}
	}

	// AI providers
	var providers []ai.Provider
	if cfg.OpenAI.Enabled && cfg.OpenAI.APIKey != "" {
		providers = append(providers, ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
		log.Printf("OpenAI provider enabled (model %s)", cfg.OpenAI.Model)
	}
	if cfg.Bedrock.Enabled {
		bedrock, err := ai.NewBedrockClient(context.Background(), cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			log.Printf("Bedrock provider unavailable: %v", err)
		} else {
			providers = append(providers, bedrock)
			log.Printf("Bedrock provider enabled (model %s)", cfg.Bedrock.ModelID)
		}
	}
	if len(providers) == 0 {
		log.Fatal("No AI provider configured: enable openai or bedrock")
	}
	// The configured default goes first; the registry defaults to the
	// first registered provider.
	if cfg.Analysis.DefaultProvider != "" {
		for i, p := range providers {
			if p.Name() == cfg.Analysis.DefaultProvider && i != 0 {
				providers[0], providers[i] = providers[i], providers[0]
			}
		}
	}
	registry := ai.NewRegistry(providers...)

	var archiver analyzer.Archiver
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		s3Archiver, err := archive.NewS3Archiver(context.Background(), cfg.Archive.S3Bucket, cfg.Archive.S3Region)
		if err != nil {
			log.Printf("Archive disabled, S3 init failed: %v", err)
		} else {
			archiver = s3Archiver
			log.Printf("Raw extraction archive enabled (bucket %s)", cfg.Archive.S3Bucket)
		}
	}

	limits := attachment.DefaultLimits()
	if cfg.Attachment.MaxPDFBytes > 0 {
		limits.MaxPDFBytes = cfg.Attachment.MaxPDFBytes
	}
	if cfg.Attachment.MaxImageBytes > 0 {
		limits.MaxImageBytes = cfg.Attachment.MaxImageBytes
	}
	if cfg.Attachment.MaxDocBytes > 0 {
		limits.MaxDocumentBytes = cfg.Attachment.MaxDocBytes
	}
	if cfg.Attachment.MaxImagesPerMail > 0 {
		limits.MaxImagesPerEmail = cfg.Attachment.MaxImagesPerMail
	}
	if cfg.Attachment.MaxOCRPages > 0 {
		limits.MaxOCRPages = cfg.Attachment.MaxOCRPages
	}

	lockTTL := cfg.Analysis.LockTTL()
	locks := func(ownerID string) analyzer.Locker {
		return distlock.NewLock(redisClient, db, "analysis:"+ownerID, lockTTL)
	}

	analysis := analyzer.NewService(analyzer.Config{
		Emails:      postgres.NewEmailRepo(db),
		Attachments: postgres.NewAttachmentRepo(db),
		Children:    postgres.NewChildRepo(db),
		Todos:       postgres.NewTodoRepo(db),
		Events:      postgres.NewEventRepo(db),
		Analyses:    postgres.NewAnalysisRepo(db),
		Registry:    registry,
		Limits:      limits,
		Archiver:    archiver,
		Cleanup:     postgres.NewCleanupRepo(db, cfg.Analysis.CleanupGraceDays),
		Locks:       locks,
		BatchDelay:  cfg.Analysis.BatchDelay(),
		BatchLimit:  cfg.Analysis.BatchLimit,
	})

	tracker := jobs.NewTracker(postgres.NewJobRepo(db), cfg.Jobs.Timeout())

	handlers := api.NewHandlers(analysis, tracker, db, registry.Names())
	server := api.NewServer(cfg.Server, handlers)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Server stopped")
}
