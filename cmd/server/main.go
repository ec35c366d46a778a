package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"meet-recorder-bot/api/rest/routes"
	"meet-recorder-bot/config"
	"meet-recorder-bot/core/admission"
	"meet-recorder-bot/core/capture"
	"meet-recorder-bot/core/orchestrator"
	"meet-recorder-bot/core/pipeline"
	"meet-recorder-bot/core/registry"
	"meet-recorder-bot/core/repository"
	"meet-recorder-bot/core/session"
	"meet-recorder-bot/core/status"
	"meet-recorder-bot/storage"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Bot starting with config: apiBaseUrl=%s headless=%v recordingDuration=%s",
		cfg.APIBaseURL, cfg.Headless, cfg.RecordingDuration)

	ctx := context.Background()

	// Optional integrations: event history and artifact archival are only
	// wired when configured.
	var events *repository.EventRepository
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		events = repository.NewEventRepository(db)
		log.Println("Database connected successfully")
	}

	var archiver pipeline.Archiver
	if cfg.ArchiveBucket != "" {
		a, err := storage.NewArchiver(ctx, cfg.ArchiveBucket)
		if err != nil {
			log.Fatalf("Failed to initialize artifact archiver: %v", err)
		}
		archiver = a
		log.Printf("Archiving artifacts to s3://%s", cfg.ArchiveBucket)
	}

	// Core components
	reg := registry.New()
	driver := session.NewDriver(cfg.Headless)
	protocol := admission.NewProtocol(admission.StrategiesFromSelectors(cfg.NameSelectors))
	supervisor := capture.NewSupervisor(cfg.FFmpegBin, cfg.TempDir, cfg.AudioInput, cfg.AudioFormat)
	reporter := status.NewReporter(cfg.APIBaseURL)
	pipe := pipeline.NewPipeline(cfg.APIBaseURL, reporter, archiver)

	var eventLog orchestrator.EventLog
	if events != nil {
		eventLog = events
	}

	orch := orchestrator.New(
		reg,
		driver,
		protocol,
		supervisor,
		pipe,
		reporter,
		eventLog,
		cfg.BotDisplayName,
		cfg.RecordingDuration,
		cfg.TempDir,
	)

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, orch, events)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Bot server running on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
