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

	"github.com/gin-gonic/gin"

	"github.com/davsync/davsync/internal/auth"
	"github.com/davsync/davsync/internal/config"
	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/scheduler"
	"github.com/davsync/davsync/internal/storage"
	"github.com/davsync/davsync/internal/sync"
	"github.com/davsync/davsync/internal/web"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting davsync...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var sink *storage.DiskSink
	if cfg.StorageStrategy.WriteToDisk() {
		sink, err = storage.NewDiskSink(cfg.StorageDiskDir)
		if err != nil {
			log.Fatalf("Failed to initialize disk storage: %v", err)
		}
	}

	engine := sync.NewEngine(database, cfg.StorageStrategy, sink)
	sched := scheduler.New(database, engine, scheduler.DefaultOptions())

	handlers := web.NewHandlers(database, engine, sched, sink)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(web.RequestLogger())
	router.Use(web.SecurityHeaders())

	web.SetupRoutes(router, handlers, auth.Credentials{
		Username:     cfg.AuthUsername,
		Password:     cfg.AuthPassword,
		PasswordHash: cfg.AuthPasswordHash,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		log.Printf("Listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Stopped")
}
