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

	"github.com/slotcal/slotcal-api/internal/config"
	"github.com/slotcal/slotcal-api/internal/database"
	"github.com/slotcal/slotcal-api/internal/google"
	"github.com/slotcal/slotcal-api/internal/handlers"
	"github.com/slotcal/slotcal-api/internal/repository"
	"github.com/slotcal/slotcal-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Database connected successfully")

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	accountRepo := repository.NewAccountRepository(db.DB)
	intervalRepo := repository.NewIntervalRepository(db.DB)
	schedulingRepo := repository.NewSchedulingRepository(db.DB)

	// Initialize Google client and services
	googleClient := google.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	credentialManager := service.NewCredentialManager(accountRepo, googleClient)
	availabilityService := service.NewAvailabilityService(userRepo, intervalRepo, schedulingRepo, credentialManager, googleClient)

	// Initialize HTTP handler
	handler := handlers.NewHandler(availabilityService)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errChan <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}

		log.Println("Application stopped")
		return nil

	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
