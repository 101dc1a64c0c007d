package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"waitlist-api/pkg/api"
	"waitlist-api/pkg/clients/mailer"
	"waitlist-api/pkg/config"
	"waitlist-api/pkg/services"
	"waitlist-api/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the application and blocks until the server stops; deferred
// cleanup runs before main exits
func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}

	// Initialize configuration
	cfg := config.LoadConfig()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize submission storage: %w", err)
	}
	defer closeStore()

	// Initialize email client
	mailClient := mailer.NewClient(mailer.Options{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
		FromName: cfg.FromName,
		Timeout:  cfg.SMTPTimeout,
	})
	if !cfg.EmailConfigured() {
		log.Println("SMTP credentials not configured, welcome emails are disabled")
	}
	dispatcher := mailer.NewDispatcher(mailClient, cfg.EmailWorkers)

	// Initialize services
	submissionService := services.NewSubmissionService(store, dispatcher)

	// Initialize handlers
	handlers := api.NewHandlers(submissionService, cfg)
	router := api.NewRouter(handlers, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("Server starting on port %d (%s) with allowed origins: %s",
		cfg.Port, cfg.Environment, strings.Join(cfg.AllowedOrigins, ", "))
	if err := serve(srv, quit); err != nil {
		return err
	}

	log.Println("Server exited")
	return nil
}

// serve runs srv until it fails to listen or a signal arrives on quit, then
// shuts it down gracefully
func serve(srv *http.Server, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	return nil
}

// openStore picks the submission backend named by STORAGE_DRIVER
func openStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageDriver {
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "json", "":
		var opts []storage.JSONFileOption
		if cfg.SeedSubmissions {
			opts = append(opts, storage.WithSeed())
		}
		s, err := storage.NewJSONFileStore(cfg.SubmissionsFile, opts...)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Storing submissions in %s", s.Path())
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
