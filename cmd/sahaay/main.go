package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avikal/sahaay/internal/billing"
	"github.com/avikal/sahaay/internal/database"
	"github.com/avikal/sahaay/internal/email"
	"github.com/avikal/sahaay/internal/logging"
	"github.com/avikal/sahaay/internal/photo"
	"github.com/avikal/sahaay/internal/push"
	"github.com/avikal/sahaay/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("SAHAAY_LOG_LEVEL"))

	port := env("SAHAAY_PORT", "8080")
	dbPath := env("SAHAAY_DB_PATH", "sahaay.db")
	baseURL := env("SAHAAY_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("SAHAAY_POSTMARK_TOKEN"),
		env("SAHAAY_FROM_EMAIL", "alerts@sahaay.care"),
		baseURL,
	)

	cfg := server.Config{
		BaseURL: baseURL,
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("SAHAAY_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("SAHAAY_VAPID_PRIVATE_KEY"),
		},
		Photo: photo.Config{
			Endpoint:  os.Getenv("SAHAAY_S3_ENDPOINT"),
			Bucket:    os.Getenv("SAHAAY_S3_BUCKET"),
			Region:    env("SAHAAY_S3_REGION", "auto"),
			AccessKey: os.Getenv("SAHAAY_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SAHAAY_S3_SECRET_KEY"),
		},
		Billing: billing.Config{
			SecretKey:         os.Getenv("SAHAAY_STRIPE_SECRET_KEY"),
			WebhookSecret:     os.Getenv("SAHAAY_STRIPE_WEBHOOK_SECRET"),
			PlusPriceID:       os.Getenv("SAHAAY_STRIPE_PLUS_PRICE_ID"),
			PlusAnnualPriceID: os.Getenv("SAHAAY_STRIPE_PLUS_ANNUAL_PRICE_ID"),
			SuccessURL:        baseURL + "/billing/success",
			CancelURL:         baseURL + "/billing/cancel",
		},
	}

	srv := server.New(db, emailClient, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := srv.Scanner()
	scanner.Start(ctx)
	defer scanner.Stop()

	// Periodic cleanup of expired sessions, login codes, and rate limit state.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				if _, err := srv.LoginCodeStore().DeleteExpired(); err != nil {
					logger.Error("login code cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("sahaay running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
