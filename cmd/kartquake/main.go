package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartquake/kartquake/internal/backup"
	"github.com/kartquake/kartquake/internal/billing"
	"github.com/kartquake/kartquake/internal/database"
	"github.com/kartquake/kartquake/internal/llm"
	"github.com/kartquake/kartquake/internal/logging"
	"github.com/kartquake/kartquake/internal/push"
	"github.com/kartquake/kartquake/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "genkeys" {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(os.Getenv("KARTQUAKE_LOG_LEVEL"))

	port := os.Getenv("KARTQUAKE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("KARTQUAKE_DB_PATH")
	if dbPath == "" {
		dbPath = "kartquake.db"
	}

	jwtSecret := os.Getenv("KARTQUAKE_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("KARTQUAKE_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: []byte(jwtSecret),
		LLM: llm.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		MapsKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		Billing: billing.Config{
			SecretKey:          os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PremiumPriceID:     os.Getenv("STRIPE_PRICE_PREMIUM"),
			CostcoAddonPriceID: os.Getenv("STRIPE_PRICE_COSTCO_ADDON"),
			FrontendBaseURL:    frontendBaseURL(),
		},
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("BACKUP_S3_ENDPOINT"),
				Bucket:    os.Getenv("BACKUP_S3_BUCKET"),
				Region:    os.Getenv("BACKUP_S3_REGION"),
				AccessKey: os.Getenv("BACKUP_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("BACKUP_S3_SECRET_KEY"),
			},
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Kartquake running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func frontendBaseURL() string {
	if url := os.Getenv("FRONTEND_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:5173"
}
