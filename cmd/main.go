package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/modkit/modkit-server/internal/api/http/handler"
	"github.com/modkit/modkit-server/internal/api/http/middleware"
	"github.com/modkit/modkit-server/internal/api/http/router"
	"github.com/modkit/modkit-server/internal/api/http/server"
	"github.com/modkit/modkit-server/internal/config"
	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/repository/postgres"
	"github.com/modkit/modkit-server/internal/security"
	"github.com/modkit/modkit-server/internal/service"
	"github.com/modkit/modkit-server/internal/token"
	"github.com/modkit/modkit-server/internal/vault"
	"github.com/modkit/modkit-server/internal/webhook"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	keys, err := security.NewKeyProvider(cfg.Security.AuthKey, cfg.Security.AuthSalt)
	if err != nil {
		logger.Fatal("failed to derive base key", "error", err)
	}
	if cfg.Security.StorageSalt == "" {
		logger.Fatal("missing required storage salt")
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	secretRepo := postgres.NewSecretRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	planRepo := postgres.NewPlanRepository(db)

	credentialVault := vault.New(secretRepo, security.NewCipher(keys), vault.StaticSalt(cfg.Security.StorageSalt), logger)
	verifier := webhook.NewVerifier()
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	subscriptionService := service.NewSubscription(subscriptionRepo, nil, logger)
	planService := service.NewPlan(planRepo, nil, logger)

	webhookHandler := handler.NewWebhook(verifier, credentialVault, subscriptionService, logger)
	planHandler := handler.NewPlan(planService, logger)
	secretHandler := handler.NewSecret(credentialVault, logger)
	authenticate := middleware.NewAuthenticate(tokenManager, logger)

	routes := router.New(webhookHandler, planHandler, secretHandler, authenticate, logger)
	httpServer := server.NewHTTPServer(routes.Handler(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var listener server.Listener
	if cfg.HTTP.EnableHTTPS {
		listener = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		listener = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", httpServer.Address())
		if err := httpServer.Start(listener); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion(logger)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion(logger *logger.Logger) {
	logger.Info("Build info",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
