// Command server runs the HCGateway HTTP API.
//
//	@title						HCGateway API
//	@version					2.0
//	@description				Per-user encrypted health record sync backend.
//	@BasePath					/api/v2
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/api"
	"github.com/ITensEI/HCGateway/internal/api/handler"
	"github.com/ITensEI/HCGateway/internal/core/crypto"
	"github.com/ITensEI/HCGateway/internal/core/ports"
	"github.com/ITensEI/HCGateway/internal/core/service"
	mongodb "github.com/ITensEI/HCGateway/internal/infrastructure/db/mongo"
	redisdb "github.com/ITensEI/HCGateway/internal/infrastructure/db/redis"
	"github.com/ITensEI/HCGateway/internal/infrastructure/messaging"
	"github.com/ITensEI/HCGateway/internal/infrastructure/queue"
	"github.com/ITensEI/HCGateway/internal/pkg/config"
	"github.com/ITensEI/HCGateway/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("startup failed")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "hcgateway",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	records := mongodb.NewRecordRepository(mongoClient, cfg.Mongo.UserDBPrefix)
	auditRepo := mongodb.NewAuditRepository(db)

	var messenger ports.Messenger = messaging.Disabled{}
	if cfg.Firebase.ProjectID != "" {
		fcm, err := messaging.NewFirebaseMessenger(ctx, messaging.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			CredentialsFile: cfg.Firebase.CredentialsFile,
		})
		if err != nil {
			return err
		}
		messenger = fcm
	} else {
		log.Warn().Msg("FCM_PROJECT_ID not set, device messages are disabled")
	}

	// Audit workers are stopped only after the HTTP server has shut down;
	// they then drain their buffers, so events from the last requests are kept.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log)
	dispatcher.Start(workerCtx)

	// --- Services ---
	limiter := redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.LockWindow)
	hasher := crypto.NewArgon2Hasher(crypto.DefaultArgon2Params)

	e := api.NewRouter(api.Deps{
		Sessions:      service.NewSessionService(users, hasher, limiter, cfg.TokenTTL, log),
		Sync:          service.NewSyncService(users, records, dispatcher, log),
		Notifications: service.NewNotificationService(users, messenger, log),
		Probes: map[string]handler.Pinger{
			"mongo": mongodb.NewPinger(mongoClient),
			"redis": redisdb.NewPinger(rdb),
		},
		Log: log,
	})

	// --- Serve ---
	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		stopWorkers()
		dispatcher.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = e.Shutdown(shutdownCtx)
	stopWorkers()
	dispatcher.Wait()
	return err
}
