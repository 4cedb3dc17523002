package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/chatapi"
	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/httpserver"
	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/memstore"
	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/redisstore"
	"github.com/rzeZenphrix/miku-interviewer/internal/app"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/config"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/logging"
	"github.com/rzeZenphrix/miku-interviewer/internal/relay"
	"github.com/rzeZenphrix/miku-interviewer/internal/wizard"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupSessionStore(cfg *config.Config, clock clockwork.Clock) (domain.SessionStore, *goredis.Client) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, using in-memory session store")
		return memstore.New(clock), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redisstore.New(client, clock), client
}

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service, redisClient *goredis.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		appSvc.Stop()

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store, redisClient := setupSessionStore(cfg, clock)

	chatClient := chatapi.NewClient(cfg.ChatAPIBaseURL, cfg.BotToken)

	wizardCtrl := wizard.NewController(store, chatClient, chatClient, clock, wizard.Config{
		GuildID:               cfg.GuildID,
		AnnouncementChannelID: cfg.AnnouncementChannelID,
		HostRoleID:            cfg.HostRoleID,
	})

	applicationRelay := relay.New(chatClient, chatClient, relay.Config{
		GuildID:        cfg.GuildID,
		ContactEnabled: cfg.ContactIntegrationEnabled,
	})

	appSvc := app.NewService(store, wizardCtrl, applicationRelay, clock, cfg.SessionIdleTimeout, cfg.SessionReapInterval)

	var healthChecks []httpserver.HealthCheck
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}

	srv := httpserver.NewServer(cfg, appSvc, healthChecks)

	done := runGracefulShutdown(srv, appSvc, redisClient)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
