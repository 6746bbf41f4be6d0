package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tenderhq/tenderdesk/internal/api"
	"github.com/tenderhq/tenderdesk/internal/app"
	iauth "github.com/tenderhq/tenderdesk/internal/auth"
	"github.com/tenderhq/tenderdesk/internal/cache"
	"github.com/tenderhq/tenderdesk/internal/database"
	"github.com/tenderhq/tenderdesk/internal/realtime"
	"github.com/tenderhq/tenderdesk/internal/services"
	"github.com/tenderhq/tenderdesk/pkg/logger"
	"github.com/tenderhq/tenderdesk/pkg/mail"
)

func main() {
	configPath := flag.String("config", "", "additional directory to search for config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(configPath string) error {
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}

	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenAndMigrate(cfg.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	var rateLimitStore cache.Store
	if cfg.Server.RateLimit.Enabled {
		rateLimitStore = cache.NewMemoryStore()
		if cfg.Cache.Redis.Enabled {
			redisStore, err := cache.NewRedisStore(cfg.Cache.RedisClientConfig())
			if err != nil {
				logger.Warn("redis unavailable, falling back to in-memory rate limiting", zap.Error(err))
			} else {
				defer redisStore.Close()
				rateLimitStore = redisStore
			}
		}
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return err
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return err
	}

	hub := realtime.NewHub()

	userService, err := services.NewUserService(db)
	if err != nil {
		return err
	}
	notificationService, err := services.NewNotificationService(db, hub)
	if err != nil {
		return err
	}
	tenderService, err := services.NewTenderService(db, hub, notificationService)
	if err != nil {
		return err
	}
	teamService, err := services.NewTeamService(db, notificationService, mailer)
	if err != nil {
		return err
	}

	if cfg.Reminders.Enabled {
		reminderService, err := services.NewReminderService(db, notificationService,
			services.WithReminderSchedule(cfg.Reminders.Schedule))
		if err != nil {
			return err
		}
		if err := reminderService.Start(); err != nil {
			return err
		}
		defer reminderService.Stop()
	}

	router := api.NewRouter(api.Options{
		JWT:           jwtService,
		Hub:           hub,
		Users:         userService,
		Notifications: notificationService,
		Tenders:       tenderService,
		Teams:         teamService,

		RateLimitStore:    rateLimitStore,
		RateLimitRequests: cfg.Server.RateLimit.Requests,
		RateLimitWindow:   cfg.Server.RateLimit.Window,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
