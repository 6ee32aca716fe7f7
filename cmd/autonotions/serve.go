package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/config"
	"github.com/autonotions/autonotions/internal/handlers"
	"github.com/autonotions/autonotions/internal/logger"
	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/router"
	"github.com/autonotions/autonotions/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := bootstrap()
		if err != nil {
			return err
		}
		defer cleanup()

		zap.L().Info("migrations applied")
		return nil
	},
}

// bootstrap loads config, installs the global logger and opens the migrated database.
func bootstrap() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(log)

	cleanup := func() {
		_ = log.Sync()
		restore()
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return cfg, cleanup, nil
}

func authProvider(cfg *config.Config) auth.Provider {
	if cfg.AuthProvider == config.ProviderGoTrue {
		return auth.NewGoTrueProvider(cfg.AuthURL, cfg.AuthAPIKey, &http.Client{Timeout: 10 * time.Second})
	}
	return auth.NewLocalProvider()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := auth.InitJWTSecret(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		return err
	}

	handlers.Configure(handlers.Options{
		Provider:       authProvider(cfg),
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		TokenTTL:       cfg.TokenTTL,
		AllowedOrigins: cfg.Origins(),
	})

	err = scheduler.Initialize(
		scheduler.CardReminders(cfg.ReminderInterval),
		scheduler.NotificationRetention(cfg.RetentionInterval, cfg.NotificationRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	gin.SetMode(gin.ReleaseMode)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("server listening", zap.String("addr", server.Addr), zap.String("auth_provider", cfg.AuthProvider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		realtime.Default.CloseAll()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
