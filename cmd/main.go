package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/walker-tournament/brackets"
	"github.com/Dosada05/walker-tournament/config"
	"github.com/Dosada05/walker-tournament/db"
	"github.com/Dosada05/walker-tournament/handlers"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/Dosada05/walker-tournament/routes"
	"github.com/Dosada05/walker-tournament/services"
	"github.com/Dosada05/walker-tournament/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	authService := services.NewAuthService(store.Users(), cfg.JWTSecretKey, cfg.JWTTTL)
	if cfg.OrganizerEmail != "" {
		organizer, err := authService.EnsureOrganizer(ctx, cfg.OrganizerEmail, cfg.OrganizerPassword)
		if err != nil {
			return fmt.Errorf("failed to bootstrap organizer: %w", err)
		}
		logger.Info("organizer account ready", slog.String("user_id", organizer.ID.String()))
	}

	// Загрузка изображений необязательна.
	var uploader storage.FileUploader
	r2Cfg := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Cfg.Configured() {
		r2, err := storage.NewR2Uploader(ctx, r2Cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		uploader = r2
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, image uploads are disabled")
	}

	auditService := services.NewAuditService(store.AuditLogs(), logger, cfg.AuditBufferSize)
	defer auditService.Close()

	tournamentService := services.NewTournamentService(
		store,
		brackets.NewSingleEliminationGenerator(),
		uploader,
		auditService,
		logger,
	)
	matchService := services.NewMatchService(store, auditService, logger)
	logger.Info("services initialized")

	router := routes.SetupRoutes(
		routes.Options{JWTSecret: cfg.JWTSecretKey, AllowedOrigins: cfg.CORSAllowedOrigins},
		handlers.NewAuthHandler(authService),
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewMatchHandler(matchService),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

// openStore returns the configured entity store and a function that releases it.
func openStore(cfg *config.Config, logger *slog.Logger) (repositories.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")

	closeDB := func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
			return
		}
		logger.Info("database connection closed")
	}
	return repositories.NewPostgresStore(dbConn), closeDB, nil
}
