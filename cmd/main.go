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

	"github.com/Dosada05/bracket-engine/config"
	"github.com/Dosada05/bracket-engine/db"
	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/realtime"
	"github.com/Dosada05/bracket-engine/repositories"
	api "github.com/Dosada05/bracket-engine/routes"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type storageLayer struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	close           func()
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	// Ожидание сигнала завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Архив результатов в Cloudflare R2 (опционально)
	var archiver services.ResultArchiver
	if cfg.R2.Enabled() {
		objects, err := storage.NewR2ObjectStore(ctx, storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewResultArchive(objects)
		logger.Info("Cloudflare R2 result archive enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("result archive disabled")
	}

	wsHub := realtime.NewHub(logger)

	serviceCfg := services.DefaultBracketServiceConfig()
	serviceCfg.Policy.LeagueMaxParticipants = cfg.LeagueMaxParticipants
	serviceCfg.MaxAttempts = cfg.TxMaxAttempts
	serviceCfg.RetryBaseDelay = cfg.TxRetryBaseDelay

	bracketService := services.NewBracketService(
		store.tx,
		store.tournamentRepo,
		store.matchRepo,
		store.participantRepo,
		repositories.NewBracketCache(cfg.BracketCacheTTL, cfg.BracketCacheSize),
		wsHub,
		archiver,
		serviceCfg,
		logger,
	)
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Bracket:   handlers.NewBracketHandler(bracketService, logger),
		Match:     handlers.NewMatchHandler(bracketService, logger),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}, middleware.NewAuthenticator(cfg.JWTSecretKey, logger), cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Инициализация WebSocket Hub: живет, пока не остановлен сервер
	g.Go(func() error {
		logger.Info("WebSocket Hub started")
		wsHub.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		exitCode = 1
	}

	store.close()
	logger.Info("application exited")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func openStorage(cfg *config.Config, logger *slog.Logger) (*storageLayer, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := repositories.NewMemoryStore()
		return &storageLayer{
			tx:              mem,
			tournamentRepo:  mem.Tournaments(),
			matchRepo:       mem.Matches(),
			participantRepo: mem.Participants(),
			close:           func() {},
		}, nil
	}

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(dbConn.DB); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations applied")

	return &storageLayer{
		tx:              repositories.NewPostgresTransactor(dbConn, logger),
		tournamentRepo:  repositories.NewPostgresTournamentRepository(dbConn),
		matchRepo:       repositories.NewPostgresMatchRepository(dbConn),
		participantRepo: repositories.NewPostgresParticipantRepository(dbConn),
		close: func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		},
	}, nil
}
