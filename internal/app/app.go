package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avc/dropship-backend/internal/config"
	"github.com/avc/dropship-backend/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App представляет приложение
type App struct {
	config    *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     *redis.Client
	router    *chi.Mux
	scheduler *worker.Scheduler
	server    *http.Server
}

// NewApp создает новое приложение
func NewApp() (*App, error) {
	ctx := context.Background()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	// Инициализация базы данных и миграций
	dbPool, err := initDatabase(ctx, cfg.DatabaseURI, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	// Инициализация Redis
	redisClient, err := initRedis(ctx, cfg.RedisAddr)
	if err != nil {
		dbPool.Close()
		return nil, err
	}
	logger.Info("connected to redis")

	// Инициализация зависимостей
	deps := initDependencies(cfg, dbPool, redisClient, logger)

	// Настройка роутера
	router := setupRouter(deps, deps.jwtManager, logger)

	// Создание HTTP сервера
	server := createServer(cfg.RunAddress, router)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        dbPool,
		redis:     redisClient,
		router:    router,
		scheduler: deps.scheduler,
		server:    server,
	}, nil
}

// Run запускает приложение
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск планировщика ночной сверки
	a.scheduler.Start(ctx)
	a.logger.Info("reconciliation scheduler started")

	// Запуск HTTP сервера и ожидание сигнала завершения
	if err := a.runServer(ctx); err != nil {
		return err
	}

	// Graceful shutdown
	a.shutdown(cancel)

	return nil
}
