package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"tradegate/internal/api"
	"tradegate/internal/bot"
	"tradegate/internal/config"
	"tradegate/internal/exchange"
	"tradegate/internal/repository"
	"tradegate/internal/service"
	"tradegate/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		zlog.Fatal("Failed to connect to database",
			zap.String("dsn", cfg.Database.DSNWithoutPassword()),
			zap.Error(err))
	}
	defer db.Close()

	zlog.Info("Connected to database",
		zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	botRepo := repository.NewBotRepository(db)
	accountRepo := repository.NewExchangeAccountRepository(db)
	signalRepo := repository.NewSignalRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Фабрика биржевых клиентов (API ключи расшифровываются на лету)
	factory := exchange.NewBinanceFactory(cfg.Security.EncryptionKey)

	// Инициализация сервисов
	signalService := service.NewSignalService(
		botRepo,
		accountRepo,
		signalRepo,
		positionRepo,
		orderRepo,
		factory,
		zlog,
	)
	ledgerService := service.NewLedgerService(signalRepo, positionRepo, orderRepo)

	// Монитор позиций
	monitor := bot.NewMonitor(positionRepo, orderRepo, botRepo, accountRepo, factory, zlog)

	// Контекст фоновых задач, отменяется при остановке
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if cfg.Monitor.Enabled {
		go runMonitor(runCtx, monitor, cfg.Monitor.SweepInterval, zlog)
	}

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		SignalService: signalService,
		LedgerService: ledgerService,
		Monitor:       monitor,
		Logger:        zlog,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		zlog.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}

// runMonitor запускает периодические проходы монитора позиций
func runMonitor(ctx context.Context, monitor *bot.Monitor, interval time.Duration, zlog *zap.Logger) {
	zlog.Info("Position monitor started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info("Position monitor stopped")
			return
		case <-ticker.C:
			if _, err := monitor.RunSweep(ctx); err != nil {
				zlog.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
