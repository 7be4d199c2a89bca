package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradegate/internal/api/handlers"
	"tradegate/internal/api/middleware"
	"tradegate/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	SignalService service.SignalServiceInterface
	LedgerService service.LedgerServiceInterface
	Monitor       handlers.SweeperInterface
	Logger        *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── POST /webhook/{botId} - принять и исполнить алерт
//	├── POST /monitor/sweep - внеочередной проход монитора позиций
//	├── GET /signals - последние принятые сигналы
//	├── GET /positions - последние позиции
//	└── GET /orders - последние ордера
//
// /health - проверка живости
// /metrics - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := zap.NewNop()
	if deps != nil && deps.Logger != nil {
		logger = deps.Logger
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var webhookHandler *handlers.WebhookHandler
	if deps != nil && deps.SignalService != nil {
		webhookHandler = handlers.NewWebhookHandler(deps.SignalService)
	}

	var monitorHandler *handlers.MonitorHandler
	if deps != nil && deps.Monitor != nil {
		monitorHandler = handlers.NewMonitorHandler(deps.Monitor)
	}

	var recordsHandler *handlers.RecordsHandler
	if deps != nil && deps.LedgerService != nil {
		recordsHandler = handlers.NewRecordsHandler(deps.LedgerService)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Webhook routes
	if webhookHandler != nil {
		api.HandleFunc("/webhook/{botId}", webhookHandler.HandleAlert).Methods("POST")
	}

	// Monitor routes
	if monitorHandler != nil {
		api.HandleFunc("/monitor/sweep", monitorHandler.RunSweep).Methods("POST")
	}

	// Records routes
	if recordsHandler != nil {
		api.HandleFunc("/signals", recordsHandler.GetSignals).Methods("GET")
		api.HandleFunc("/positions", recordsHandler.GetPositions).Methods("GET")
		api.HandleFunc("/orders", recordsHandler.GetOrders).Methods("GET")
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
