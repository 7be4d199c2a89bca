package handlers

import (
	"context"
	"net/http"

	"tradegate/internal/bot"
)

// SweeperInterface - запуск прохода монитора позиций
type SweeperInterface interface {
	RunSweep(ctx context.Context) (*bot.SweepResult, error)
}

// MonitorHandler обрабатывает запросы монитора позиций.
//
// Endpoints:
// - POST /api/v1/monitor/sweep - выполнить внеочередной проход по открытым позициям
type MonitorHandler struct {
	monitor SweeperInterface
}

// NewMonitorHandler создает новый MonitorHandler с внедрением зависимостей
func NewMonitorHandler(monitor SweeperInterface) *MonitorHandler {
	return &MonitorHandler{monitor: monitor}
}

// RunSweep выполняет один проход по открытым позициям с триггерами.
//
// POST /api/v1/monitor/sweep
//
// Response 200 OK:
//
//	{"checked": 3, "triggered": 1, "closed": 1, "skipped": 0, "errors": 0}
func (h *MonitorHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error: "monitor not initialized",
		})
		return
	}

	result, err := h.monitor.RunSweep(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "sweep failed",
			Details: err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}
