package handlers

import (
	"net/http"
	"strconv"

	"tradegate/internal/service"
)

// RecordsHandler отдает журнал обработки для наблюдения за ботами.
//
// Endpoints:
// - GET /api/v1/signals?limit=N - последние принятые сигналы
// - GET /api/v1/positions?limit=N - последние позиции
// - GET /api/v1/orders?limit=N - последние ордера
type RecordsHandler struct {
	ledger service.LedgerServiceInterface
}

// NewRecordsHandler создает новый RecordsHandler с внедрением зависимостей
func NewRecordsHandler(ledger service.LedgerServiceInterface) *RecordsHandler {
	return &RecordsHandler{ledger: ledger}
}

func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

// GetSignals возвращает последние принятые сигналы
func (h *RecordsHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.ledger.RecentSignals(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to get signals",
			Details: err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, signals)
}

// GetPositions возвращает последние позиции
func (h *RecordsHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.ledger.RecentPositions(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to get positions",
			Details: err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// GetOrders возвращает последние ордера
func (h *RecordsHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.RecentOrders(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to get orders",
			Details: err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
