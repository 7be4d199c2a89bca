package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tradegate/internal/bot"
	"tradegate/internal/service"
)

// maxAlertBody ограничивает размер тела алерта
const maxAlertBody = 64 * 1024

// WebhookHandler обрабатывает входящие алерты от TradingView.
//
// Endpoints:
// - POST /api/v1/webhook/{botId} - принять и исполнить алерт
//
// Тело запроса: JSON алерт либо текст с разделителями
// (ACTION_индекс_SYMBOL_таймфрейм_индекс_BOTID).
// Секрет вебхука передается заголовком X-Webhook-Token либо
// query-параметром token.
type WebhookHandler struct {
	signalService service.SignalServiceInterface
}

// NewWebhookHandler создает новый WebhookHandler с внедрением зависимостей
func NewWebhookHandler(signalService service.SignalServiceInterface) *WebhookHandler {
	return &WebhookHandler{signalService: signalService}
}

// HandleAlert принимает алерт и прогоняет его через конвейер обработки.
//
// POST /api/v1/webhook/{botId}
//
// Response 200 OK: {"signal_id": 1, "report": {...}}
// Response 400: ошибка разбора, неизвестное действие, символ вне allow-list,
// отказ валидации
// Response 401: неверный секрет вебхука
// Response 404: бот не найден или неактивен
// Response 500: оракул цены, биржа, БД
func (h *WebhookHandler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	if h.signalService == nil {
		respondError(w, http.StatusInternalServerError, ErrorResponse{
			Error: "signal service not initialized",
		})
		return
	}

	botID, err := strconv.Atoi(mux.Vars(r)["botId"])
	if err != nil || botID <= 0 {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid bot id",
			Code:  bot.CategoryParse,
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAlertBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "failed to read request body",
			Code:  bot.CategoryParse,
		})
		return
	}

	token := r.Header.Get("X-Webhook-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	result, err := h.signalService.Process(r.Context(), botID, token, body)
	if err != nil {
		category := bot.CategoryOf(err)
		resp := ErrorResponse{
			Error: pipelineMessage(err),
			Code:  category,
		}
		if result != nil {
			resp.Details = "signal_id=" + strconv.Itoa(result.SignalID)
		}
		respondError(w, statusForCategory(category), resp)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// statusForCategory переводит категорию ошибки конвейера в HTTP статус
func statusForCategory(category string) int {
	switch category {
	case bot.CategoryParse, bot.CategoryAction, bot.CategorySymbol, bot.CategoryValidation:
		return http.StatusBadRequest
	case bot.CategoryUnauthorized:
		return http.StatusUnauthorized
	case bot.CategoryBot:
		return http.StatusNotFound
	default:
		// price_unavailable, exchange_rejected, persistence_error
		return http.StatusInternalServerError
	}
}

// pipelineMessage возвращает человекочитаемое сообщение без внутренней обертки
func pipelineMessage(err error) string {
	var pe *bot.PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
