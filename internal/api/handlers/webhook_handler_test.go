package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"tradegate/internal/bot"
	"tradegate/internal/models"
	"tradegate/internal/service"
)

// ============ Mock Signal Service ============

type mockSignalService struct {
	result    *service.ProcessResult
	err       error
	gotBotID  int
	gotToken  string
	gotBody   []byte
}

func (m *mockSignalService) Process(ctx context.Context, botID int, token string, body []byte) (*service.ProcessResult, error) {
	m.gotBotID = botID
	m.gotToken = token
	m.gotBody = body
	return m.result, m.err
}

func webhookRequest(t *testing.T, handler *WebhookHandler, botID, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/"+botID, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("X-Webhook-Token", token)
	}
	req = mux.SetURLVars(req, map[string]string{"botId": botID})

	w := httptest.NewRecorder()
	handler.HandleAlert(w, req)
	return w
}

func TestWebhookHandler_HandleAlert(t *testing.T) {
	t.Run("returns 200 with execution report", func(t *testing.T) {
		mockSvc := &mockSignalService{
			result: &service.ProcessResult{
				SignalID: 5,
				Report: &bot.ExecutionReport{
					Directive: bot.EnterLong,
					Symbol:    "BTCUSDT",
					Quantity:  1,
					Price:     100,
					Position:  &models.Position{ID: 3, Status: models.PositionStatusOpen},
				},
			},
		}
		handler := NewWebhookHandler(mockSvc)

		body := []byte(`{"action": "ENTER_LONG", "symbol": "BTCUSDT", "price": 100}`)
		w := webhookRequest(t, handler, "7", "s3cret", body)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if mockSvc.gotBotID != 7 {
			t.Errorf("botID = %d, want 7", mockSvc.gotBotID)
		}
		if mockSvc.gotToken != "s3cret" {
			t.Errorf("token = %s, want s3cret", mockSvc.gotToken)
		}

		var response service.ProcessResult
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.SignalID != 5 {
			t.Errorf("SignalID = %d, want 5", response.SignalID)
		}
	})

	t.Run("maps pipeline categories to http statuses", func(t *testing.T) {
		tests := []struct {
			category string
			want     int
		}{
			{bot.CategoryParse, http.StatusBadRequest},
			{bot.CategoryAction, http.StatusBadRequest},
			{bot.CategorySymbol, http.StatusBadRequest},
			{bot.CategoryValidation, http.StatusBadRequest},
			{bot.CategoryUnauthorized, http.StatusUnauthorized},
			{bot.CategoryBot, http.StatusNotFound},
			{bot.CategoryPrice, http.StatusInternalServerError},
			{bot.CategoryExchange, http.StatusInternalServerError},
			{bot.CategoryPersistence, http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.category, func(t *testing.T) {
				mockSvc := &mockSignalService{
					err: bot.NewPipelineError(tt.category, "pipeline failed", nil),
				}
				handler := NewWebhookHandler(mockSvc)

				w := webhookRequest(t, handler, "1", "", []byte(`{}`))
				if w.Code != tt.want {
					t.Errorf("status = %d, want %d", w.Code, tt.want)
				}

				var response ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if response.Code != tt.category {
					t.Errorf("code = %s, want %s", response.Code, tt.category)
				}
			})
		}
	})

	t.Run("invalid bot id in route", func(t *testing.T) {
		handler := NewWebhookHandler(&mockSignalService{})

		w := webhookRequest(t, handler, "abc", "", []byte(`{}`))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("token from query parameter", func(t *testing.T) {
		mockSvc := &mockSignalService{result: &service.ProcessResult{SignalID: 1}}
		handler := NewWebhookHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/7?token=qtoken", bytes.NewReader([]byte(`{}`)))
		req = mux.SetURLVars(req, map[string]string{"botId": "7"})
		w := httptest.NewRecorder()
		handler.HandleAlert(w, req)

		if mockSvc.gotToken != "qtoken" {
			t.Errorf("token = %s, want qtoken", mockSvc.gotToken)
		}
	})

	t.Run("error includes signal id when recorded", func(t *testing.T) {
		mockSvc := &mockSignalService{
			result: &service.ProcessResult{SignalID: 9},
			err:    bot.NewPipelineError(bot.CategoryValidation, "order notional too small", nil),
		}
		handler := NewWebhookHandler(mockSvc)

		w := webhookRequest(t, handler, "1", "", []byte(`{}`))

		var response ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Details != "signal_id=9" {
			t.Errorf("details = %s, want signal_id=9", response.Details)
		}
	})

	t.Run("returns 500 when service is nil", func(t *testing.T) {
		handler := &WebhookHandler{signalService: nil}

		w := webhookRequest(t, handler, "1", "", []byte(`{}`))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
