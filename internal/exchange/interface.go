package exchange

import (
	"context"
)

// Exchange определяет интерфейс биржевого коллаборатора для торгового ядра
//
// Все вызовы - блокирующие сетевые операции. Ядро не оборачивает их
// собственными таймаутами: отмена и дедлайны - ответственность вызывающего
// (через context).
type Exchange interface {
	// GetPrice получает текущую рыночную цену символа
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// GetLimits получает торговые ограничения биржи для символа.
	// Возвращает nil без ошибки, если фильтры для символа не опубликованы.
	GetLimits(ctx context.Context, symbol string) (*Limits, error)

	// PlaceMarketOrder размещает рыночный ордер на спотовом аккаунте
	PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (*Order, error)

	// PlaceMarginMarketOrder размещает рыночный ордер на маржинальном
	// аккаунте с указанным side effect (авто-займ/авто-погашение)
	PlaceMarginMarketOrder(ctx context.Context, symbol, side string, quantity float64, sideEffect string) (*Order, error)

	// GetMaxBorrowable получает максимально доступную сумму займа по активу
	GetMaxBorrowable(ctx context.Context, asset string) (float64, error)
}

// Limits содержит торговые ограничения биржи для символа
type Limits struct {
	Symbol      string  `json:"symbol"`
	BaseAsset   string  `json:"base_asset"`
	QuoteAsset  string  `json:"quote_asset"`
	MinQty      float64 `json:"min_qty"`      // минимальный размер ордера
	StepSize    float64 `json:"step_size"`    // шаг изменения количества (lot size)
	MinNotional float64 `json:"min_notional"` // минимальная сумма сделки в котируемой валюте
}

// Order представляет результат размещения ордера на бирже
type Order struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Status       string  `json:"status"` // FILLED, PARTIALLY_FILLED, ...
	Quantity     float64 `json:"quantity"`
	FilledQty    float64 `json:"filled_qty"`
	AvgFillPrice float64 `json:"avg_fill_price"` // 0 если биржа не вернула fills
}

// Side effect types для маржинальных ордеров
const (
	SideEffectNone      = "NO_SIDE_EFFECT"
	SideEffectMarginBuy = "MARGIN_BUY"
	SideEffectAutoRepay = "AUTO_REPAY"
)

// ExchangeError представляет ошибку, возвращенную биржей
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}
