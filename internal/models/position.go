package models

import "time"

// Position представляет отслеживаемую позицию
//
// Создается Executor'ом при успешном исполнении ENTER_* (status=OPEN).
// Закрывается либо Executor'ом по сигналу EXIT_*, либо Monitor'ом по
// срабатыванию take-profit/stop-loss. Переход OPEN → терминальный статус
// происходит не более одного раза: запись защищена serializable
// транзакцией со статусной проверкой (см. PositionRepository.Close).
type Position struct {
	ID           int       `json:"id" db:"id"`
	BotID        int       `json:"bot_id" db:"bot_id"`
	Symbol       string    `json:"symbol" db:"symbol"`
	Side         string    `json:"side" db:"side"` // LONG, SHORT
	AccountType  string    `json:"account_type" db:"account_type"`
	EntryPrice   float64   `json:"entry_price" db:"entry_price"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	EntryValue   float64   `json:"entry_value" db:"entry_value"` // entry_price × quantity
	Status       string    `json:"status" db:"status"`
	StopLoss     *float64  `json:"stop_loss,omitempty" db:"stop_loss"`     // абсолютная цена
	TakeProfit   *float64  `json:"take_profit,omitempty" db:"take_profit"` // абсолютная цена
	CurrentPrice float64   `json:"current_price" db:"current_price"`
	ExitPrice    *float64  `json:"exit_price,omitempty" db:"exit_price"`
	ExitValue    *float64  `json:"exit_value,omitempty" db:"exit_value"`
	Pnl          float64   `json:"pnl" db:"pnl"`
	PnlPercent   float64   `json:"pnl_percent" db:"pnl_percent"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// PositionClose - параметры атомарного закрытия позиции
//
// Применяется единственной serializable транзакцией: CAS-переход
// OPEN → Status, вставка EXIT ордера, обновление агрегатов бота.
type PositionClose struct {
	PositionID int
	BotID      int
	Status     string // CLOSED либо MARKET_CLOSED
	ExitPrice  float64
	ExitValue  float64
	Pnl        float64
	PnlPercent float64
	Order      *Order // EXIT ордер, создается в той же транзакции
}

// Стороны позиции
const (
	PositionSideLong  = "LONG"
	PositionSideShort = "SHORT"
)

// Статусы позиции
const (
	PositionStatusOpen         = "OPEN"
	PositionStatusClosed       = "CLOSED"        // закрыта сигналом EXIT_*
	PositionStatusCanceled     = "CANCELED"      // отменена вручную
	PositionStatusMarketClosed = "MARKET_CLOSED" // закрыта монитором по TP/SL
	PositionStatusFailed       = "FAILED"
)
