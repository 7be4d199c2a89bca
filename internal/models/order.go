package models

import "time"

// Order представляет запись об исполненном биржевом ордере
//
// На каждую позицию приходится ровно один ENTRY ордер (при создании)
// и не более одного EXIT ордера (при закрытии). Pnl заполняется только
// для EXIT ордеров.
type Order struct {
	ID          int       `json:"id" db:"id"`
	PositionID  int       `json:"position_id" db:"position_id"`
	BotID       int       `json:"bot_id" db:"bot_id"`
	Type        string    `json:"type" db:"type"`             // ENTRY, EXIT
	Side        string    `json:"side" db:"side"`             // BUY, SELL
	OrderType   string    `json:"order_type" db:"order_type"` // MARKET
	Price       float64   `json:"price" db:"price"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	Value       float64   `json:"value" db:"value"` // price × quantity
	Status      string    `json:"status" db:"status"`
	FillPercent float64   `json:"fill_percent" db:"fill_percent"`
	Pnl         *float64  `json:"pnl,omitempty" db:"pnl"`                       // только для EXIT
	ExchangeID  string    `json:"exchange_id,omitempty" db:"exchange_order_id"` // id ордера на бирже
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Типы ордера
const (
	OrderTypeEntry = "ENTRY"
	OrderTypeExit  = "EXIT"
)

// Стороны ордера
const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"
)

// Типы исполнения
const (
	OrderExecMarket = "MARKET"
)

// Статусы ордера
const (
	OrderStatusFilled          = "FILLED"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusRejected        = "REJECTED"
)
