package models

import "time"

// Bot представляет конфигурацию торгового бота
//
// Конфигурация создается и редактируется в админке (внешний компонент).
// Ядро читает её на каждый входящий сигнал и никогда не изменяет,
// за исключением агрегированных счетчиков статистики (TotalTrades,
// WinTrades, LossTrades, TotalPnl, TotalVolume) - их обновляют только
// Executor и Monitor при закрытии позиции.
type Bot struct {
	ID              int      `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	ExchangeID      int      `json:"exchange_id" db:"exchange_id"`
	Symbols         []string `json:"symbols" db:"symbols"`                     // allow-list, пустой = любые символы
	AccountType     string   `json:"account_type" db:"account_type"`           // SPOT, MARGIN
	TradeAmount     float64  `json:"trade_amount" db:"trade_amount"`
	TradeAmountType string   `json:"trade_amount_type" db:"trade_amount_type"` // QUOTE (нотионал), BASE (штуки)
	Leverage        int      `json:"leverage" db:"leverage"`                   // только для MARGIN
	StopLoss        *float64 `json:"stop_loss,omitempty" db:"stop_loss"`       // % от цены входа
	TakeProfit      *float64 `json:"take_profit,omitempty" db:"take_profit"`   // % от цены входа
	AutoRepay       bool     `json:"auto_repay" db:"auto_repay"`               // авто-погашение займа при выходе (MARGIN)
	IsActive        bool     `json:"is_active" db:"is_active"`

	// Секрет вебхука хранится как bcrypt-хеш, не возвращается в JSON.
	// Пустая строка = токен не требуется.
	WebhookTokenHash string `json:"-" db:"webhook_token_hash"`

	// Агрегированная статистика (пишется только ядром)
	TotalTrades int     `json:"total_trades" db:"total_trades"`
	WinTrades   int     `json:"win_trades" db:"win_trades"`
	LossTrades  int     `json:"loss_trades" db:"loss_trades"`
	TotalPnl    float64 `json:"total_pnl" db:"total_pnl"`
	TotalVolume float64 `json:"total_volume" db:"total_volume"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Типы аккаунта
const (
	AccountTypeSpot   = "SPOT"
	AccountTypeMargin = "MARGIN"
)

// Типы размера сделки
const (
	TradeAmountQuote = "QUOTE" // сумма в котируемой валюте, количество = сумма / цена
	TradeAmountBase  = "BASE"  // фиксированное количество базовой валюты
)

// AllowsSymbol проверяет, разрешен ли символ для этого бота.
// Пустой allow-list разрешает любые символы.
func (b *Bot) AllowsSymbol(symbol string) bool {
	if len(b.Symbols) == 0 {
		return true
	}
	for _, s := range b.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsMargin возвращает true для маржинального аккаунта
func (b *Bot) IsMargin() bool {
	return b.AccountType == AccountTypeMargin
}
