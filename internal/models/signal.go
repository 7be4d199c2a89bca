package models

import "time"

// Signal представляет входящий торговый алерт
//
// Запись создается один раз при получении алерта и неизменна, кроме
// единственной записи processed/error после завершения обработки.
// Терминальное состояние: processed=true. Повторная обработка
// не выполняется - при ошибке алерт нужно прислать заново.
type Signal struct {
	ID        int       `json:"id" db:"id"`
	BotID     int       `json:"bot_id" db:"bot_id"`
	Action    string    `json:"action" db:"action"` // сырой токен из алерта, до нормализации
	Symbol    string    `json:"symbol" db:"symbol"`
	Price     *float64  `json:"price,omitempty" db:"price"`
	Message   string    `json:"message,omitempty" db:"message"`
	Processed bool      `json:"processed" db:"processed"`
	Error     string    `json:"error,omitempty" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
