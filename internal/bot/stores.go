package bot

import (
	"context"

	"tradegate/internal/models"
)

// Интерфейсы хранилищ, используемые торговым ядром.
// Реализуются репозиториями (internal/repository) и моками в тестах.

// PositionStore - хранилище позиций
type PositionStore interface {
	Create(ctx context.Context, pos *models.Position) error
	GetOpenBySide(ctx context.Context, botID int, symbol, side string) (*models.Position, error)
	GetOpenWithTriggers(ctx context.Context) ([]*models.Position, error)
	UpdateCurrentPrice(ctx context.Context, id int, price float64) error

	// Close - атомарное закрытие: CAS-переход OPEN → терминальный статус,
	// вставка EXIT ордера и обновление агрегатов бота в одной serializable
	// транзакции. Возвращает repository.ErrPositionNotOpen, если позицию
	// уже закрыл конкурентный вызов.
	Close(ctx context.Context, params *models.PositionClose) error
}

// OrderStore - хранилище ордеров. Через него создаются ENTRY ордера и
// частично исполненные EXIT; полностью исполненный EXIT создается внутри
// транзакции PositionStore.Close
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
}

// BotStore - чтение конфигурации ботов
type BotStore interface {
	GetByID(ctx context.Context, id int) (*models.Bot, error)
}

// AccountStore - чтение биржевых аккаунтов
type AccountStore interface {
	GetByID(ctx context.Context, id int) (*models.ExchangeAccount, error)
}
