package service

import (
	"context"

	"tradegate/internal/models"
)

// SignalServiceInterface - обработка входящих алертов (реализуется SignalService)
type SignalServiceInterface interface {
	Process(ctx context.Context, botID int, token string, body []byte) (*ProcessResult, error)
}

// LedgerServiceInterface - чтение журнала для read-only API
type LedgerServiceInterface interface {
	RecentSignals(ctx context.Context, limit int) ([]*models.Signal, error)
	RecentPositions(ctx context.Context, limit int) ([]*models.Position, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
}

// SignalStoreInterface определяет интерфейс репозитория сигналов
type SignalStoreInterface interface {
	Create(ctx context.Context, signal *models.Signal) error
	MarkProcessed(ctx context.Context, id int, errorMessage string) error
	GetRecent(ctx context.Context, limit int) ([]*models.Signal, error)
}

// PositionReaderInterface - чтение позиций для read-only API
type PositionReaderInterface interface {
	GetRecent(ctx context.Context, limit int) ([]*models.Position, error)
}

// OrderReaderInterface - чтение ордеров для read-only API
type OrderReaderInterface interface {
	GetRecent(ctx context.Context, limit int) ([]*models.Order, error)
}
