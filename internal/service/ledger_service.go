package service

import (
	"context"

	"tradegate/internal/models"
)

const defaultRecentLimit = 50

// LedgerService отдает недавние записи журнала для read-only API
type LedgerService struct {
	signals   SignalStoreInterface
	positions PositionReaderInterface
	orders    OrderReaderInterface
}

// NewLedgerService создает сервис чтения журнала
func NewLedgerService(signals SignalStoreInterface, positions PositionReaderInterface, orders OrderReaderInterface) *LedgerService {
	return &LedgerService{signals: signals, positions: positions, orders: orders}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultRecentLimit
	}
	return limit
}

// RecentSignals возвращает последние принятые сигналы
func (s *LedgerService) RecentSignals(ctx context.Context, limit int) ([]*models.Signal, error) {
	return s.signals.GetRecent(ctx, clampLimit(limit))
}

// RecentPositions возвращает последние позиции
func (s *LedgerService) RecentPositions(ctx context.Context, limit int) ([]*models.Position, error) {
	return s.positions.GetRecent(ctx, clampLimit(limit))
}

// RecentOrders возвращает последние ордера
func (s *LedgerService) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.orders.GetRecent(ctx, clampLimit(limit))
}
