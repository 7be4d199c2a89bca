package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradegate/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository - работа с таблицей orders
//
// Полностью исполненные EXIT ордера создаются внутри транзакции закрытия
// позиции (PositionRepository.Close); здесь создаются ENTRY ордера и
// частично исполненные EXIT, не закрывающие позицию.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create создает запись об ордере
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (position_id, bot_id, type, side, order_type, price, quantity, value,
		                    status, fill_percent, pnl, exchange_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	order.CreatedAt = time.Now()

	return r.db.QueryRowContext(
		ctx,
		query,
		order.PositionID,
		order.BotID,
		order.Type,
		order.Side,
		order.OrderType,
		order.Price,
		order.Quantity,
		order.Value,
		order.Status,
		order.FillPercent,
		order.Pnl,
		order.ExchangeID,
		order.CreatedAt,
	).Scan(&order.ID)
}

// GetByPositionID возвращает все ордера позиции
func (r *OrderRepository) GetByPositionID(ctx context.Context, positionID int) ([]*models.Order, error) {
	query := `
		SELECT id, position_id, bot_id, type, side, order_type, price, quantity, value,
		       status, fill_percent, pnl, exchange_order_id, created_at
		FROM orders
		WHERE position_id = $1
		ORDER BY created_at`

	return r.queryOrders(ctx, query, positionID)
}

// GetRecent возвращает последние N ордеров
func (r *OrderRepository) GetRecent(ctx context.Context, limit int) ([]*models.Order, error) {
	query := `
		SELECT id, position_id, bot_id, type, side, order_type, price, quantity, value,
		       status, fill_percent, pnl, exchange_order_id, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`

	return r.queryOrders(ctx, query, limit)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		err := rows.Scan(
			&order.ID,
			&order.PositionID,
			&order.BotID,
			&order.Type,
			&order.Side,
			&order.OrderType,
			&order.Price,
			&order.Quantity,
			&order.Value,
			&order.Status,
			&order.FillPercent,
			&order.Pnl,
			&order.ExchangeID,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
