package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradegate/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionNotOpen  = errors.New("position is not open")
)

// PositionRepository - работа с таблицей positions
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create создает запись о позиции
func (r *PositionRepository) Create(ctx context.Context, pos *models.Position) error {
	query := `
		INSERT INTO positions (bot_id, symbol, side, account_type, entry_price, quantity, entry_value,
		                       status, stop_loss, take_profit, current_price, pnl, pnl_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	now := time.Now()
	pos.CreatedAt = now
	pos.UpdatedAt = now

	return r.db.QueryRowContext(
		ctx,
		query,
		pos.BotID,
		pos.Symbol,
		pos.Side,
		pos.AccountType,
		pos.EntryPrice,
		pos.Quantity,
		pos.EntryValue,
		pos.Status,
		pos.StopLoss,
		pos.TakeProfit,
		pos.CurrentPrice,
		pos.Pnl,
		pos.PnlPercent,
		pos.CreatedAt,
		pos.UpdatedAt,
	).Scan(&pos.ID)
}

// GetOpenBySide возвращает открытую позицию бота по символу и стороне.
// По инварианту у пары бот/символ не более одной открытой позиции.
func (r *PositionRepository) GetOpenBySide(ctx context.Context, botID int, symbol, side string) (*models.Position, error) {
	query := `
		SELECT id, bot_id, symbol, side, account_type, entry_price, quantity, entry_value,
		       status, stop_loss, take_profit, current_price, exit_price, exit_value,
		       pnl, pnl_percent, created_at, updated_at, closed_at
		FROM positions
		WHERE bot_id = $1 AND symbol = $2 AND side = $3 AND status = $4
		LIMIT 1`

	pos := &models.Position{}
	err := r.db.QueryRowContext(ctx, query, botID, symbol, side, models.PositionStatusOpen).Scan(
		&pos.ID,
		&pos.BotID,
		&pos.Symbol,
		&pos.Side,
		&pos.AccountType,
		&pos.EntryPrice,
		&pos.Quantity,
		&pos.EntryValue,
		&pos.Status,
		&pos.StopLoss,
		&pos.TakeProfit,
		&pos.CurrentPrice,
		&pos.ExitPrice,
		&pos.ExitValue,
		&pos.Pnl,
		&pos.PnlPercent,
		&pos.CreatedAt,
		&pos.UpdatedAt,
		&pos.ClosedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return pos, nil
}

// GetOpenWithTriggers возвращает открытые позиции с непустым stop_loss
// либо take_profit - кандидаты для прохода монитора
func (r *PositionRepository) GetOpenWithTriggers(ctx context.Context) ([]*models.Position, error) {
	query := `
		SELECT id, bot_id, symbol, side, account_type, entry_price, quantity, entry_value,
		       status, stop_loss, take_profit, current_price, exit_price, exit_value,
		       pnl, pnl_percent, created_at, updated_at, closed_at
		FROM positions
		WHERE status = $1 AND (stop_loss IS NOT NULL OR take_profit IS NOT NULL)
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, models.PositionStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.BotID,
			&pos.Symbol,
			&pos.Side,
			&pos.AccountType,
			&pos.EntryPrice,
			&pos.Quantity,
			&pos.EntryValue,
			&pos.Status,
			&pos.StopLoss,
			&pos.TakeProfit,
			&pos.CurrentPrice,
			&pos.ExitPrice,
			&pos.ExitValue,
			&pos.Pnl,
			&pos.PnlPercent,
			&pos.CreatedAt,
			&pos.UpdatedAt,
			&pos.ClosedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetRecent возвращает последние N позиций
func (r *PositionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Position, error) {
	query := `
		SELECT id, bot_id, symbol, side, account_type, entry_price, quantity, entry_value,
		       status, stop_loss, take_profit, current_price, exit_price, exit_value,
		       pnl, pnl_percent, created_at, updated_at, closed_at
		FROM positions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.BotID,
			&pos.Symbol,
			&pos.Side,
			&pos.AccountType,
			&pos.EntryPrice,
			&pos.Quantity,
			&pos.EntryValue,
			&pos.Status,
			&pos.StopLoss,
			&pos.TakeProfit,
			&pos.CurrentPrice,
			&pos.ExitPrice,
			&pos.ExitValue,
			&pos.Pnl,
			&pos.PnlPercent,
			&pos.CreatedAt,
			&pos.UpdatedAt,
			&pos.ClosedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// UpdateCurrentPrice сохраняет текущую рыночную цену позиции
func (r *PositionRepository) UpdateCurrentPrice(ctx context.Context, id int, price float64) error {
	query := `
		UPDATE positions
		SET current_price = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, price, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Close атомарно закрывает позицию
//
// Единственная точка перехода OPEN → терминальный статус. В одной
// serializable транзакции:
//  1. CAS-обновление позиции с проверкой "status = OPEN" - если позицию
//     уже закрыл конкурентный вызов (гонка вебхука EXIT и монитора),
//     возвращает ErrPositionNotOpen без каких-либо записей;
//  2. вставка EXIT ордера;
//  3. обновление агрегатов бота (total_trades, win/loss, total_pnl,
//     total_volume).
//
// Из двух конкурентных закрытий ровно одно фиксирует переход и создает
// ровно один EXIT ордер; проигравший получает ErrPositionNotOpen.
func (r *PositionRepository) Close(ctx context.Context, params *models.PositionClose) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.ExecContext(ctx, `
		UPDATE positions
		SET status = $1, exit_price = $2, exit_value = $3, current_price = $2,
		    pnl = $4, pnl_percent = $5, closed_at = $6, updated_at = $6
		WHERE id = $7 AND status = $8`,
		params.Status,
		params.ExitPrice,
		params.ExitValue,
		params.Pnl,
		params.PnlPercent,
		now,
		params.PositionID,
		models.PositionStatusOpen,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// позиция уже не OPEN - конкурентное закрытие выиграло гонку
		return ErrPositionNotOpen
	}

	order := params.Order
	order.CreatedAt = now
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (position_id, bot_id, type, side, order_type, price, quantity, value,
		                    status, fill_percent, pnl, exchange_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
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
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bots
		SET total_trades = total_trades + 1,
		    win_trades  = win_trades  + CASE WHEN $1 > 0 THEN 1 ELSE 0 END,
		    loss_trades = loss_trades + CASE WHEN $1 < 0 THEN 1 ELSE 0 END,
		    total_pnl    = total_pnl + $1,
		    total_volume = total_volume + ABS($2),
		    updated_at   = $3
		WHERE id = $4`,
		params.Pnl,
		params.ExitValue,
		now,
		params.BotID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
