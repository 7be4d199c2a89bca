package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradegate/internal/models"
)

// Ошибки репозитория сигналов
var (
	ErrSignalNotFound = errors.New("signal not found")
)

// SignalRepository - работа с таблицей signals
//
// Запись сигнала создается один раз при получении алерта. Единственная
// последующая мутация - MarkProcessed: терминальная отметка processed
// с текстом ошибки либо без него. Повторная обработка не выполняется.
type SignalRepository struct {
	db *sql.DB
}

// NewSignalRepository создает новый экземпляр репозитория
func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create создает запись о сигнале
func (r *SignalRepository) Create(ctx context.Context, signal *models.Signal) error {
	query := `
		INSERT INTO signals (bot_id, action, symbol, price, message, processed, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	signal.CreatedAt = time.Now()

	return r.db.QueryRowContext(
		ctx,
		query,
		signal.BotID,
		signal.Action,
		signal.Symbol,
		signal.Price,
		signal.Message,
		signal.Processed,
		signal.Error,
		signal.CreatedAt,
	).Scan(&signal.ID)
}

// MarkProcessed терминально помечает сигнал обработанным.
// Пустой errorMessage означает успешное исполнение.
func (r *SignalRepository) MarkProcessed(ctx context.Context, id int, errorMessage string) error {
	query := `
		UPDATE signals
		SET processed = true, error = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, errorMessage, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSignalNotFound
	}

	return nil
}

// GetRecent возвращает последние N сигналов
func (r *SignalRepository) GetRecent(ctx context.Context, limit int) ([]*models.Signal, error) {
	query := `
		SELECT id, bot_id, action, symbol, price, message, processed, error, created_at
		FROM signals
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		signal := &models.Signal{}
		err := rows.Scan(
			&signal.ID,
			&signal.BotID,
			&signal.Action,
			&signal.Symbol,
			&signal.Price,
			&signal.Message,
			&signal.Processed,
			&signal.Error,
			&signal.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return signals, nil
}
