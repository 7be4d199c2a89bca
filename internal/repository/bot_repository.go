package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tradegate/internal/models"
)

// Ошибки репозитория ботов
var (
	ErrBotNotFound = errors.New("bot not found")
)

// BotRepository - работа с таблицей bots
//
// Конфигурация бота создается и редактируется админкой (внешний
// компонент), ядро только читает её. Агрегаты статистики обновляются
// исключительно внутри транзакции закрытия позиции
// (см. PositionRepository.Close).
type BotRepository struct {
	db *sql.DB
}

// NewBotRepository создает новый экземпляр репозитория
func NewBotRepository(db *sql.DB) *BotRepository {
	return &BotRepository{db: db}
}

// GetByID возвращает бота по ID
func (r *BotRepository) GetByID(ctx context.Context, id int) (*models.Bot, error) {
	query := `
		SELECT id, name, exchange_id, symbols, account_type, trade_amount, trade_amount_type,
		       leverage, stop_loss, take_profit, auto_repay, is_active, webhook_token_hash,
		       total_trades, win_trades, loss_trades, total_pnl, total_volume, created_at, updated_at
		FROM bots
		WHERE id = $1`

	bot := &models.Bot{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bot.ID,
		&bot.Name,
		&bot.ExchangeID,
		pq.Array(&bot.Symbols),
		&bot.AccountType,
		&bot.TradeAmount,
		&bot.TradeAmountType,
		&bot.Leverage,
		&bot.StopLoss,
		&bot.TakeProfit,
		&bot.AutoRepay,
		&bot.IsActive,
		&bot.WebhookTokenHash,
		&bot.TotalTrades,
		&bot.WinTrades,
		&bot.LossTrades,
		&bot.TotalPnl,
		&bot.TotalVolume,
		&bot.CreatedAt,
		&bot.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBotNotFound
		}
		return nil, err
	}

	return bot, nil
}
