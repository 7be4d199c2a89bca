package repository

import (
	"context"
	"database/sql"
	"errors"

	"tradegate/internal/models"
)

// Ошибки репозитория биржевых аккаунтов
var (
	ErrExchangeAccountNotFound = errors.New("exchange account not found")
)

// ExchangeAccountRepository - работа с таблицей exchange_accounts
type ExchangeAccountRepository struct {
	db *sql.DB
}

// NewExchangeAccountRepository создает новый экземпляр репозитория
func NewExchangeAccountRepository(db *sql.DB) *ExchangeAccountRepository {
	return &ExchangeAccountRepository{db: db}
}

// GetByID возвращает биржевой аккаунт по ID (ключи остаются зашифрованными)
func (r *ExchangeAccountRepository) GetByID(ctx context.Context, id int) (*models.ExchangeAccount, error) {
	query := `
		SELECT id, name, api_key, secret_key, testnet, is_active, last_error, created_at, updated_at
		FROM exchange_accounts
		WHERE id = $1`

	account := &models.ExchangeAccount{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.APIKey,
		&account.SecretKey,
		&account.Testnet,
		&account.IsActive,
		&account.LastError,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExchangeAccountNotFound
		}
		return nil, err
	}

	return account, nil
}
