package models

import "time"

// ExchangeAccount представляет биржевой аккаунт с API ключами
//
// Ключи зашифрованы AES-256-GCM и расшифровываются только в момент
// создания биржевого клиента. В JSON не возвращаются никогда.
type ExchangeAccount struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"` // binance
	APIKey    string    `json:"-" db:"api_key"`
	SecretKey string    `json:"-" db:"secret_key"`
	Testnet   bool      `json:"testnet" db:"testnet"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	LastError string    `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
