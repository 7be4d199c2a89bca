package exchange

import (
	"fmt"

	"tradegate/internal/models"
	"tradegate/pkg/crypto"
)

// Factory создает биржевые клиенты по конфигурации аккаунта
//
// Ключи аккаунта хранятся в БД зашифрованными (AES-256-GCM) и
// расшифровываются здесь, непосредственно перед созданием клиента.
type Factory interface {
	Client(account *models.ExchangeAccount) (Exchange, error)
}

// BinanceFactory - фабрика клиентов Binance
type BinanceFactory struct {
	encryptionKey string
}

// NewBinanceFactory создает фабрику с ключом расшифровки API ключей
func NewBinanceFactory(encryptionKey string) *BinanceFactory {
	return &BinanceFactory{encryptionKey: encryptionKey}
}

// Client создает клиент для биржевого аккаунта
func (f *BinanceFactory) Client(account *models.ExchangeAccount) (Exchange, error) {
	apiKey, err := crypto.Decrypt(account.APIKey, []byte(f.encryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt api key: %w", err)
	}
	secretKey, err := crypto.Decrypt(account.SecretKey, []byte(f.encryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret key: %w", err)
	}
	return NewBinance(apiKey, secretKey, account.Testnet)
}
