package bot

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradegate/internal/exchange"
)

// PrecisionResolver приводит сырое количество к торгуемой гранулярности биржи
//
// Два независимых уровня:
//  1. авторитетные метаданные биржи (LOT_SIZE: minQty + stepSize) -
//     количество усекается вниз до кратного stepSize;
//  2. статическая таблица точности по префиксу актива - усечение до
//     фиксированного числа знаков.
//
// Усечение всегда вниз, никогда не вверх: результат не превышает вход.
// Fallback не зависит от сети - работает при недоступных метаданных.
type PrecisionResolver struct {
	exch   exchange.Exchange
	logger *zap.Logger
}

// NewPrecisionResolver создает resolver поверх биржевого клиента
func NewPrecisionResolver(exch exchange.Exchange, logger *zap.Logger) *PrecisionResolver {
	return &PrecisionResolver{exch: exch, logger: logger}
}

// fallbackPrecision - статическая таблица точности по префиксу актива.
// Используется когда метаданные лота недоступны.
var fallbackPrecision = []struct {
	prefix   string
	decimals int32
}{
	{"BTC", 6},
	{"ETH", 5},
	{"BNB", 5},
}

// defaultPrecision - точность по умолчанию для неизвестных активов
const defaultPrecision int32 = 8

// Resolve возвращает финальное количество для ордера.
//
// Если метаданные лота получить не удалось (сетевая ошибка или фильтр
// отсутствует), молча переключается на статическую таблицу - ошибка
// метаданных не фатальна для конвейера.
func (r *PrecisionResolver) Resolve(ctx context.Context, symbol string, quantity float64) float64 {
	limits, err := r.exch.GetLimits(ctx, symbol)
	if err != nil || limits == nil || limits.StepSize <= 0 {
		if err != nil {
			r.logger.Warn("lot size metadata unavailable, using static precision",
				zap.String("symbol", symbol), zap.Error(err))
		}
		return TruncateToPrecision(quantity, PrecisionFor(symbol))
	}

	truncated := TruncateToStep(quantity, limits.StepSize)
	if limits.MinQty > 0 && truncated < limits.MinQty {
		// усеченное количество ниже биржевого минимума - ордер невозможен
		return 0
	}
	return truncated
}

// TruncateToStep усекает количество вниз до ближайшего кратного stepSize.
// Количество, уже выровненное по stepSize, возвращается без изменений.
func TruncateToStep(quantity, stepSize float64) float64 {
	if stepSize <= 0 || quantity <= 0 {
		return 0
	}
	qty := decimal.NewFromFloat(quantity)
	step := decimal.NewFromFloat(stepSize)
	steps := qty.Div(step).Floor()
	return steps.Mul(step).InexactFloat64()
}

// TruncateToPrecision усекает количество до decimals знаков после запятой:
// floor(value × 10^p) / 10^p, без округления вверх.
func TruncateToPrecision(quantity float64, decimals int32) float64 {
	if quantity <= 0 {
		return 0
	}
	qty := decimal.NewFromFloat(quantity)
	factor := decimal.New(1, decimals) // 10^decimals
	return qty.Mul(factor).Floor().Div(factor).InexactFloat64()
}

// PrecisionFor возвращает число знаков точности для символа по статической
// таблице префиксов активов
func PrecisionFor(symbol string) int32 {
	s := strings.ToUpper(symbol)
	for _, p := range fallbackPrecision {
		if strings.HasPrefix(s, p.prefix) {
			return p.decimals
		}
	}
	return defaultPrecision
}
