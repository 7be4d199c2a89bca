package exchange

import (
	"context"
	"errors"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Binance реализует интерфейс Exchange поверх REST API Binance
// (спот + кросс-маржа)
type Binance struct {
	client *binance.Client
}

// NewBinance создает клиент Binance с заданными ключами
func NewBinance(apiKey, secretKey string, testnet bool) (*Binance, error) {
	client := binance.NewClient(apiKey, secretKey)
	if testnet {
		client.SetApiEndpoint("https://testnet.binance.vision")
	}
	return &Binance{client: client}, nil
}

// GetPrice получает текущую рыночную цену символа
func (b *Binance) GetPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, wrapBinanceError(err)
	}
	if len(prices) == 0 {
		return 0, &ExchangeError{Exchange: "binance", Message: "no price for symbol " + symbol}
	}
	return strconv.ParseFloat(prices[0].Price, 64)
}

// GetLimits получает фильтры символа (LOT_SIZE, MIN_NOTIONAL/NOTIONAL)
func (b *Binance) GetLimits(ctx context.Context, symbol string) (*Limits, error) {
	info, err := b.client.NewExchangeInfoService().Symbols(symbol).Do(ctx)
	if err != nil {
		return nil, wrapBinanceError(err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		limits := &Limits{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		}
		if f := s.LotSizeFilter(); f != nil {
			limits.MinQty = parseFloat(f.MinQuantity)
			limits.StepSize = parseFloat(f.StepSize)
		}
		// имя фильтра менялось между версиями API - смотрим оба
		for _, raw := range s.Filters {
			ft, _ := raw["filterType"].(string)
			if ft != "MIN_NOTIONAL" && ft != "NOTIONAL" {
				continue
			}
			if v, ok := raw["minNotional"].(string); ok {
				limits.MinNotional = parseFloat(v)
			}
		}
		return limits, nil
	}

	// символ без опубликованных фильтров - не ошибка, вызывающий
	// переключится на статическую таблицу точности
	return nil, nil
}

// PlaceMarketOrder размещает спотовый рыночный ордер
func (b *Binance) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (*Order, error) {
	res, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideType(side)).
		Type(binance.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		Do(ctx)
	if err != nil {
		return nil, wrapBinanceError(err)
	}

	order := &Order{
		ID:        strconv.FormatInt(res.OrderID, 10),
		Symbol:    res.Symbol,
		Side:      string(res.Side),
		Status:    string(res.Status),
		Quantity:  parseFloat(res.OrigQuantity),
		FilledQty: parseFloat(res.ExecutedQuantity),
	}
	order.AvgFillPrice = avgFillPrice(parseFloat(res.CummulativeQuoteQuantity), order.FilledQty)
	return order, nil
}

// PlaceMarginMarketOrder размещает маржинальный рыночный ордер с side effect
func (b *Binance) PlaceMarginMarketOrder(ctx context.Context, symbol, side string, quantity float64, sideEffect string) (*Order, error) {
	res, err := b.client.NewCreateMarginOrderService().
		Symbol(symbol).
		Side(binance.SideType(side)).
		Type(binance.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		SideEffectType(binance.SideEffectType(sideEffect)).
		Do(ctx)
	if err != nil {
		return nil, wrapBinanceError(err)
	}

	order := &Order{
		ID:        strconv.FormatInt(res.OrderID, 10),
		Symbol:    res.Symbol,
		Side:      string(res.Side),
		Status:    string(res.Status),
		Quantity:  parseFloat(res.OrigQuantity),
		FilledQty: parseFloat(res.ExecutedQuantity),
	}
	order.AvgFillPrice = avgFillPrice(parseFloat(res.CummulativeQuoteQuantity), order.FilledQty)
	return order, nil
}

// GetMaxBorrowable получает максимально доступный займ по активу
func (b *Binance) GetMaxBorrowable(ctx context.Context, asset string) (float64, error) {
	res, err := b.client.NewGetMaxBorrowableService().Asset(asset).Do(ctx)
	if err != nil {
		return 0, wrapBinanceError(err)
	}
	return strconv.ParseFloat(res.Amount, 64)
}

// wrapBinanceError оборачивает ошибку API в ExchangeError с кодом биржи
func wrapBinanceError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &ExchangeError{
			Exchange: "binance",
			Code:     strconv.FormatInt(apiErr.Code, 10),
			Message:  apiErr.Message,
			Original: err,
		}
	}
	return &ExchangeError{Exchange: "binance", Message: err.Error(), Original: err}
}

// avgFillPrice вычисляет среднюю цену исполнения из суммарного quote-объема
func avgFillPrice(quoteQty, filledQty float64) float64 {
	if filledQty <= 0 {
		return 0
	}
	return quoteQty / filledQty
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// formatQuantity форматирует количество без экспоненциальной записи
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
