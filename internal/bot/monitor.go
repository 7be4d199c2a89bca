package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tradegate/internal/exchange"
	"tradegate/internal/models"
	"tradegate/internal/repository"
)

// Monitor - периодический монитор открытых позиций
//
// Один вызов RunSweep - один проход по всем открытым позициям с непустым
// stop_loss либо take_profit. Для каждой позиции: получение текущей цены,
// сохранение её на позиции, проверка триггеров и, при срабатывании, та же
// бухгалтерия закрытия, что у исполнителя EXIT сигналов (settleClose →
// CAS-переход в serializable транзакции). Если позицию уже закрыл
// конкурентный EXIT сигнал - проход молча пропускает её, это не ошибка.
//
// Отказ биржи оставляет позицию OPEN: следующий проход оценит её заново,
// повторов внутри одного прохода нет. Каденс внешний - монитор сам
// ничего не планирует.
type Monitor struct {
	positions PositionStore
	orders    OrderStore
	bots      BotStore
	accounts  AccountStore
	factory   exchange.Factory
	logger    *zap.Logger
}

// NewMonitor создает монитор позиций
func NewMonitor(positions PositionStore, orders OrderStore, bots BotStore, accounts AccountStore, factory exchange.Factory, logger *zap.Logger) *Monitor {
	return &Monitor{
		positions: positions,
		orders:    orders,
		bots:      bots,
		accounts:  accounts,
		factory:   factory,
		logger:    logger,
	}
}

// SweepResult - итоги одного прохода
type SweepResult struct {
	Checked   int `json:"checked"`
	Triggered int `json:"triggered"`
	Closed    int `json:"closed"`
	Skipped   int `json:"skipped"` // проигранные гонки с конкурентным закрытием
	Errors    int `json:"errors"`
}

// RunSweep выполняет один проход по открытым позициям.
// Ошибки отдельных позиций логируются и не прерывают проход.
func (m *Monitor) RunSweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	defer func() {
		SweepDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	positions, err := m.positions.GetOpenWithTriggers(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	clients := make(map[int]exchange.Exchange) // кэш клиентов на время прохода

	for _, pos := range positions {
		result.Checked++
		SweepPositionsChecked.Inc()
		m.sweepPosition(ctx, pos, clients, result)
	}

	m.logger.Info("sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("triggered", result.Triggered),
		zap.Int("closed", result.Closed),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// sweepPosition обрабатывает одну позицию прохода
func (m *Monitor) sweepPosition(ctx context.Context, pos *models.Position, clients map[int]exchange.Exchange, result *SweepResult) {
	log := m.logger.With(zap.Int("position_id", pos.ID), zap.String("symbol", pos.Symbol))

	b, err := m.bots.GetByID(ctx, pos.BotID)
	if err != nil {
		log.Error("failed to load bot for position", zap.Error(err))
		result.Errors++
		return
	}

	client, ok := clients[b.ExchangeID]
	if !ok {
		account, err := m.accounts.GetByID(ctx, b.ExchangeID)
		if err != nil {
			log.Error("failed to load exchange account", zap.Error(err))
			result.Errors++
			return
		}
		client, err = m.factory.Client(account)
		if err != nil {
			log.Error("failed to create exchange client", zap.Error(err))
			result.Errors++
			return
		}
		clients[b.ExchangeID] = client
	}

	price, err := client.GetPrice(ctx, pos.Symbol)
	if err != nil {
		log.Warn("failed to fetch current price", zap.Error(err))
		result.Errors++
		return
	}

	if err := m.positions.UpdateCurrentPrice(ctx, pos.ID, price); err != nil {
		log.Warn("failed to persist current price", zap.Error(err))
	}

	triggered, reason := CheckTriggers(pos, price)
	if !triggered {
		return
	}
	result.Triggered++

	log.Info("close trigger fired",
		zap.String("reason", reason),
		zap.Float64("price", price))

	if err := m.closePosition(ctx, b, client, pos, price, reason); err != nil {
		if errors.Is(err, errExitPartiallyFilled) {
			// ордер записан, позиция остается OPEN до следующего прохода
			return
		}
		if errors.Is(err, repository.ErrPositionNotOpen) {
			// позицию уже закрыл конкурентный EXIT сигнал - молча пропускаем
			log.Debug("position already closed concurrently, skipping")
			result.Skipped++
			return
		}
		// позиция остается OPEN, следующий проход оценит её заново
		log.Error("failed to close position", zap.Error(err))
		result.Errors++
		return
	}

	PositionsClosed.WithLabelValues(reason).Inc()
	result.Closed++
}

// closePosition закрывает позицию рыночным ордером всем объемом
func (m *Monitor) closePosition(ctx context.Context, b *models.Bot, client exchange.Exchange, pos *models.Position, price float64, reason string) error {
	resolver := NewPrecisionResolver(client, m.logger)
	quantity := resolver.Resolve(ctx, pos.Symbol, pos.Quantity)
	if quantity <= 0 {
		return ValidationError("position quantity %.8f is below exchange minimum", pos.Quantity)
	}

	side := exitOrderSide(pos.Side)

	var ord *exchange.Order
	var err error
	if b.IsMargin() {
		ord, err = client.PlaceMarginMarketOrder(ctx, pos.Symbol, side, quantity, exitSideEffect(b))
	} else {
		ord, err = client.PlaceMarketOrder(ctx, pos.Symbol, side, quantity)
	}
	if err != nil {
		return NewPipelineError(CategoryExchange, "exchange rejected close order", err)
	}

	exitPrice := ord.AvgFillPrice
	if exitPrice <= 0 {
		exitPrice = price
	}

	if ord.Status == models.OrderStatusPartiallyFilled {
		if _, err := recordPartialExit(ctx, m.orders, b, pos, ord, exitPrice, m.logger); err != nil {
			return err
		}
		return errExitPartiallyFilled
	}

	_, _, err = settleClose(ctx, m.positions, b, pos, ord, exitPrice,
		models.PositionStatusMarketClosed, m.logger)
	return err
}

// CheckTriggers проверяет срабатывание take-profit/stop-loss по текущей цене
//
// LONG: take-profit при цене ≥ TP, stop-loss при цене ≤ SL.
// SHORT: зеркально - take-profit при цене ≤ TP, stop-loss при цене ≥ SL.
func CheckTriggers(pos *models.Position, price float64) (bool, string) {
	if pos.Side == models.PositionSideShort {
		if pos.TakeProfit != nil && price <= *pos.TakeProfit {
			return true, "take_profit"
		}
		if pos.StopLoss != nil && price >= *pos.StopLoss {
			return true, "stop_loss"
		}
		return false, ""
	}

	if pos.TakeProfit != nil && price >= *pos.TakeProfit {
		return true, "take_profit"
	}
	if pos.StopLoss != nil && price <= *pos.StopLoss {
		return true, "stop_loss"
	}
	return false, ""
}
