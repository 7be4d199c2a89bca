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

// ExecutionReport - результат исполнения провалидированного сигнала
type ExecutionReport struct {
	Directive Directive        `json:"directive"`
	Symbol    string           `json:"symbol"`
	Quantity  float64          `json:"quantity"`
	Price     float64          `json:"price"`
	Position  *models.Position `json:"position,omitempty"`
	Order     *models.Order    `json:"order,omitempty"`
	Pnl       *float64         `json:"pnl,omitempty"`

	// AlreadyClosed: позицию успел закрыть конкурентный вызов (монитор) -
	// проигравший гонку завершается без ошибки и без записей
	AlreadyClosed bool `json:"already_closed,omitempty"`
}

// Executor исполняет провалидированный сигнал: приводит количество к
// точности биржи, отправляет рыночный ордер и фиксирует Position/Order
type Executor interface {
	Execute(ctx context.Context, b *models.Bot, sig *models.Signal, res *ValidationResult, price float64) (*ExecutionReport, error)
}

// placeFunc абстрагирует отправку рыночного ордера (спот либо маржа)
type placeFunc func(ctx context.Context, symbol, side string, quantity float64) (*exchange.Order, error)

// executorCore - общая часть спотового и маржинального исполнителей
type executorCore struct {
	positions PositionStore
	orders    OrderStore
	precision *PrecisionResolver
	logger    *zap.Logger
}

func (e *executorCore) execute(ctx context.Context, b *models.Bot, res *ValidationResult, symbol string, price float64, place placeFunc) (*ExecutionReport, error) {
	quantity := e.precision.Resolve(ctx, symbol, res.Quantity)
	if quantity <= 0 {
		return nil, ValidationError("quantity %.8f is below exchange minimum for %s", res.Quantity, symbol)
	}

	orderType := models.OrderTypeEntry
	if res.Directive.IsExit() {
		orderType = models.OrderTypeExit
	}

	start := time.Now()
	ord, err := place(ctx, symbol, res.OrderSide, quantity)
	OrderExecutionLatency.WithLabelValues(orderType).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		OrdersSubmitted.WithLabelValues(orderType, res.OrderSide, "rejected").Inc()
		return nil, NewPipelineError(CategoryExchange, "exchange rejected order", err)
	}
	OrdersSubmitted.WithLabelValues(orderType, res.OrderSide, "ok").Inc()

	fillPrice := ord.AvgFillPrice
	if fillPrice <= 0 {
		fillPrice = price
	}

	if res.Directive.IsEntry() {
		return e.openPosition(ctx, b, res, symbol, quantity, fillPrice, ord)
	}

	if ord.Status == models.OrderStatusPartiallyFilled {
		order, err := recordPartialExit(ctx, e.orders, b, res.Position, ord, fillPrice, e.logger)
		if err != nil {
			return nil, err
		}
		return &ExecutionReport{
			Directive: res.Directive,
			Symbol:    symbol,
			Quantity:  quantity,
			Price:     fillPrice,
			Position:  res.Position,
			Order:     order,
		}, nil
	}

	order, pnl, err := settleClose(ctx, e.positions, b, res.Position, ord, fillPrice,
		models.PositionStatusClosed, e.logger)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotOpen) {
			// гонка с монитором: позиция уже закрыта, молча завершаемся
			e.logger.Info("position already closed by a concurrent caller",
				zap.Int("position_id", res.Position.ID))
			return &ExecutionReport{
				Directive:     res.Directive,
				Symbol:        symbol,
				AlreadyClosed: true,
			}, nil
		}
		return nil, err
	}

	PositionsClosed.WithLabelValues("exit_signal").Inc()
	return &ExecutionReport{
		Directive: res.Directive,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     fillPrice,
		Position:  res.Position,
		Order:     order,
		Pnl:       &pnl,
	}, nil
}

// openPosition фиксирует новую позицию и её ENTRY ордер
func (e *executorCore) openPosition(ctx context.Context, b *models.Bot, res *ValidationResult, symbol string, quantity, fillPrice float64, ord *exchange.Order) (*ExecutionReport, error) {
	stopLoss, takeProfit := EntryStops(b, res.Directive.PositionSide(), fillPrice)

	pos := &models.Position{
		BotID:        b.ID,
		Symbol:       symbol,
		Side:         res.Directive.PositionSide(),
		AccountType:  b.AccountType,
		EntryPrice:   fillPrice,
		Quantity:     quantity,
		EntryValue:   fillPrice * quantity,
		Status:       models.PositionStatusOpen,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		CurrentPrice: fillPrice,
	}

	// сделка на бирже уже исполнена: отказ записи здесь означает
	// нефиксированную локально позицию - логируем максимально громко
	if err := e.positions.Create(ctx, pos); err != nil {
		e.logger.Error("CRITICAL: exchange order filled but position was not recorded",
			zap.String("symbol", symbol),
			zap.String("exchange_order_id", ord.ID),
			zap.Float64("quantity", quantity),
			zap.Error(err))
		return nil, NewPipelineError(CategoryPersistence, "order filled but position was not recorded", err)
	}

	order := &models.Order{
		PositionID:  pos.ID,
		BotID:       b.ID,
		Type:        models.OrderTypeEntry,
		Side:        res.OrderSide,
		OrderType:   models.OrderExecMarket,
		Price:       fillPrice,
		Quantity:    quantity,
		Value:       fillPrice * quantity,
		Status:      ord.Status,
		FillPercent: fillPercent(ord),
		ExchangeID:  ord.ID,
	}
	if err := e.orders.Create(ctx, order); err != nil {
		e.logger.Error("CRITICAL: position recorded but entry order was not",
			zap.Int("position_id", pos.ID),
			zap.String("exchange_order_id", ord.ID),
			zap.Error(err))
		return nil, NewPipelineError(CategoryPersistence, "entry order was not recorded", err)
	}

	e.logger.Info("position opened",
		zap.Int("position_id", pos.ID),
		zap.String("symbol", symbol),
		zap.String("side", pos.Side),
		zap.Float64("entry_price", fillPrice),
		zap.Float64("quantity", quantity))

	return &ExecutionReport{
		Directive: res.Directive,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     fillPrice,
		Position:  pos,
		Order:     order,
	}, nil
}

// settleClose - единая бухгалтерия закрытия позиции
//
// Используется и исполнителем EXIT_* сигналов, и монитором позиций:
// оба проходят через один и тот же CAS-переход PositionStore.Close.
func settleClose(ctx context.Context, positions PositionStore, b *models.Bot, pos *models.Position, ord *exchange.Order, exitPrice float64, status string, logger *zap.Logger) (*models.Order, float64, error) {
	exitValue := exitPrice * pos.Quantity
	pnl := CalculatePnl(pos.Side, pos.EntryValue, exitValue)
	pnlPercent := 0.0
	if pos.EntryValue != 0 {
		pnlPercent = pnl / pos.EntryValue * 100
	}

	order := &models.Order{
		PositionID:  pos.ID,
		BotID:       b.ID,
		Type:        models.OrderTypeExit,
		Side:        exitOrderSide(pos.Side),
		OrderType:   models.OrderExecMarket,
		Price:       exitPrice,
		Quantity:    pos.Quantity,
		Value:       exitValue,
		Status:      ord.Status,
		FillPercent: fillPercent(ord),
		Pnl:         &pnl,
		ExchangeID:  ord.ID,
	}

	err := positions.Close(ctx, &models.PositionClose{
		PositionID: pos.ID,
		BotID:      b.ID,
		Status:     status,
		ExitPrice:  exitPrice,
		ExitValue:  exitValue,
		Pnl:        pnl,
		PnlPercent: pnlPercent,
		Order:      order,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrPositionNotOpen) {
			logger.Error("CRITICAL: exchange order filled but position close was not recorded",
				zap.Int("position_id", pos.ID),
				zap.String("exchange_order_id", ord.ID),
				zap.Error(err))
			err = NewPipelineError(CategoryPersistence, "position close was not recorded", err)
		}
		return nil, 0, err
	}

	pos.Status = status
	pos.ExitPrice = &exitPrice
	pos.ExitValue = &exitValue
	pos.Pnl = pnl
	pos.PnlPercent = pnlPercent

	logger.Info("position closed",
		zap.Int("position_id", pos.ID),
		zap.String("status", status),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl", pnl))

	return order, pnl, nil
}

// errExitPartiallyFilled сигнализирует, что EXIT ордер исполнен частично
// и позиция оставлена открытой
var errExitPartiallyFilled = errors.New("exit order partially filled")

// recordPartialExit фиксирует частично исполненный EXIT ордер.
//
// Позиция остается OPEN, PnL не считается: сверка исполненной части с
// исходным объемом позиции не выполняется. Закрытие произойдет следующим
// EXIT сигналом либо проходом монитора.
func recordPartialExit(ctx context.Context, orders OrderStore, b *models.Bot, pos *models.Position, ord *exchange.Order, exitPrice float64, logger *zap.Logger) (*models.Order, error) {
	order := &models.Order{
		PositionID:  pos.ID,
		BotID:       b.ID,
		Type:        models.OrderTypeExit,
		Side:        exitOrderSide(pos.Side),
		OrderType:   models.OrderExecMarket,
		Price:       exitPrice,
		Quantity:    pos.Quantity,
		Value:       exitPrice * pos.Quantity,
		Status:      ord.Status,
		FillPercent: fillPercent(ord),
		ExchangeID:  ord.ID,
	}
	if err := orders.Create(ctx, order); err != nil {
		logger.Error("CRITICAL: partial exit fill was not recorded",
			zap.Int("position_id", pos.ID),
			zap.String("exchange_order_id", ord.ID),
			zap.Error(err))
		return nil, NewPipelineError(CategoryPersistence, "partial exit order was not recorded", err)
	}

	logger.Warn("exit order partially filled, position kept open",
		zap.Int("position_id", pos.ID),
		zap.String("exchange_order_id", ord.ID),
		zap.Float64("fill_percent", order.FillPercent))

	return order, nil
}

// CalculatePnl вычисляет реализованный PnL по соглашению о знаке:
// LONG - exitValue − entryValue, SHORT - entryValue − exitValue.
func CalculatePnl(side string, entryValue, exitValue float64) float64 {
	if side == models.PositionSideShort {
		return entryValue - exitValue
	}
	return exitValue - entryValue
}

// EntryStops переводит процентные stopLoss/takeProfit бота в абсолютные
// цены относительно цены входа. Для шорта направления инвертированы.
func EntryStops(b *models.Bot, side string, entryPrice float64) (stopLoss, takeProfit *float64) {
	short := side == models.PositionSideShort
	if b.StopLoss != nil {
		v := entryPrice * (1 - *b.StopLoss/100)
		if short {
			v = entryPrice * (1 + *b.StopLoss/100)
		}
		stopLoss = &v
	}
	if b.TakeProfit != nil {
		v := entryPrice * (1 + *b.TakeProfit/100)
		if short {
			v = entryPrice * (1 - *b.TakeProfit/100)
		}
		takeProfit = &v
	}
	return stopLoss, takeProfit
}

// exitOrderSide возвращает сторону биржевого ордера для закрытия позиции
func exitOrderSide(positionSide string) string {
	if positionSide == models.PositionSideShort {
		return models.OrderSideBuy
	}
	return models.OrderSideSell
}

// fillPercent вычисляет процент исполнения ордера
func fillPercent(ord *exchange.Order) float64 {
	if ord.Quantity <= 0 {
		return 0
	}
	return ord.FilledQty / ord.Quantity * 100
}

// ============================================================
// Spot исполнитель
// ============================================================

// SpotExecutor исполняет сигналы на спотовом аккаунте
type SpotExecutor struct {
	core executorCore
	exch exchange.Exchange
}

// NewSpotExecutor создает исполнитель спотового аккаунта
func NewSpotExecutor(positions PositionStore, orders OrderStore, exch exchange.Exchange, logger *zap.Logger) *SpotExecutor {
	return &SpotExecutor{
		core: executorCore{
			positions: positions,
			orders:    orders,
			precision: NewPrecisionResolver(exch, logger),
			logger:    logger,
		},
		exch: exch,
	}
}

// Execute исполняет провалидированный сигнал
func (e *SpotExecutor) Execute(ctx context.Context, b *models.Bot, sig *models.Signal, res *ValidationResult, price float64) (*ExecutionReport, error) {
	return e.core.execute(ctx, b, res, sig.Symbol, price, e.exch.PlaceMarketOrder)
}

// ============================================================
// Margin исполнитель
// ============================================================

// MarginExecutor исполняет сигналы на маржинальном аккаунте,
// передавая бирже side effect (авто-займ/авто-погашение)
type MarginExecutor struct {
	core executorCore
	exch exchange.Exchange
}

// NewMarginExecutor создает исполнитель маржинального аккаунта
func NewMarginExecutor(positions PositionStore, orders OrderStore, exch exchange.Exchange, logger *zap.Logger) *MarginExecutor {
	return &MarginExecutor{
		core: executorCore{
			positions: positions,
			orders:    orders,
			precision: NewPrecisionResolver(exch, logger),
			logger:    logger,
		},
		exch: exch,
	}
}

// Execute исполняет провалидированный сигнал
func (e *MarginExecutor) Execute(ctx context.Context, b *models.Bot, sig *models.Signal, res *ValidationResult, price float64) (*ExecutionReport, error) {
	place := func(ctx context.Context, symbol, side string, quantity float64) (*exchange.Order, error) {
		return e.exch.PlaceMarginMarketOrder(ctx, symbol, side, quantity, res.SideEffect)
	}
	return e.core.execute(ctx, b, res, sig.Symbol, price, place)
}
