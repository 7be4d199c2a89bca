package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tradegate/internal/exchange"
	"tradegate/internal/models"
	"tradegate/internal/repository"
)

// ValidationResult - результат проверки исполнимости директивы
//
// Валидатор никогда не возвращает ошибку наружу: оба исхода упаковываются
// в результат и логируются для аудита. Err != nil означает терминальный
// отказ (сигнал помечается processed с ошибкой, сделка не выполняется).
type ValidationResult struct {
	Success    bool
	Directive  Directive
	OrderSide  string           // BUY / SELL
	Quantity   float64          // размер до приведения к точности биржи
	SideEffect string           // только для маржинального аккаунта
	Position   *models.Position // существующая позиция для EXIT_*
	Err        *PipelineError
}

// Validator проверяет исполнимость директивы при текущих
// балансах/лимитах и вычисляет размер сделки
type Validator interface {
	Validate(ctx context.Context, b *models.Bot, directive Directive, symbol string, price float64) *ValidationResult
}

func failValidation(d Directive, err *PipelineError, logger *zap.Logger) *ValidationResult {
	logger.Warn("signal validation failed",
		zap.String("directive", string(d)),
		zap.String("error", err.Message))
	return &ValidationResult{Directive: d, Err: err}
}

// entryQuantity вычисляет размер входа из конфигурации бота:
// QUOTE - нотионал, делится на цену; BASE - фиксированное количество.
func entryQuantity(b *models.Bot, price float64) float64 {
	if b.TradeAmountType == models.TradeAmountQuote {
		if price <= 0 {
			return 0
		}
		return b.TradeAmount / price
	}
	return b.TradeAmount
}

// checkMinNotional проверяет минимальный нотионал биржи.
// Недоступные метаданные пропускают проверку - это не причина отклонять сделку.
func checkMinNotional(limits *exchange.Limits, quantity, price float64) *PipelineError {
	if limits == nil || limits.MinNotional <= 0 {
		return nil
	}
	notional := quantity * price
	if notional < limits.MinNotional {
		return ValidationError("order notional %.8f is below exchange minimum %.8f",
			notional, limits.MinNotional)
	}
	return nil
}

// baseAssetOf возвращает базовый актив символа: из метаданных биржи,
// либо отрезая известный суффикс котируемой валюты
func baseAssetOf(limits *exchange.Limits, symbol string) string {
	if limits != nil && limits.BaseAsset != "" {
		return limits.BaseAsset
	}
	for _, quote := range []string{"USDT", "USDC", "BUSD", "BTC", "ETH"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote)
		}
	}
	return symbol
}

// findOpenPosition ищет открытую позицию для EXIT директивы
func findOpenPosition(ctx context.Context, positions PositionStore, b *models.Bot, d Directive, symbol string) (*models.Position, *PipelineError) {
	pos, err := positions.GetOpenBySide(ctx, b.ID, symbol, d.PositionSide())
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ValidationError("no open %s position for %s to exit", d.PositionSide(), symbol)
		}
		return nil, NewPipelineError(CategoryPersistence, "failed to load open position", err)
	}
	return pos, nil
}

// ============================================================
// Spot валидатор
// ============================================================

// SpotValidator проверяет директивы для спотового аккаунта.
// Короткие продажи на споте не поддерживаются.
type SpotValidator struct {
	positions PositionStore
	exch      exchange.Exchange
	logger    *zap.Logger
}

// NewSpotValidator создает валидатор спотового аккаунта
func NewSpotValidator(positions PositionStore, exch exchange.Exchange, logger *zap.Logger) *SpotValidator {
	return &SpotValidator{positions: positions, exch: exch, logger: logger}
}

// Validate проверяет исполнимость директивы на споте
func (v *SpotValidator) Validate(ctx context.Context, b *models.Bot, d Directive, symbol string, price float64) *ValidationResult {
	if d == EnterShort || d == ExitShort {
		return failValidation(d,
			ValidationError("short selling is not supported on a spot account"), v.logger)
	}

	if d.IsExit() {
		pos, perr := findOpenPosition(ctx, v.positions, b, d, symbol)
		if perr != nil {
			return failValidation(d, perr, v.logger)
		}
		// частичное закрытие не поддерживается - выходим всем объемом
		return v.pass(d, pos.Quantity, pos)
	}

	quantity := entryQuantity(b, price)
	if quantity <= 0 {
		return failValidation(d, ValidationError("computed trade size is zero"), v.logger)
	}

	limits, err := v.exch.GetLimits(ctx, symbol)
	if err != nil {
		v.logger.Warn("exchange limits unavailable, skipping notional check",
			zap.String("symbol", symbol), zap.Error(err))
		limits = nil
	}
	if perr := checkMinNotional(limits, quantity, price); perr != nil {
		return failValidation(d, perr, v.logger)
	}

	return v.pass(d, quantity, nil)
}

func (v *SpotValidator) pass(d Directive, quantity float64, pos *models.Position) *ValidationResult {
	v.logger.Info("signal validation passed",
		zap.String("directive", string(d)),
		zap.Float64("quantity", quantity))
	return &ValidationResult{
		Success:   true,
		Directive: d,
		OrderSide: d.OrderSide(),
		Quantity:  quantity,
		Position:  pos,
	}
}

// ============================================================
// Margin валидатор
// ============================================================

// MarginValidator проверяет директивы для маржинального аккаунта.
// Размер входа умножается на плечо; шорт дополнительно требует, чтобы
// максимально доступный займ покрывал требуемый объем базового актива.
type MarginValidator struct {
	positions PositionStore
	exch      exchange.Exchange
	logger    *zap.Logger
}

// NewMarginValidator создает валидатор маржинального аккаунта
func NewMarginValidator(positions PositionStore, exch exchange.Exchange, logger *zap.Logger) *MarginValidator {
	return &MarginValidator{positions: positions, exch: exch, logger: logger}
}

// Validate проверяет исполнимость директивы на марже
func (v *MarginValidator) Validate(ctx context.Context, b *models.Bot, d Directive, symbol string, price float64) *ValidationResult {
	if d.IsExit() {
		pos, perr := findOpenPosition(ctx, v.positions, b, d, symbol)
		if perr != nil {
			return failValidation(d, perr, v.logger)
		}
		return v.pass(d, pos.Quantity, exitSideEffect(b), pos)
	}

	quantity := entryQuantity(b, price)
	if b.Leverage > 1 {
		quantity *= float64(b.Leverage)
	}
	if quantity <= 0 {
		return failValidation(d, ValidationError("computed trade size is zero"), v.logger)
	}

	limits, err := v.exch.GetLimits(ctx, symbol)
	if err != nil {
		v.logger.Warn("exchange limits unavailable, skipping notional check",
			zap.String("symbol", symbol), zap.Error(err))
		limits = nil
	}
	if perr := checkMinNotional(limits, quantity, price); perr != nil {
		return failValidation(d, perr, v.logger)
	}

	if d == EnterShort {
		// шорт исполняется займом базового актива - займ должен покрывать объем
		asset := baseAssetOf(limits, symbol)
		maxBorrowable, err := v.exch.GetMaxBorrowable(ctx, asset)
		if err != nil {
			return failValidation(d,
				NewPipelineError(CategoryValidation, "failed to check max borrowable for "+asset, err), v.logger)
		}
		if maxBorrowable < quantity {
			return failValidation(d,
				ValidationError("max borrowable %.8f %s does not cover required %.8f",
					maxBorrowable, asset, quantity), v.logger)
		}
	}

	return v.pass(d, quantity, entrySideEffect(b, d), nil)
}

func (v *MarginValidator) pass(d Directive, quantity float64, sideEffect string, pos *models.Position) *ValidationResult {
	v.logger.Info("signal validation passed",
		zap.String("directive", string(d)),
		zap.Float64("quantity", quantity),
		zap.String("side_effect", sideEffect))
	return &ValidationResult{
		Success:    true,
		Directive:  d,
		OrderSide:  d.OrderSide(),
		Quantity:   quantity,
		SideEffect: sideEffect,
		Position:   pos,
	}
}

// entrySideEffect выбирает side effect для входа: займ нужен при плече
// больше единицы и всегда при шорте
func entrySideEffect(b *models.Bot, d Directive) string {
	if d == EnterShort || b.Leverage > 1 {
		return exchange.SideEffectMarginBuy
	}
	return exchange.SideEffectNone
}

// exitSideEffect выбирает side effect для выхода по флагу autoRepay
func exitSideEffect(b *models.Bot) string {
	if b.AutoRepay {
		return exchange.SideEffectAutoRepay
	}
	return exchange.SideEffectNone
}
