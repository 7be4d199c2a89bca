package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tradegate/internal/bot"
	"tradegate/internal/exchange"
	"tradegate/internal/models"
	"tradegate/internal/repository"
	"tradegate/pkg/crypto"
)

// SignalService - конвейер обработки входящего алерта
//
// Порядок: нормализация → загрузка и авторизация бота → запись сигнала →
// резолв директивы → цена (оракул при отсутствии в алерте) → валидация →
// исполнение. Конфигурация загружается заново на каждый вызов - сервис
// не держит разделяемого состояния ботов между вызовами.
//
// Все ошибки терминальны: начиная с момента записи сигнала они фиксируются
// на нем (processed=true, error=сообщение) и не ретраятся - лекарство
// одно: прислать алерт заново.
type SignalService struct {
	bots      bot.BotStore
	accounts  bot.AccountStore
	signals   SignalStoreInterface
	positions bot.PositionStore
	orders    bot.OrderStore
	factory   exchange.Factory
	logger    *zap.Logger
}

// NewSignalService создает сервис обработки сигналов
func NewSignalService(
	bots bot.BotStore,
	accounts bot.AccountStore,
	signals SignalStoreInterface,
	positions bot.PositionStore,
	orders bot.OrderStore,
	factory exchange.Factory,
	logger *zap.Logger,
) *SignalService {
	return &SignalService{
		bots:      bots,
		accounts:  accounts,
		signals:   signals,
		positions: positions,
		orders:    orders,
		factory:   factory,
		logger:    logger,
	}
}

// ProcessResult - итог обработки алерта
type ProcessResult struct {
	SignalID int                  `json:"signal_id"`
	Report   *bot.ExecutionReport `json:"report,omitempty"`
}

// Process обрабатывает входящий алерт для бота botID.
// token - секрет вебхука из запроса (пустой, если бот его не требует).
func (s *SignalService) Process(ctx context.Context, botID int, token string, body []byte) (*ProcessResult, error) {
	alert, err := bot.ParseAlert(body, strconv.Itoa(botID))
	if err != nil {
		bot.SignalsProcessed.WithLabelValues(bot.CategoryOf(err)).Inc()
		return nil, err
	}

	b, account, err := s.authorize(ctx, botID, token, alert.Symbol)
	if err != nil {
		bot.SignalsProcessed.WithLabelValues(bot.CategoryOf(err)).Inc()
		return nil, err
	}

	// запись сигнала создается один раз; всё, что идет дальше,
	// терминально фиксируется на ней
	sig := &models.Signal{
		BotID:   b.ID,
		Action:  alert.Action,
		Symbol:  alert.Symbol,
		Price:   alert.Price,
		Message: alert.Message,
	}
	if err := s.signals.Create(ctx, sig); err != nil {
		bot.SignalsProcessed.WithLabelValues(bot.CategoryPersistence).Inc()
		return nil, bot.NewPipelineError(bot.CategoryPersistence, "failed to record signal", err)
	}

	report, err := s.run(ctx, b, account, sig)
	if err != nil {
		s.markProcessed(ctx, sig.ID, err.Error())
		bot.SignalsProcessed.WithLabelValues(bot.CategoryOf(err)).Inc()
		return &ProcessResult{SignalID: sig.ID}, err
	}

	s.markProcessed(ctx, sig.ID, "")
	bot.SignalsProcessed.WithLabelValues("executed").Inc()
	return &ProcessResult{SignalID: sig.ID, Report: report}, nil
}

// authorize загружает и проверяет бота, его биржевой аккаунт,
// секрет вебхука и allow-list символов (Bot Configuration Guard)
func (s *SignalService) authorize(ctx context.Context, botID int, token, symbol string) (*models.Bot, *models.ExchangeAccount, error) {
	b, err := s.bots.GetByID(ctx, botID)
	if err != nil {
		if errors.Is(err, repository.ErrBotNotFound) {
			return nil, nil, bot.NewPipelineError(bot.CategoryBot, "bot not found", bot.ErrBotNotFound)
		}
		return nil, nil, bot.NewPipelineError(bot.CategoryPersistence, "failed to load bot", err)
	}
	if !b.IsActive {
		return nil, nil, bot.NewPipelineError(bot.CategoryBot, "bot is not active", bot.ErrBotInactive)
	}

	if b.WebhookTokenHash != "" && !crypto.VerifyToken(token, b.WebhookTokenHash) {
		return nil, nil, bot.NewPipelineError(bot.CategoryUnauthorized, "invalid webhook token", nil)
	}

	if !b.AllowsSymbol(symbol) {
		return nil, nil, bot.NewPipelineError(bot.CategorySymbol,
			"symbol "+symbol+" is not in the bot allow-list ["+strings.Join(b.Symbols, ", ")+"]", nil)
	}

	account, err := s.accounts.GetByID(ctx, b.ExchangeID)
	if err != nil {
		return nil, nil, bot.NewPipelineError(bot.CategoryPersistence, "failed to load exchange account", err)
	}
	if !account.IsActive {
		return nil, nil, bot.NewPipelineError(bot.CategoryBot, "exchange account is not active", bot.ErrExchangeInactive)
	}

	return b, account, nil
}

// run выполняет торговую часть конвейера для записанного сигнала
func (s *SignalService) run(ctx context.Context, b *models.Bot, account *models.ExchangeAccount, sig *models.Signal) (*bot.ExecutionReport, error) {
	directive, err := bot.ResolveAction(sig.Action)
	if err != nil {
		return nil, err
	}

	client, err := s.factory.Client(account)
	if err != nil {
		return nil, bot.NewPipelineError(bot.CategoryPersistence, "failed to create exchange client", err)
	}

	// оракул цены: алерт без цены получает текущую рыночную
	price, err := s.resolvePrice(ctx, client, sig)
	if err != nil {
		return nil, err
	}

	var validator bot.Validator
	var executor bot.Executor
	if b.IsMargin() {
		validator = bot.NewMarginValidator(s.positions, client, s.logger)
		executor = bot.NewMarginExecutor(s.positions, s.orders, client, s.logger)
	} else {
		validator = bot.NewSpotValidator(s.positions, client, s.logger)
		executor = bot.NewSpotExecutor(s.positions, s.orders, client, s.logger)
	}

	vres := validator.Validate(ctx, b, directive, sig.Symbol, price)
	if vres.Err != nil {
		return nil, vres.Err
	}

	return executor.Execute(ctx, b, sig, vres, price)
}

// resolvePrice возвращает цену из алерта либо текущую рыночную.
// Отказ оракула терминален: без цены сделка не выполняется и не ретраится.
func (s *SignalService) resolvePrice(ctx context.Context, client exchange.Exchange, sig *models.Signal) (float64, error) {
	if sig.Price != nil && *sig.Price > 0 {
		return *sig.Price, nil
	}
	price, err := client.GetPrice(ctx, sig.Symbol)
	if err != nil {
		return 0, bot.NewPipelineError(bot.CategoryPrice, "Failed to fetch current price", err)
	}
	return price, nil
}

// markProcessed терминально помечает сигнал; отказ отметки только логируется
func (s *SignalService) markProcessed(ctx context.Context, signalID int, errorMessage string) {
	if err := s.signals.MarkProcessed(ctx, signalID, errorMessage); err != nil {
		s.logger.Error("failed to mark signal processed",
			zap.Int("signal_id", signalID),
			zap.Error(err))
	}
}
