package service

import (
	"context"
	"sync"

	"tradegate/internal/exchange"
	"tradegate/internal/models"
	"tradegate/internal/repository"
)

// ============ Mock Bot Store ============

type mockBotStore struct {
	bots map[int]*models.Bot
	err  error
}

func newMockBotStore(bots ...*models.Bot) *mockBotStore {
	m := &mockBotStore{bots: make(map[int]*models.Bot)}
	for _, b := range bots {
		m.bots[b.ID] = b
	}
	return m
}

func (m *mockBotStore) GetByID(ctx context.Context, id int) (*models.Bot, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.bots[id]
	if !ok {
		return nil, repository.ErrBotNotFound
	}
	return b, nil
}

// ============ Mock Account Store ============

type mockAccountStore struct {
	accounts map[int]*models.ExchangeAccount
	err      error
}

func newMockAccountStore(accounts ...*models.ExchangeAccount) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[int]*models.ExchangeAccount)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(ctx context.Context, id int) (*models.ExchangeAccount, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrExchangeAccountNotFound
	}
	return a, nil
}

// ============ Mock Signal Store ============

type mockSignalStore struct {
	mu        sync.Mutex
	signals   []*models.Signal
	processed map[int]string // id → error message
	createErr error
	markErr   error
	nextID    int
}

func newMockSignalStore() *mockSignalStore {
	return &mockSignalStore{processed: make(map[int]string), nextID: 1}
}

func (m *mockSignalStore) Create(ctx context.Context, signal *models.Signal) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	signal.ID = m.nextID
	m.nextID++
	m.signals = append(m.signals, signal)
	return nil
}

func (m *mockSignalStore) MarkProcessed(ctx context.Context, id int, errorMessage string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[id] = errorMessage
	return nil
}

func (m *mockSignalStore) GetRecent(ctx context.Context, limit int) ([]*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signals, nil
}

// ============ Mock Position Store ============

type mockPositionStore struct {
	mu        sync.Mutex
	positions map[int]*models.Position
	nextID    int
}

func newMockPositionStore() *mockPositionStore {
	return &mockPositionStore{positions: make(map[int]*models.Position), nextID: 1}
}

func (m *mockPositionStore) Create(ctx context.Context, pos *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos.ID = m.nextID
	m.nextID++
	m.positions[pos.ID] = pos
	return nil
}

func (m *mockPositionStore) GetOpenBySide(ctx context.Context, botID int, symbol, side string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range m.positions {
		if pos.BotID == botID && pos.Symbol == symbol && pos.Side == side && pos.Status == models.PositionStatusOpen {
			return pos, nil
		}
	}
	return nil, repository.ErrPositionNotFound
}

func (m *mockPositionStore) GetOpenWithTriggers(ctx context.Context) ([]*models.Position, error) {
	return nil, nil
}

func (m *mockPositionStore) UpdateCurrentPrice(ctx context.Context, id int, price float64) error {
	return nil
}

func (m *mockPositionStore) Close(ctx context.Context, params *models.PositionClose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[params.PositionID]
	if !ok || pos.Status != models.PositionStatusOpen {
		return repository.ErrPositionNotOpen
	}
	pos.Status = params.Status
	return nil
}

// ============ Mock Order Store ============

type mockOrderStore struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = len(m.orders) + 1
	m.orders = append(m.orders, order)
	return nil
}

// ============ Mock Exchange ============

type mockExchange struct {
	price     float64
	priceErr  error
	fillPrice float64
	placeErr  error

	mu     sync.Mutex
	placed int
}

func (m *mockExchange) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if m.priceErr != nil {
		return 0, m.priceErr
	}
	return m.price, nil
}

func (m *mockExchange) GetLimits(ctx context.Context, symbol string) (*exchange.Limits, error) {
	return nil, nil
}

func (m *mockExchange) placeOrder(symbol, side string, quantity float64) (*exchange.Order, error) {
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.mu.Lock()
	m.placed++
	m.mu.Unlock()
	return &exchange.Order{
		ID:           "ex-1",
		Symbol:       symbol,
		Side:         side,
		Status:       models.OrderStatusFilled,
		Quantity:     quantity,
		FilledQty:    quantity,
		AvgFillPrice: m.fillPrice,
	}, nil
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (*exchange.Order, error) {
	return m.placeOrder(symbol, side, quantity)
}

func (m *mockExchange) PlaceMarginMarketOrder(ctx context.Context, symbol, side string, quantity float64, sideEffect string) (*exchange.Order, error) {
	return m.placeOrder(symbol, side, quantity)
}

func (m *mockExchange) GetMaxBorrowable(ctx context.Context, asset string) (float64, error) {
	return 1e9, nil
}

// ============ Mock Exchange Factory ============

type mockFactory struct {
	client exchange.Exchange
	err    error
}

func (f *mockFactory) Client(account *models.ExchangeAccount) (exchange.Exchange, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}
