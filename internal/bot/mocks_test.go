package bot

import (
	"context"
	"fmt"
	"sync"

	"tradegate/internal/exchange"
	"tradegate/internal/models"
	"tradegate/internal/repository"
)

// ============ Mock Position Store ============

// mockPositionStore - потокобезопасный мок хранилища позиций.
// Close воспроизводит CAS-семантику репозитория: переход OPEN →
// терминальный статус фиксируется не более одного раза.
type mockPositionStore struct {
	mu         sync.Mutex
	positions  map[int]*models.Position
	exitOrders []*models.Order
	nextID     int
	createErr  error
	closeErr   error
}

func newMockPositionStore() *mockPositionStore {
	return &mockPositionStore{
		positions: make(map[int]*models.Position),
		nextID:    1,
	}
}

func (m *mockPositionStore) add(pos *models.Position) *models.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos.ID == 0 {
		pos.ID = m.nextID
		m.nextID++
	}
	m.positions[pos.ID] = pos
	return pos
}

func (m *mockPositionStore) Create(ctx context.Context, pos *models.Position) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.add(pos)
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
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Position
	for _, pos := range m.positions {
		if pos.Status != models.PositionStatusOpen {
			continue
		}
		if pos.StopLoss != nil || pos.TakeProfit != nil {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (m *mockPositionStore) UpdateCurrentPrice(ctx context.Context, id int, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.positions[id]; ok {
		pos.CurrentPrice = price
	}
	return nil
}

func (m *mockPositionStore) Close(ctx context.Context, params *models.PositionClose) error {
	if m.closeErr != nil {
		return m.closeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[params.PositionID]
	if !ok || pos.Status != models.PositionStatusOpen {
		return repository.ErrPositionNotOpen
	}

	pos.Status = params.Status
	pos.ExitPrice = &params.ExitPrice
	pos.ExitValue = &params.ExitValue
	pos.Pnl = params.Pnl
	pos.PnlPercent = params.PnlPercent

	order := params.Order
	order.ID = m.nextID
	m.nextID++
	m.exitOrders = append(m.exitOrders, order)

	return nil
}

func (m *mockPositionStore) exitOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exitOrders)
}

// ============ Mock Order Store ============

type mockOrderStore struct {
	mu        sync.Mutex
	orders    []*models.Order
	createErr error
	nextID    int
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{nextID: 1}
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.nextID
	m.nextID++
	m.orders = append(m.orders, order)
	return nil
}

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

// ============ Mock Exchange ============

// mockExchange - потокобезопасный мок биржевого клиента
type mockExchange struct {
	mu sync.Mutex

	price    float64
	priceErr error

	limits    *exchange.Limits
	limitsErr error

	fillPrice  float64 // 0 = биржа не вернула fills
	fillStatus string  // "" = FILLED
	filledQty  float64 // 0 = исполнен весь объем
	placeErr   error
	placed     []placedOrder

	maxBorrowable float64
	borrowErr     error

	nextOrderID int
}

type placedOrder struct {
	symbol     string
	side       string
	quantity   float64
	sideEffect string
	margin     bool
}

func newMockExchange() *mockExchange {
	return &mockExchange{nextOrderID: 1}
}

func (m *mockExchange) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if m.priceErr != nil {
		return 0, m.priceErr
	}
	return m.price, nil
}

func (m *mockExchange) GetLimits(ctx context.Context, symbol string) (*exchange.Limits, error) {
	if m.limitsErr != nil {
		return nil, m.limitsErr
	}
	return m.limits, nil
}

func (m *mockExchange) place(symbol, side string, quantity float64, sideEffect string, margin bool) (*exchange.Order, error) {
	if m.placeErr != nil {
		return nil, m.placeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.placed = append(m.placed, placedOrder{
		symbol:     symbol,
		side:       side,
		quantity:   quantity,
		sideEffect: sideEffect,
		margin:     margin,
	})

	id := m.nextOrderID
	m.nextOrderID++

	status := m.fillStatus
	if status == "" {
		status = models.OrderStatusFilled
	}
	filled := m.filledQty
	if filled == 0 {
		filled = quantity
	}

	return &exchange.Order{
		ID:           fmt.Sprintf("ex-%d", id),
		Symbol:       symbol,
		Side:         side,
		Status:       status,
		Quantity:     quantity,
		FilledQty:    filled,
		AvgFillPrice: m.fillPrice,
	}, nil
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (*exchange.Order, error) {
	return m.place(symbol, side, quantity, "", false)
}

func (m *mockExchange) PlaceMarginMarketOrder(ctx context.Context, symbol, side string, quantity float64, sideEffect string) (*exchange.Order, error) {
	return m.place(symbol, side, quantity, sideEffect, true)
}

func (m *mockExchange) GetMaxBorrowable(ctx context.Context, asset string) (float64, error) {
	if m.borrowErr != nil {
		return 0, m.borrowErr
	}
	return m.maxBorrowable, nil
}

func (m *mockExchange) placedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.placed)
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

// floatPtr - помощник для тестовых данных
func floatPtr(v float64) *float64 {
	return &v
}
