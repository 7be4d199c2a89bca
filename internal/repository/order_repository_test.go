package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tradegate/internal/models"
)

// ============================================================
// OrderRepository Tests
// ============================================================

func orderColumns() []string {
	return []string{
		"id", "position_id", "bot_id", "type", "side", "order_type",
		"price", "quantity", "value", "status", "fill_percent", "pnl",
		"exchange_order_id", "created_at",
	}
}

func TestOrderRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	order := &models.Order{
		PositionID:  3,
		BotID:       1,
		Type:        models.OrderTypeEntry,
		Side:        models.OrderSideBuy,
		OrderType:   models.OrderExecMarket,
		Price:       100,
		Quantity:    2,
		Value:       200,
		Status:      models.OrderStatusFilled,
		FillPercent: 100,
		ExchangeID:  "binance-42",
	}

	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(3, 1, "ENTRY", "BUY", "MARKET", 100.0, 2.0, 200.0,
			"FILLED", 100.0, nil, "binance-42", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	repo := NewOrderRepository(db)
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if order.ID != 21 {
		t.Errorf("ID = %d, want 21", order.ID)
	}
	if order.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestOrderRepositoryGetByPositionID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(orderColumns()).
		AddRow(1, 3, 1, "ENTRY", "BUY", "MARKET", 100.0, 2.0, 200.0, "FILLED", 100.0, nil, "e-1", now.Add(-time.Hour)).
		AddRow(2, 3, 1, "EXIT", "SELL", "MARKET", 110.0, 2.0, 220.0, "FILLED", 100.0, 20.0, "e-2", now)

	mock.ExpectQuery(`SELECT (.+) FROM orders`).
		WithArgs(3).
		WillReturnRows(rows)

	repo := NewOrderRepository(db)
	orders, err := repo.GetByPositionID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByPositionID returned error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[0].Pnl != nil {
		t.Errorf("entry Pnl = %v, want nil", orders[0].Pnl)
	}
	if orders[1].Pnl == nil || *orders[1].Pnl != 20 {
		t.Errorf("exit Pnl = %v, want 20", orders[1].Pnl)
	}
}

func TestOrderRepositoryGetRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(orderColumns()).
		AddRow(5, 4, 2, "EXIT", "SELL", "MARKET", 90.0, 1.0, 90.0, "FILLED", 100.0, -10.0, "", time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM orders`).
		WithArgs(50).
		WillReturnRows(rows)

	repo := NewOrderRepository(db)
	orders, err := repo.GetRecent(context.Background(), 50)
	if err != nil {
		t.Fatalf("GetRecent returned error: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	if orders[0].ID != 5 || orders[0].Type != "EXIT" {
		t.Errorf("order = %+v, want id=5 type=EXIT", orders[0])
	}
}
