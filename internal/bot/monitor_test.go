package bot

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tradegate/internal/models"
	"tradegate/internal/repository"
)

func TestCheckTriggers(t *testing.T) {
	tests := []struct {
		name       string
		side       string
		stopLoss   *float64
		takeProfit *float64
		price      float64
		triggered  bool
		reason     string
	}{
		{"long tp hit", models.PositionSideLong, floatPtr(95), floatPtr(110), 110, true, "take_profit"},
		{"long tp exceeded", models.PositionSideLong, floatPtr(95), floatPtr(110), 115, true, "take_profit"},
		{"long sl hit", models.PositionSideLong, floatPtr(95), floatPtr(110), 94, true, "stop_loss"},
		{"long in band", models.PositionSideLong, floatPtr(95), floatPtr(110), 100, false, ""},
		{"short tp hit", models.PositionSideShort, floatPtr(110), floatPtr(90), 89, true, "take_profit"},
		{"short sl hit", models.PositionSideShort, floatPtr(110), floatPtr(90), 111, true, "stop_loss"},
		{"short in band", models.PositionSideShort, floatPtr(110), floatPtr(90), 100, false, ""},
		{"only sl set", models.PositionSideLong, floatPtr(95), nil, 120, false, ""},
		{"only tp set", models.PositionSideLong, nil, floatPtr(110), 90, false, ""},
		{"no triggers", models.PositionSideLong, nil, nil, 50, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := &models.Position{
				Side:       tt.side,
				StopLoss:   tt.stopLoss,
				TakeProfit: tt.takeProfit,
			}
			triggered, reason := CheckTriggers(pos, tt.price)
			if triggered != tt.triggered {
				t.Errorf("triggered = %v, want %v", triggered, tt.triggered)
			}
			if reason != tt.reason {
				t.Errorf("reason = %s, want %s", reason, tt.reason)
			}
		})
	}
}

func monitorFixture(price float64) (*Monitor, *mockPositionStore, *mockOrderStore, *mockExchange) {
	positions := newMockPositionStore()
	orders := newMockOrderStore()

	exch := newMockExchange()
	exch.price = price
	exch.fillPrice = price

	bots := newMockBotStore(spotBot())
	accounts := newMockAccountStore(&models.ExchangeAccount{ID: 1, IsActive: true})
	factory := &mockFactory{client: exch}

	return NewMonitor(positions, orders, bots, accounts, factory, zap.NewNop()), positions, orders, exch
}

func TestMonitor_RunSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("closes triggered position", func(t *testing.T) {
		monitor, positions, _, exch := monitorFixture(110)
		pos := positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideLong,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			TakeProfit: floatPtr(105),
		})

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Checked != 1 || result.Triggered != 1 || result.Closed != 1 {
			t.Errorf("result = %+v, want checked/triggered/closed = 1", result)
		}
		if pos.Status != models.PositionStatusMarketClosed {
			t.Errorf("Status = %s, want MARKET_CLOSED", pos.Status)
		}
		if positions.exitOrderCount() != 1 {
			t.Errorf("exit orders = %d, want 1", positions.exitOrderCount())
		}
		if exch.placedCount() != 1 {
			t.Errorf("orders placed = %d, want 1", exch.placedCount())
		}
	})

	t.Run("no trigger leaves position open", func(t *testing.T) {
		monitor, positions, _, exch := monitorFixture(100)
		pos := positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideLong,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			StopLoss:   floatPtr(95),
			TakeProfit: floatPtr(110),
		})

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Checked != 1 || result.Triggered != 0 {
			t.Errorf("result = %+v, want checked=1 triggered=0", result)
		}
		if pos.Status != models.PositionStatusOpen {
			t.Errorf("Status = %s, want OPEN", pos.Status)
		}
		// текущая цена сохранена на позиции
		if pos.CurrentPrice != 100 {
			t.Errorf("CurrentPrice = %v, want 100", pos.CurrentPrice)
		}
		if exch.placedCount() != 0 {
			t.Errorf("orders placed = %d, want 0", exch.placedCount())
		}
	})

	t.Run("price failure counts error and keeps position open", func(t *testing.T) {
		monitor, positions, _, exch := monitorFixture(0)
		exch.priceErr = errors.New("network down")
		pos := positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideLong,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			TakeProfit: floatPtr(105),
		})

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Errors != 1 {
			t.Errorf("Errors = %d, want 1", result.Errors)
		}
		if pos.Status != models.PositionStatusOpen {
			t.Errorf("Status = %s, want OPEN", pos.Status)
		}
	})

	t.Run("lost race counted as skipped", func(t *testing.T) {
		monitor, positions, _, _ := monitorFixture(110)
		positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideLong,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			TakeProfit: floatPtr(105),
		})
		// конкурентный EXIT закрыл позицию между выборкой и закрытием
		positions.closeErr = repository.ErrPositionNotOpen

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", result.Skipped)
		}
		if result.Errors != 0 {
			t.Errorf("Errors = %d, want 0", result.Errors)
		}
	})

	t.Run("short position triggers mirrored", func(t *testing.T) {
		monitor, positions, _, _ := monitorFixture(89)
		pos := positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideShort,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			TakeProfit: floatPtr(90),
		})

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Closed != 1 {
			t.Errorf("Closed = %d, want 1", result.Closed)
		}
		if pos.Status != models.PositionStatusMarketClosed {
			t.Errorf("Status = %s, want MARKET_CLOSED", pos.Status)
		}
		// SHORT: прибыль при падении цены
		if pos.Pnl != 22 {
			t.Errorf("Pnl = %v, want 22", pos.Pnl)
		}
	})

	t.Run("partial exit fill keeps position open", func(t *testing.T) {
		monitor, positions, orders, exch := monitorFixture(110)
		exch.fillStatus = models.OrderStatusPartiallyFilled
		exch.filledQty = 1
		pos := positions.add(&models.Position{
			BotID:      1,
			Symbol:     "BTCUSDT",
			Side:       models.PositionSideLong,
			EntryPrice: 100,
			Quantity:   2,
			EntryValue: 200,
			Status:     models.PositionStatusOpen,
			TakeProfit: floatPtr(105),
		})

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}

		if result.Triggered != 1 || result.Closed != 0 || result.Errors != 0 {
			t.Errorf("result = %+v, want triggered=1 closed=0 errors=0", result)
		}
		if pos.Status != models.PositionStatusOpen {
			t.Errorf("Status = %s, want OPEN", pos.Status)
		}
		// частичный EXIT записан отдельным ордером вне транзакции закрытия
		if len(orders.orders) != 1 {
			t.Fatalf("orders recorded = %d, want 1", len(orders.orders))
		}
		ord := orders.orders[0]
		if ord.Status != models.OrderStatusPartiallyFilled || ord.FillPercent != 50 {
			t.Errorf("order = %+v, want PARTIALLY_FILLED with 50%% fill", ord)
		}
		if ord.Pnl != nil {
			t.Errorf("Pnl = %v, want nil", ord.Pnl)
		}
	})

	t.Run("empty sweep", func(t *testing.T) {
		monitor, _, _, _ := monitorFixture(100)

		result, err := monitor.RunSweep(ctx)
		if err != nil {
			t.Fatalf("RunSweep returned error: %v", err)
		}
		if result.Checked != 0 {
			t.Errorf("Checked = %d, want 0", result.Checked)
		}
	})
}
