package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики торгового ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// SignalsProcessed - количество обработанных сигналов по результатам
var SignalsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "signals_processed_total",
		Help:      "Total number of processed signals",
	},
	[]string{"result"}, // executed, parse_error, validation_error, ...
)

// OrdersSubmitted - количество отправленных на биржу ордеров
var OrdersSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "orders_submitted_total",
		Help:      "Total number of orders submitted to the exchange",
	},
	[]string{"type", "side", "outcome"}, // ENTRY/EXIT, BUY/SELL, ok/rejected
)

// OrderExecutionLatency - время исполнения ордера на бирже
var OrderExecutionLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "order_execution_latency_ms",
		Help:      "Time to execute order on exchange in milliseconds",
		Buckets:   []float64{50, 100, 200, 300, 500, 1000, 2000, 5000},
	},
	[]string{"type"},
)

// PositionsClosed - количество закрытых позиций по причинам
var PositionsClosed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "positions_closed_total",
		Help:      "Total number of closed positions",
	},
	[]string{"reason"}, // exit_signal, take_profit, stop_loss
)

// SweepDuration - длительность одного прохода монитора позиций
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "sweep_duration_ms",
		Help:      "Duration of one position monitor sweep in milliseconds",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	},
)

// SweepPositionsChecked - количество проверенных монитором позиций
var SweepPositionsChecked = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradegate",
		Subsystem: "core",
		Name:      "sweep_positions_checked_total",
		Help:      "Total number of open positions evaluated by the monitor",
	},
)
