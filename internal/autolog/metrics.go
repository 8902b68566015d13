package autolog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments one auto-logger instance. Each instance carries its
// own registry so parallel config testers can run side by side without
// duplicate-collector panics.
type Metrics struct {
	registry *prometheus.Registry

	PollsTotal    prometheus.Counter
	PollErrors    prometheus.Counter
	TradesOpened  prometheus.Counter
	TradesClosed  *prometheus.CounterVec
	OpenTrades    prometheus.Gauge
	LastPrice     prometheus.Gauge
	TotalPnL      prometheus.Gauge
}

// NewMetrics builds and registers the instrument set.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PollsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolog_polls_total",
		Help: "Number of tick polling cycles completed.",
	})
	m.PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolog_poll_errors_total",
		Help: "Number of polling cycles that failed and were skipped.",
	})
	m.TradesOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolog_trades_opened_total",
		Help: "Number of paper trades opened.",
	})
	m.TradesClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autolog_trades_closed_total",
		Help: "Number of paper trades closed, by result.",
	}, []string{"result"})
	m.OpenTrades = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autolog_open_trades",
		Help: "Paper trades currently awaiting an outcome.",
	})
	m.LastPrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autolog_last_price",
		Help: "Most recent polled price.",
	})
	m.TotalPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autolog_total_pnl_points",
		Help: "Cumulative closed PnL in points.",
	})

	m.registry.MustRegister(
		m.PollsTotal, m.PollErrors, m.TradesOpened, m.TradesClosed,
		m.OpenTrades, m.LastPrice, m.TotalPnL,
	)
	return m
}

// Registry exposes the private registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
