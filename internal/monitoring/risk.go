package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
)

// RiskLevel grades the current market conditions for open exposure.
type RiskLevel string

const (
	RiskNormal   RiskLevel = "NORMAL"
	RiskElevated RiskLevel = "ELEVATED"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskRank = map[RiskLevel]int{
	RiskNormal:   0,
	RiskElevated: 1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Alert is one raised risk condition. Alerts persist until acknowledged
// or until a later scan clears the condition.
type Alert struct {
	ID           string    `json:"id"`
	RaisedAt     time.Time `json:"raised_at"`
	Level        RiskLevel `json:"level"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	Cleared      bool      `json:"cleared"`
}

// Assessment is the outcome of one risk scan.
type Assessment struct {
	ScannedAt time.Time `json:"scanned_at"`
	Level     RiskLevel `json:"level"`
	Factors   []string  `json:"factors"`
}

// Monitor scans regime volatility, sentiment and correlation divergence
// and keeps an alert ledger.
type Monitor struct {
	log       zerolog.Logger
	riskGauge prometheus.Gauge
	now       func() time.Time

	mu     sync.Mutex
	alerts []Alert
}

// NewMonitor creates a risk monitor. The gauge registers into reg when it
// is non-nil.
func NewMonitor(log zerolog.Logger, reg prometheus.Registerer) *Monitor {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gold_intel",
		Subsystem: "risk",
		Name:      "level",
		Help:      "Current risk level (0 normal .. 3 critical).",
	})
	if reg != nil {
		reg.MustRegister(gauge)
	}
	return &Monitor{
		log:       log.With().Str("component", "risk-monitor").Logger(),
		riskGauge: gauge,
		now:       time.Now,
	}
}

// Scan grades the current conditions and raises alerts for anything at or
// above ELEVATED. A scan that comes back NORMAL clears open alerts.
func (m *Monitor) Scan(vol regime.Volatility, report sentiment.Report) Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	assessment := Assessment{ScannedAt: now, Level: RiskNormal}

	if vol == regime.HighVol {
		assessment.raise(RiskElevated, "volatility above 1.5x its 20-bar average")
	}
	if report.Sentiment == sentiment.Uncertain {
		assessment.raise(RiskElevated, "cross-market sentiment is uncertain")
	}
	if report.Sentiment == sentiment.RiskOff && report.Confidence > 0.7 {
		assessment.raise(RiskHigh, fmt.Sprintf("strong risk-off sentiment (confidence %.2f)", report.Confidence))
	}

	diverging := 0
	for _, c := range report.Correlations {
		if c.Diverging {
			diverging++
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("%s correlation shifted %+.2f", c.Symbol, c.Change))
		}
	}
	switch {
	case diverging >= 3:
		assessment.raise(RiskCritical, fmt.Sprintf("%d correlations diverging at once", diverging))
	case diverging >= 1:
		assessment.raise(RiskElevated, "correlation regime shifting")
	}

	if vol == regime.HighVol && report.Sentiment == sentiment.RiskOff {
		assessment.raise(RiskCritical, "high volatility with risk-off sentiment")
	}

	m.riskGauge.Set(float64(riskRank[assessment.Level]))

	if assessment.Level == RiskNormal {
		m.clearOpenAlerts()
	} else {
		m.alerts = append(m.alerts, Alert{
			ID:       newAlertID(),
			RaisedAt: now,
			Level:    assessment.Level,
			Message:  assessment.Factors[0],
		})
		m.log.Warn().
			Str("level", string(assessment.Level)).
			Strs("factors", assessment.Factors).
			Msg("risk alert raised")
	}
	return assessment
}

// raise escalates the assessment to at least level and records the factor.
func (a *Assessment) raise(level RiskLevel, factor string) {
	if riskRank[level] > riskRank[a.Level] {
		a.Level = level
	}
	a.Factors = append(a.Factors, factor)
}

func (m *Monitor) clearOpenAlerts() {
	for i := range m.alerts {
		if !m.alerts[i].Cleared {
			m.alerts[i].Cleared = true
			m.log.Info().Str("alert_id", m.alerts[i].ID).Msg("risk alert cleared")
		}
	}
}

// Acknowledge marks one alert as seen. Unknown ids are an error.
func (m *Monitor) Acknowledge(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Acknowledged = true
			return nil
		}
	}
	return fmt.Errorf("unknown alert %s", id)
}

// ActiveAlerts returns alerts that are neither acknowledged nor cleared.
func (m *Monitor) ActiveAlerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	for _, a := range m.alerts {
		if !a.Acknowledged && !a.Cleared {
			out = append(out, a)
		}
	}
	return out
}

// Summary counts alerts by level over the ledger.
func (m *Monitor) Summary() map[RiskLevel]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[RiskLevel]int{}
	for _, a := range m.alerts {
		out[a.Level]++
	}
	return out
}

func newAlertID() string {
	return "alert_" + uuid.NewString()[:8]
}
