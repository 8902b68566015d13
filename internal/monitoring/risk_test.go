package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/gold-intel-bot/internal/logger"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
)

func TestScanLevels(t *testing.T) {
	tests := []struct {
		name   string
		vol    regime.Volatility
		report sentiment.Report
		want   RiskLevel
	}{
		{
			name:   "calm market",
			vol:    regime.NormalVol,
			report: sentiment.Report{Sentiment: sentiment.Neutral, Confidence: 0.5},
			want:   RiskNormal,
		},
		{
			name:   "high volatility alone",
			vol:    regime.HighVol,
			report: sentiment.Report{Sentiment: sentiment.Neutral},
			want:   RiskElevated,
		},
		{
			name:   "strong risk-off",
			vol:    regime.NormalVol,
			report: sentiment.Report{Sentiment: sentiment.RiskOff, Confidence: 0.9},
			want:   RiskHigh,
		},
		{
			name:   "high volatility plus risk-off",
			vol:    regime.HighVol,
			report: sentiment.Report{Sentiment: sentiment.RiskOff, Confidence: 0.4},
			want:   RiskCritical,
		},
		{
			name: "correlation breakdown",
			vol:  regime.NormalVol,
			report: sentiment.Report{
				Sentiment: sentiment.Neutral,
				Correlations: map[string]sentiment.SymbolCorrelation{
					"DX-Y.NYB": {Symbol: "DX-Y.NYB", Diverging: true, Change: 0.5},
					"^TNX":     {Symbol: "^TNX", Diverging: true, Change: -0.4},
					"SI=F":     {Symbol: "SI=F", Diverging: true, Change: 0.35},
				},
			},
			want: RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(logger.Discard(), nil)
			got := m.Scan(tt.vol, tt.report)
			assert.Equal(t, tt.want, got.Level)
			if tt.want != RiskNormal {
				assert.NotEmpty(t, got.Factors)
			}
		})
	}
}

func TestAlertLifecycle(t *testing.T) {
	m := NewMonitor(logger.Discard(), nil)

	m.Scan(regime.HighVol, sentiment.Report{Sentiment: sentiment.Neutral})
	active := m.ActiveAlerts()
	require.Len(t, active, 1)

	require.NoError(t, m.Acknowledge(active[0].ID))
	assert.Empty(t, m.ActiveAlerts())
	assert.Error(t, m.Acknowledge("alert_missing"))

	// A calm scan clears whatever is still open.
	m.Scan(regime.HighVol, sentiment.Report{Sentiment: sentiment.Neutral})
	m.Scan(regime.NormalVol, sentiment.Report{Sentiment: sentiment.Neutral, Confidence: 0.5})
	assert.Empty(t, m.ActiveAlerts())

	summary := m.Summary()
	assert.Equal(t, 2, summary[RiskElevated])
}
