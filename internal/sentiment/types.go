package sentiment

import "time"

// Sentiment labels the cross-market risk posture.
type Sentiment string

const (
	RiskOn    Sentiment = "RISK_ON"
	RiskOff   Sentiment = "RISK_OFF"
	Neutral   Sentiment = "NEUTRAL"
	Uncertain Sentiment = "UNCERTAIN"
)

// Basket symbols correlated against gold.
const (
	SymbolDollar = "DX-Y.NYB"
	SymbolYields = "^TNX"
	SymbolEquity = "^GSPC"
	SymbolSilver = "SI=F"
	SymbolCrude  = "CL=F"
)

// SymbolCorrelation describes how one basket member tracks gold.
type SymbolCorrelation struct {
	Symbol      string  `json:"symbol"`
	Correlation float64 `json:"correlation"`
	Rolling     float64 `json:"rolling_correlation"`
	Change      float64 `json:"correlation_change"`
	Diverging   bool    `json:"diverging"`
	Samples     int     `json:"samples"`
}

// Report is the sentiment analyzer output for one analysis cycle.
type Report struct {
	GeneratedAt  time.Time                    `json:"generated_at"`
	Sentiment    Sentiment                    `json:"sentiment"`
	Confidence   float64                      `json:"confidence"`
	GoldMove     float64                      `json:"gold_move_pct"`
	EquityMove   float64                      `json:"equity_move_pct"`
	DollarMove   float64                      `json:"dollar_move_pct"`
	YieldsMove   float64                      `json:"yields_move_pct"`
	Correlations map[string]SymbolCorrelation `json:"correlations"`
	Reasons      []string                     `json:"reasons"`
}
