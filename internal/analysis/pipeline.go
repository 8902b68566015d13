package analysis

import (
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/indicators"
	"github.com/ducminhle1904/gold-intel-bot/internal/patterns"
	"github.com/ducminhle1904/gold-intel-bot/internal/regime"
	"github.com/ducminhle1904/gold-intel-bot/internal/sentiment"
	"github.com/ducminhle1904/gold-intel-bot/internal/signal"
	"github.com/ducminhle1904/gold-intel-bot/pkg/config"
	"github.com/ducminhle1904/gold-intel-bot/pkg/storage"
	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// Result is one full analysis cycle over a bar window: the latest bar's
// labels, the pattern evidence and the scored signal.
type Result struct {
	Bars      int               `json:"bars"`
	Rows      []indicators.Row  `json:"-"`
	Regime    regime.Regime     `json:"regime"`
	Setup     patterns.Setup    `json:"setup"`
	Patterns  patterns.Analysis `json:"patterns"`
	Sentiment sentiment.Report  `json:"sentiment"`
	Signal    signal.Signal     `json:"signal"`
}

// Pipeline wires the deterministic batch path: indicators, regime,
// sentiment, pattern matching, scoring. One instance per run; no state
// survives between cycles.
type Pipeline struct {
	cfg        *config.Config
	engine     *indicators.Engine
	classifier *regime.Classifier
	analyzer   *sentiment.Analyzer
	matcher    *patterns.Matcher
	scorer     *signal.Scorer
	store      *storage.Store
	log        zerolog.Logger
}

// New builds a pipeline. store may be nil, in which case nothing is
// persisted and the cycle is purely in-memory.
func New(cfg *config.Config, store *storage.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		engine:     indicators.NewEngine(indicators.DefaultConfig()),
		classifier: regime.NewClassifier(regime.DefaultConfig()),
		analyzer:   sentiment.NewAnalyzer(),
		matcher:    patterns.NewMatcher(),
		scorer:     signal.NewScorer(cfg.Tuning),
		store:      store,
		log:        log.With().Str("component", "analysis").Logger(),
	}
}

// Run executes one analysis cycle over the bar window. Histories shorter
// than the regime warm-up return regime.ErrInsufficientHistory; the
// caller treats that as a skipped cycle, not a failure.
func (p *Pipeline) Run(bars []types.OHLCV, basket map[string][]types.OHLCV) (Result, error) {
	last := len(bars) - 1
	rows := p.engine.ComputeSeries(bars)

	reg, err := p.classifier.Classify(bars, rows, last)
	if err != nil {
		return Result{}, err
	}

	regimes := p.classifier.ClassifySeries(bars, rows)
	report := p.analyzer.Analyze(bars, basket)
	setup := patterns.BuildSetup(rows, last, reg)
	analysis := p.matcher.Analyze(bars, rows, regimes, setup)

	sig := p.scorer.Score(signal.Context{
		Regime:    reg,
		Analysis:  analysis,
		Sentiment: report,
		EMACross:  setup.EMACross,
		StochK:    setup.StochK,
		ATR:       rows[last].Value(indicators.KeyATR, 0),
		Price:     bars[last].Close,
		Timestamp: bars[last].Timestamp,
	})

	result := Result{
		Bars:      len(bars),
		Rows:      rows,
		Regime:    reg,
		Setup:     setup,
		Patterns:  analysis,
		Sentiment: report,
		Signal:    sig,
	}

	if err := p.persist(bars, rows, report); err != nil {
		return result, err
	}

	p.log.Info().
		Int("bars", len(bars)).
		Str("trend", string(reg.Trend)).
		Str("sentiment", string(report.Sentiment)).
		Int("pattern_matches", analysis.TotalMatches).
		Str("signal", string(sig.Type)).
		Str("strength", string(sig.Strength)).
		Msg("analysis cycle complete")
	return result, nil
}

// persist writes the latest indicator row and the cycle's correlations.
func (p *Pipeline) persist(bars []types.OHLCV, rows []indicators.Row, report sentiment.Report) error {
	if p.store == nil || len(bars) == 0 {
		return nil
	}

	last := len(bars) - 1
	if len(rows[last]) > 0 {
		if err := p.store.SaveIndicators(p.cfg.Symbol, bars[last].Timestamp, rows[last]); err != nil {
			return err
		}
	}

	start := bars[0].Timestamp
	end := bars[last].Timestamp
	for symbol, corr := range report.Correlations {
		if err := p.store.SaveCorrelation(p.cfg.Symbol, symbol, start, end, corr.Correlation, corr.Samples); err != nil {
			return err
		}
	}
	return nil
}
