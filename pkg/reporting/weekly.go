package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/internal/learning"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/feedback"
)

// Progress labels the week-over-week learning direction.
type Progress string

const (
	Improving Progress = "IMPROVING"
	Stable    Progress = "STABLE"
	Declining Progress = "DECLINING"
)

// progressBand is the win-rate change, in percentage points, inside which
// a week counts as stable.
const progressBand = 2.0

// maxWeeklyEntries bounds the rolling index to one year.
const maxWeeklyEntries = 52

// WeeklyReport summarizes one ISO week of completed trades.
type WeeklyReport struct {
	Year          int       `json:"year"`
	Week          int       `json:"week"`
	GeneratedAt   time.Time `json:"generated_at"`
	Trades        int       `json:"trades"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	WinRate       float64   `json:"win_rate"`
	WinRateChange float64   `json:"win_rate_change"`
	ProfitFactor  float64   `json:"profit_factor"`
	TotalPnL      float64   `json:"total_pnl"`
	BestRegime    string    `json:"best_regime"`
	WorstRegime   string    `json:"worst_regime"`
	BestSession   string    `json:"best_session"`
	Progress      Progress  `json:"progress"`

	// TrendWinRates holds the last four weeks' win rates, oldest first,
	// including this one.
	TrendWinRates []float64 `json:"trend_win_rates"`
}

// WeeklyReporter builds and persists the weekly report artifacts.
type WeeklyReporter struct {
	paths Paths
	log   zerolog.Logger
	now   func() time.Time
}

// NewWeeklyReporter writes under the given reports root.
func NewWeeklyReporter(root string, log zerolog.Logger) *WeeklyReporter {
	return &WeeklyReporter{
		paths: Paths{Root: root},
		log:   log.With().Str("component", "weekly-reporter").Logger(),
		now:   time.Now,
	}
}

// Build summarizes the outcomes that fall inside the ISO week of asOf,
// deriving change and trend from the prior index entries.
func (r *WeeklyReporter) Build(outcomes []learning.TradeOutcome, prior []WeeklyReport, asOf time.Time) WeeklyReport {
	year, week := asOf.ISOWeek()

	var thisWeek []learning.TradeOutcome
	for _, o := range outcomes {
		y, w := o.Timestamp.ISOWeek()
		if y == year && w == week {
			thisWeek = append(thisWeek, o)
		}
	}

	report := WeeklyReport{
		Year:         year,
		Week:         week,
		GeneratedAt:  r.now().UTC(),
		Trades:       len(thisWeek),
		WinRate:      learning.WinRate(thisWeek),
		ProfitFactor: learning.ProfitFactor(thisWeek, 0.01),
		Progress:     Stable,
	}
	for _, o := range thisWeek {
		report.TotalPnL += o.PnL
		if o.IsWin() {
			report.Wins++
		} else if o.IsLoss() {
			report.Losses++
		}
	}

	metrics := feedback.Compute(thisWeek, asOf, 7)
	report.BestRegime = metrics.BestRegime
	report.WorstRegime = metrics.WorstRegime
	report.BestSession = metrics.BestSession

	if last := latestOther(prior, year, week); last != nil {
		report.WinRateChange = report.WinRate - last.WinRate
		switch {
		case report.WinRateChange > progressBand:
			report.Progress = Improving
		case report.WinRateChange < -progressBand:
			report.Progress = Declining
		}
	}

	for _, p := range tail(prior, 3) {
		report.TrendWinRates = append(report.TrendWinRates, p.WinRate)
	}
	report.TrendWinRates = append(report.TrendWinRates, report.WinRate)
	return report
}

// Generate builds this week's report, folds it into the rolling index and
// writes the JSON and HTML artifacts.
func (r *WeeklyReporter) Generate(outcomes []learning.TradeOutcome) (WeeklyReport, error) {
	asOf := r.now().UTC()

	index, err := r.loadIndex()
	if err != nil {
		return WeeklyReport{}, err
	}

	report := r.Build(outcomes, index, asOf)

	// Replace this week's entry if the report reruns within the week.
	kept := index[:0]
	for _, p := range index {
		if p.Year != report.Year || p.Week != report.Week {
			kept = append(kept, p)
		}
	}
	index = append(kept, report)
	if len(index) > maxWeeklyEntries {
		index = index[len(index)-maxWeeklyEntries:]
	}

	if err := writeJSON(r.paths.WeeklyIndex(), index); err != nil {
		return report, err
	}
	if err := writeJSON(r.paths.WeeklyJSON(asOf), report); err != nil {
		return report, err
	}
	if err := writeHTML(r.paths.WeeklyHTML(asOf), report); err != nil {
		return report, err
	}

	r.log.Info().
		Int("year", report.Year).
		Int("week", report.Week).
		Int("trades", report.Trades).
		Float64("win_rate", report.WinRate).
		Str("progress", string(report.Progress)).
		Msg("weekly report written")
	return report, nil
}

func (r *WeeklyReporter) loadIndex() ([]WeeklyReport, error) {
	raw, err := os.ReadFile(r.paths.WeeklyIndex())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly index: %w", err)
	}
	var index []WeeklyReport
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("failed to parse weekly index: %w", err)
	}
	return index, nil
}

// latestOther returns the most recent prior entry that is not the current
// week.
func latestOther(prior []WeeklyReport, year, week int) *WeeklyReport {
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Year != year || prior[i].Week != week {
			return &prior[i]
		}
	}
	return nil
}

func tail(reports []WeeklyReport, n int) []WeeklyReport {
	if len(reports) <= n {
		return reports
	}
	return reports[len(reports)-n:]
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
