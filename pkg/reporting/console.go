package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
	"github.com/ducminhle1904/gold-intel-bot/internal/learning/factory"
	"github.com/ducminhle1904/gold-intel-bot/internal/signal"
)

// PrintStatistics renders the auto-logger trade summary.
func PrintStatistics(stats autolog.Statistics) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PAPER TRADE STATISTICS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Total trades", stats.Total},
		{"Open", stats.Open},
		{"Wins", stats.Wins},
		{"Losses", stats.Losses},
		{"Expired", stats.Expired},
		{"Win rate", fmt.Sprintf("%.1f%%", stats.WinRate)},
		{"Profit factor", fmt.Sprintf("%.2f", stats.ProfitFactor)},
		{"Avg win", fmt.Sprintf("%+.2f", stats.AvgWin)},
		{"Avg loss", fmt.Sprintf("-%.2f", stats.AvgLoss)},
		{"Total PnL", fmt.Sprintf("%+.2f", stats.TotalPnL)},
	})
	t.Render()
}

// PrintSignal renders one scored signal with its checklist reasons.
func PrintSignal(sig signal.Signal) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SIGNAL")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"ID", sig.ID},
		{"Type", string(sig.Type)},
		{"Strength", string(sig.Strength)},
		{"Criteria", fmt.Sprintf("%d/%d", sig.CriteriaMet, sig.CriteriaTotal)},
		{"Entry", fmt.Sprintf("%.2f", sig.EntryPrice)},
		{"Regime", sig.Regime},
		{"Sentiment", sig.Sentiment},
		{"Pattern success", fmt.Sprintf("%.0f%%", sig.PatternSuccessRate)},
	})
	if sig.Type != signal.None {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Stop loss", fmt.Sprintf("%.2f", sig.StopLoss)},
			{"Take profit", fmt.Sprintf("%.2f", sig.TakeProfit)},
			{"R:R", fmt.Sprintf("%.2f", sig.RRRatio)},
		})
	}
	if len(sig.Reasons) > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Reasons", strings.Join(sig.Reasons, "\n")})
	}
	t.Render()
}

// PrintVersions renders the strategy version history, newest last.
func PrintVersions(versions []factory.Version) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("STRATEGY VERSIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Version", "Created", "Rules", "Win Rate", "PF", "Active"})

	for _, v := range versions {
		active := ""
		if v.IsActive {
			active = "✓"
		}
		t.AppendRow(table.Row{
			v.ID,
			v.CreatedAt.UTC().Format("2006-01-02"),
			v.RulesCount,
			fmt.Sprintf("%.1f%%", v.WinRate),
			fmt.Sprintf("%.2f", v.ProfitFactor),
			active,
		})
	}
	t.Render()
}

// PrintWeekly renders a weekly report summary.
func PrintWeekly(report WeeklyReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("WEEKLY REPORT %d-W%02d", report.Year, report.Week))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Trades", fmt.Sprintf("%d (%dW / %dL)", report.Trades, report.Wins, report.Losses)},
		{"Win rate", fmt.Sprintf("%.1f%% (%+.1fpp)", report.WinRate, report.WinRateChange)},
		{"Profit factor", fmt.Sprintf("%.2f", report.ProfitFactor)},
		{"Total PnL", fmt.Sprintf("%+.2f", report.TotalPnL)},
		{"Best regime", report.BestRegime},
		{"Best session", report.BestSession},
		{"Progress", string(report.Progress)},
	})
	t.Render()
}
