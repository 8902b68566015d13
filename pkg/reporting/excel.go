package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/gold-intel-bot/internal/autolog"
)

// WriteTradesXLSX exports the auto-logger trade history as a workbook
// with a trade sheet and a summary sheet.
func WriteTradesXLSX(trades []*autolog.PaperTrade, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"
	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := []any{
		"Signal ID", "Opened (UTC)", "Direction", "Entry", "Stop", "Target",
		"Score L", "Score S", "Regime", "Session", "RSI", "Stoch", "ATR",
		"Status", "Exit", "Closed (UTC)", "PnL", "Max Profit", "Max Loss",
	}
	if err := fx.SetSheetRow(tradesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write trade header: %w", err)
	}
	if err := fx.SetCellStyle(tradesSheet, "A1", "S1", headerStyle); err != nil {
		return err
	}

	for i, t := range trades {
		row := []any{
			t.SignalID,
			t.OpenTime.UTC().Format("2006-01-02 15:04:05"),
			string(t.Direction),
			t.EntryPrice, t.StopLoss, t.TakeProfit,
			t.ScoreLong, t.ScoreShort,
			t.Regime, t.Session,
			t.RSI, t.Stoch, t.ATR,
			string(t.Status),
		}
		if t.ExitPrice != nil {
			row = append(row, *t.ExitPrice)
		} else {
			row = append(row, "")
		}
		if t.ExitTime != nil {
			row = append(row, t.ExitTime.UTC().Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}
		if t.PnL != nil {
			row = append(row, *t.PnL)
		} else {
			row = append(row, "")
		}
		row = append(row, t.MaxProfit, t.MaxLoss)

		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(tradesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write trade row %d: %w", i+2, err)
		}
	}

	stats := autolog.ComputeStatistics(trades)
	summary := [][]any{
		{"Total trades", stats.Total},
		{"Open", stats.Open},
		{"Wins", stats.Wins},
		{"Losses", stats.Losses},
		{"Expired", stats.Expired},
		{"Win rate %", stats.WinRate},
		{"Profit factor", stats.ProfitFactor},
		{"Avg win", stats.AvgWin},
		{"Avg loss", stats.AvgLoss},
		{"Total PnL", stats.TotalPnL},
	}
	for i, row := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		r := row
		if err := fx.SetSheetRow(summarySheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := fx.SetCellStyle(summarySheet, "A1", "A10", headerStyle); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
