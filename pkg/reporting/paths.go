package reporting

import (
	"fmt"
	"path/filepath"
	"time"
)

// Paths resolves where report artifacts live under the reports root.
type Paths struct {
	Root string
}

// WeeklyIndex is the rolling weekly_reports.json document.
func (p Paths) WeeklyIndex() string {
	return filepath.Join(p.Root, "weekly_reports.json")
}

// WeeklyJSON is the per-week JSON report, keyed by ISO year and week.
func (p Paths) WeeklyJSON(t time.Time) string {
	year, week := t.ISOWeek()
	return filepath.Join(p.Root, fmt.Sprintf("report_%d-%02d.json", year, week))
}

// WeeklyHTML is the per-week HTML report.
func (p Paths) WeeklyHTML(t time.Time) string {
	year, week := t.ISOWeek()
	return filepath.Join(p.Root, fmt.Sprintf("report_%d-%02d.html", year, week))
}

// TradesWorkbook is the Excel export of the auto-logger trade history.
func (p Paths) TradesWorkbook(t time.Time) string {
	return filepath.Join(p.Root, fmt.Sprintf("trades_%s.xlsx", t.UTC().Format("20060102")))
}
