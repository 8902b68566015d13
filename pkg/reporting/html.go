package reporting

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

var weeklyTemplate = template.Must(template.New("weekly").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Gold Intel — Week {{.Week}}/{{.Year}}</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
th { background: #f4f4f4; }
.pos { color: #1a7f37; } .neg { color: #cf222e; }
</style>
</head>
<body>
<h1>Weekly Trading Report — Week {{.Week}}/{{.Year}}</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04"}} UTC · Progress: <strong>{{.Progress}}</strong></p>
<table>
<tr><th>Trades</th><td>{{.Trades}} ({{.Wins}}W / {{.Losses}}L)</td></tr>
<tr><th>Win rate</th><td>{{printf "%.1f" .WinRate}}% <span class="{{if ge .WinRateChange 0.0}}pos{{else}}neg{{end}}">({{printf "%+.1f" .WinRateChange}}pp)</span></td></tr>
<tr><th>Profit factor</th><td>{{printf "%.2f" .ProfitFactor}}</td></tr>
<tr><th>Total PnL</th><td class="{{if ge .TotalPnL 0.0}}pos{{else}}neg{{end}}">{{printf "%+.2f" .TotalPnL}}</td></tr>
<tr><th>Best regime</th><td>{{.BestRegime}}</td></tr>
<tr><th>Worst regime</th><td>{{.WorstRegime}}</td></tr>
<tr><th>Best session</th><td>{{.BestSession}}</td></tr>
<tr><th>4-week win rates</th><td>{{range .TrendWinRates}}{{printf "%.1f%% " .}}{{end}}</td></tr>
</table>
</body>
</html>
`))

func writeHTML(path string, report WeeklyReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create html report: %w", err)
	}
	defer file.Close()

	if err := weeklyTemplate.Execute(file, report); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
