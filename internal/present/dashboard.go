package present

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fin-foresight/foresight/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Dashboard renders stock and indicator tables.
type Dashboard struct {
	w    io.Writer
	opts Options
}

// NewDashboard creates a dashboard renderer writing to w.
func NewDashboard(w io.Writer, opts Options) *Dashboard {
	return &Dashboard{w: w, opts: opts}
}

// Stocks writes one row per ticker, sorted by ticker. Rows the backend
// marked with an error show the error instead of prices.
func (d *Dashboard) Stocks(stocks map[string]types.StockSummary) {
	tickers := make([]string, 0, len(stocks))
	for t := range stocks {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	rows := make([][]string, 0, len(tickers))
	for _, t := range tickers {
		rows = append(rows, d.stockRow(t, stocks[t]))
	}
	d.write("Market Overview", []string{"Ticker", "Company", "Price", "Change", "Volume", "Market Cap", "P/E", "Sector"}, rows,
		"No stock data available")
}

// TopStocks writes the featured list in backend order, with the last recent
// close and the 50 and 200 day averages.
func (d *Dashboard) TopStocks(stocks []types.StockSummary) {
	rows := make([][]string, 0, len(stocks))
	for _, s := range stocks {
		last := types.Number{}
		if n := len(s.RecentPrices); n > 0 {
			last = s.RecentPrices[n-1].Close
		}
		rows = append(rows, []string{
			s.Ticker,
			Text(s.CompanyName),
			Price(s.Close),
			d.change(s.PercentChange),
			Price(last),
			Price(s.MA50),
			Price(s.MA200),
			FinancialNumber(s.AvgVolume, false),
		})
	}
	d.write("Top Stocks", []string{"Ticker", "Company", "Price", "Change", "Last Close", "50D MA", "200D MA", "Avg Volume"}, rows,
		"No top stocks available")
}

// Indicators writes an indicator series newest first, limited to days rows
// when days is positive. Columns are the value keys of the newest entry.
func (d *Dashboard) Indicators(title string, series types.IndicatorSeries, days int) {
	stamps := make([]string, 0, len(series))
	for ts := range series {
		stamps = append(stamps, ts)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stamps)))
	if days > 0 && len(stamps) > days {
		stamps = stamps[:days]
	}

	var keys []string
	if len(stamps) > 0 {
		for k := range series[stamps[0]] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	rows := make([][]string, 0, len(stamps))
	for _, ts := range stamps {
		row := []string{ts}
		for _, k := range keys {
			row = append(row, series[ts][k].Format(4))
		}
		rows = append(rows, row)
	}
	d.write(title, append([]string{"Date"}, keys...), rows, "No indicator data available")
}

func (d *Dashboard) stockRow(ticker string, s types.StockSummary) []string {
	if s.Error != "" {
		return []string{ticker, "Error: " + s.Error, types.Unavailable, types.Unavailable,
			types.Unavailable, types.Unavailable, types.Unavailable, types.Unavailable}
	}
	return []string{
		ticker,
		Text(s.CompanyName),
		Price(s.Close),
		d.change(s.PercentChange),
		FinancialNumber(s.Volume, false),
		MarketCap(s.MarketCap),
		Fixed(s.PERatio, 2),
		Text(s.Sector),
	}
}

func (d *Dashboard) change(n types.Number) string {
	b := &block{noColor: d.opts.NoColor}
	return b.change(n)
}

func (d *Dashboard) write(title string, headers []string, rows [][]string, empty string) {
	b := &block{noColor: d.opts.NoColor}
	b.title(title)
	if len(rows) == 0 {
		b.warn(empty)
		fmt.Fprint(d.w, b.String())
		return
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if d.opts.NoColor {
		t = t.Border(lipgloss.ASCIIBorder())
	} else {
		t = t.Border(lipgloss.RoundedBorder()).BorderStyle(borderStyle)
	}

	fmt.Fprint(d.w, b.String())
	fmt.Fprintln(d.w, strings.TrimRight(t.Render(), "\n"))
}
