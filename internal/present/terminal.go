package present

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/fin-foresight/foresight/internal/orchestrator"
	"github.com/fin-foresight/foresight/internal/types"
)

// Options controls terminal rendering.
type Options struct {
	NoColor bool
	// MaxNews limits the news items listed for the data analyst.
	MaxNews int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Terminal writes agent results as text blocks.
type Terminal struct {
	mu   sync.Mutex
	w    io.Writer
	opts Options
}

// NewTerminal creates a presenter writing to w.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	if opts.MaxNews <= 0 {
		opts.MaxNews = 5
	}
	return &Terminal{w: w, opts: opts}
}

// Present implements orchestrator.Presenter.
func (t *Terminal) Present(agent types.AgentID, outcome orchestrator.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, t.Render(agent, outcome))
}

// Render returns the text block for one agent outcome.
func (t *Terminal) Render(agent types.AgentID, outcome orchestrator.Outcome) string {
	b := &block{noColor: t.opts.NoColor}
	b.title(fmt.Sprintf("%s (%s)", agent.Title(), outcome.Status.Label()))

	res := outcome.Result
	if outcome.Status == types.AgentStatusError || res.HasFailure() {
		msg := outcome.Message
		if msg == "" {
			msg = res.ErrorMessage()
		}
		if msg == "" {
			msg = "An unexpected error occurred"
		}
		b.alert(msg)
		if da, ok := payloadOf[*types.DataAnalysis](res); ok {
			renderCompanyInfo(b, da.CompanyInfo)
		}
		b.end()
		return b.String()
	}

	if res == nil || res.Payload == nil {
		b.warn("No results available")
		b.end()
		return b.String()
	}

	switch p := res.Payload.(type) {
	case *types.DataAnalysis:
		t.renderDataAnalysis(b, p)
	case *types.StrategyReport:
		renderStrategyReport(b, p)
	case *types.Recommendation:
		renderRecommendation(b, p)
	case *types.RiskAssessment:
		renderRiskAssessment(b, p)
	case *types.GenericPayload:
		renderGeneric(b, p)
	}
	b.end()
	return b.String()
}

func payloadOf[T types.Payload](res *types.AgentResult) (T, bool) {
	var zero T
	if res == nil || res.Payload == nil {
		return zero, false
	}
	p, ok := res.Payload.(T)
	return p, ok
}

func renderCompanyInfo(b *block, info types.CompanyInfo) {
	b.section("Company Information")
	b.row("Ticker", Text(info.Ticker))
	b.row("Company Name", Text(info.Name))
	b.row("Sector", Text(info.Sector))
	b.row("Industry", Text(info.Industry))
}

func (t *Terminal) renderDataAnalysis(b *block, d *types.DataAnalysis) {
	renderCompanyInfo(b, d.CompanyInfo)

	o := d.Overview
	b.section("Market Overview")
	b.row("Current Price", Price(o.CurrentPrice))
	b.row("Price Change", b.change(o.PriceChange))
	b.row("Market Cap", MarketCap(o.MarketCap))
	b.row("Volume", FinancialNumber(o.Volume, false))
	b.row("P/E Ratio", Fixed(o.PERatio, 2))

	r := d.FinancialRatios
	b.section("Financial Ratios")
	b.row("P/E Ratio", Fixed(r.PERatio, 2))
	b.row("EPS", FinancialNumber(r.EPS, true))
	b.row("Price to Book", Fixed(r.PriceToBook, 2))
	b.row("Dividend Yield", Percent(r.DividendYield, true))
	b.row("Profit Margin", Percent(r.ProfitMargin, true))
	b.row("Return on Equity", Percent(r.ReturnOnEquity, true))
	b.row("Return on Assets", Percent(r.ReturnOnAssets, true))
	b.row("Debt to Equity", Fixed(r.DebtToEquity, 2))
	b.row("Current Ratio", Fixed(r.CurrentRatio, 2))

	n := d.NewsSentiment
	b.section("News Sentiment")
	b.row("Sentiment Score", Fixed(n.SentimentScore, 2))
	if len(n.News) == 0 {
		b.line("  No recent news")
	}
	for i, article := range n.News {
		if i == t.opts.MaxNews {
			b.line(fmt.Sprintf("  ... %d more", len(n.News)-i))
			break
		}
		b.line(fmt.Sprintf("  - %s (%s, %s)", Text(article.Title), Text(article.Source), Fixed(article.SentimentScore, 2)))
	}
}

func renderStrategyReport(b *block, r *types.StrategyReport) {
	renderStrategy(b, "Moving Average Crossover", r.MovingAverage, r.MAError)
	renderStrategy(b, "RSI Strategy", r.RSI, r.RSIError)
}

func renderStrategy(b *block, name string, s *types.Strategy, errMsg string) {
	b.section(name)
	if errMsg == "" && s != nil {
		errMsg = s.Error
	}
	if errMsg != "" {
		b.warn(errMsg)
		return
	}
	if s == nil {
		b.line("  " + types.Unavailable)
		return
	}
	p := s.Performance
	b.row("Current Signal", Text(p.CurrentSignal))
	b.row("Win Rate", Percent(p.WinRate, true))
	b.row("Total Trades", Count(p.TotalTrades))
	b.row("Cumulative Return", Percent(p.CumulativeReturn, true))
	b.row("Sharpe Ratio", Fixed(p.SharpeRatio, 2))
	if p.CurrentRSI.Valid {
		b.row("Current RSI", Fixed(p.CurrentRSI, 2))
	}
	if n := len(s.Signals); n > 0 {
		last := s.Signals[n-1]
		b.row("Last Signal", fmt.Sprintf("%s @ %s", Text(last.Date), Price(last.Price)))
	}
}

func renderRecommendation(b *block, r *types.Recommendation) {
	b.section("Recommendation")
	b.row("Ticker", Text(r.Ticker))
	b.row("Signal", b.signal(r.Signal))
	b.row("Confidence", Percent(r.Confidence, false))
	if r.RecommendationText != "" {
		b.line("  " + r.RecommendationText)
	}

	ta := r.TechnicalAnalysis
	b.section("Technical Analysis")
	b.row("Current Price", Price(ta.CurrentPrice))
	b.row("RSI", Fixed(ta.RSI, 2))
	b.row("MA20", Price(ta.MA20))
	b.row("MA50", Price(ta.MA50))
	b.row("MA200", Price(ta.MA200))
	b.row("Overall Signal", b.signal(ta.OverallSignal))

	sa := r.SentimentAnalysis
	b.section("Sentiment Analysis")
	if sa.Error != "" {
		b.warn(sa.Error)
	} else {
		b.row("Sentiment", Text(sa.Sentiment))
		b.row("Score", Fixed(sa.SentimentScore, 2))
		b.row("Articles", Count(sa.ArticlesCount))
	}

	b.section("Price Momentum")
	if r.PriceMomentum.Error != "" {
		b.warn(r.PriceMomentum.Error)
	} else {
		b.row("Momentum", Percent(r.PriceMomentum.Momentum, false))
	}

	ea := r.EarningsAnalysis
	b.section("Earnings Analysis")
	if ea.Error != "" {
		b.warn(ea.Error)
	} else {
		b.row("Quarter", Text(ea.Quarter))
		b.row("Summary", Text(ea.Summary))
	}
}

func renderRiskAssessment(b *block, r *types.RiskAssessment) {
	s := r.RiskSummary
	b.section("Risk Summary")
	b.row("Risk Level", b.riskLevel(s.RiskLevel))
	b.row("Risk Score", Fixed(s.RiskScore, 0))
	if len(s.KeyRiskFactors) > 0 {
		b.line("  Key risk factors:")
		for _, f := range s.KeyRiskFactors {
			b.line("    - " + f)
		}
	}
	if len(s.Recommendations) > 0 {
		b.line("  Recommendations:")
		for _, rec := range s.Recommendations {
			b.line("    - " + rec)
		}
	}

	m := r.DetailedMetrics
	b.section("Volatility")
	b.row("Recent", Percent(m.Volatility.RecentVolatility, true))
	b.row("Average", Percent(m.Volatility.AverageVolatility, true))
	b.row("Level", Text(m.Volatility.VolatilityLevel))

	b.section("Maximum Drawdown")
	b.row("Max Drawdown", Percent(m.MaximumDrawdown.MaxDrawdown, true))
	b.row("Current Drawdown", Percent(m.MaximumDrawdown.CurrentDrawdown, true))
	b.row("Risk", Text(m.MaximumDrawdown.DrawdownRisk))

	v := m.ValueAtRisk
	b.section("Value at Risk")
	b.row("Confidence", Percent(v.ConfidenceLevel, true))
	b.row("Horizon (days)", Fixed(v.TimeHorizon, 0))
	b.row("VaR", Percent(v.VarPercentage, false))
	b.row("Dollar VaR", FinancialNumber(v.DollarVar, true))
	b.row("Interpretation", Text(v.Interpretation))

	b.section("Beta")
	b.row("Beta", Fixed(m.Beta.Beta, 2))
	b.row("Interpretation", Text(m.Beta.Interpretation))
}

func renderGeneric(b *block, p *types.GenericPayload) {
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		if k != "status" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.row(k, fmt.Sprint(p.Fields[k]))
	}
}

// block accumulates one rendered result.
type block struct {
	strings.Builder
	noColor bool
}

func (b *block) paint(style lipgloss.Style, s string) string {
	if b.noColor {
		return s
	}
	return style.Render(s)
}

func (b *block) title(s string) {
	b.WriteString(b.paint(titleStyle, "== "+s+" =="))
	b.WriteString("\n")
}

func (b *block) section(s string) {
	b.WriteString(b.paint(sectionStyle, s))
	b.WriteString("\n")
}

func (b *block) row(label, value string) {
	fmt.Fprintf(b, "  %s %s\n", b.paint(labelStyle, fmt.Sprintf("%-18s", label+":")), value)
}

func (b *block) line(s string) {
	b.WriteString(s)
	b.WriteString("\n")
}

func (b *block) alert(msg string) {
	b.line(b.paint(alertStyle, "✗ Error: "+msg))
}

func (b *block) warn(msg string) {
	b.line(b.paint(warnStyle, "  ! "+msg))
}

func (b *block) end() {
	b.WriteString("\n")
}

func (b *block) change(n types.Number) string {
	s := SignedPercent(n)
	switch {
	case !n.Valid:
		return s
	case n.Value >= 0:
		return b.paint(upStyle, s)
	}
	return b.paint(downStyle, s)
}

func (b *block) signal(s string) string {
	text := Text(s)
	switch strings.ToLower(s) {
	case "buy", "bullish", "strong buy":
		return b.paint(upStyle, text)
	case "sell", "bearish", "strong sell":
		return b.paint(downStyle, text)
	}
	return text
}

func (b *block) riskLevel(s string) string {
	text := Text(s)
	switch strings.ToLower(s) {
	case "low":
		return b.paint(upStyle, text)
	case "high", "very high":
		return b.paint(downStyle, text)
	case "moderate", "medium":
		return b.paint(warnStyle, text)
	}
	return text
}
