package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Unavailable is rendered in place of any payload field the backend did not send.
const Unavailable = "N/A"

// OrUnavailable returns s, or Unavailable when s is blank.
func OrUnavailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unavailable
	}
	return s
}

// Number is a numeric payload field that may be missing. The backend sends
// numbers, numeric strings, null or "N/A"; anything that is not a number
// decodes to an invalid Number instead of failing.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Num(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Num(parsed)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// MarshalYAML renders an unavailable Number as null.
func (n Number) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Value, nil
}

// Format renders the value with prec decimals, or Unavailable.
func (n Number) Format(prec int) string {
	if !n.Valid {
		return Unavailable
	}
	return strconv.FormatFloat(n.Value, 'f', prec, 64)
}

// Payload is the agent-specific part of an AgentResult. The concrete type is
// determined by the agent that produced it.
type Payload interface {
	PayloadAgent() AgentID
}

// AgentResult is one agent's entry in a run_agent response.
type AgentResult struct {
	Agent   AgentID
	Status  string // "completed", "processing" or "error" as reported
	Message string
	Error   string

	// Payload is nil when the agent sent no recognizable body.
	Payload Payload

	// Fields keeps the undecoded object for output and debugging.
	Fields map[string]any
}

// ReportedStatus maps the payload status onto an AgentStatus. Anything other
// than an explicit error counts as completed.
func (r *AgentResult) ReportedStatus() AgentStatus {
	if r == nil {
		return AgentStatusCompleted
	}
	if r.Status == string(AgentStatusError) {
		return AgentStatusError
	}
	return AgentStatusCompleted
}

// ErrorMessage returns the most specific failure text carried by the result.
func (r *AgentResult) ErrorMessage() string {
	if r == nil {
		return ""
	}
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return r.Error
	}
	if da, ok := r.Payload.(*DataAnalysis); ok && da.Error != "" {
		return da.Error
	}
	return ""
}

// HasFailure returns true when the result should be shown as an error.
func (r *AgentResult) HasFailure() bool {
	if r == nil {
		return false
	}
	return r.Status == string(AgentStatusError) || r.ErrorMessage() != ""
}

// MarshalJSON writes the original object back out.
func (r *AgentResult) MarshalJSON() ([]byte, error) {
	if r.Fields != nil {
		return json.Marshal(r.Fields)
	}
	return json.Marshal(struct {
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
		Error   string `json:"error,omitempty"`
	}{r.Status, r.Message, r.Error})
}

// MarshalYAML writes the original object for --output yaml.
func (r *AgentResult) MarshalYAML() (any, error) {
	if r.Fields != nil {
		return r.Fields, nil
	}
	out := map[string]string{}
	for k, v := range map[string]string{"status": r.Status, "message": r.Message, "error": r.Error} {
		if v != "" {
			out[k] = v
		}
	}
	return out, nil
}

type resultHeader struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// DecodeAgentResult decodes one agent entry. It never fails: fields that do not
// fit the agent's payload shape are left unavailable. encoding/json keeps
// decoding past a type mismatch, so the remaining fields still arrive.
func DecodeAgentResult(id AgentID, data []byte) *AgentResult {
	res := &AgentResult{Agent: id}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return res
	}
	res.Fields = fields

	var header resultHeader
	_ = json.Unmarshal(data, &header)
	res.Status = header.Status
	res.Message = header.Message
	res.Error = header.Error

	res.Payload = decodePayload(id, data)
	return res
}

func decodePayload(id AgentID, data []byte) Payload {
	switch id {
	case AgentDataAnalyst:
		var body struct {
			Data *DataAnalysis `json:"data"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Data == nil {
			return nil
		}
		return body.Data
	case AgentTradeStrategy:
		var body struct {
			Data     *StrategyReport `json:"data"`
			MAError  string          `json:"ma_error"`
			RSIError string          `json:"rsi_error"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Data == nil {
			if body.MAError == "" && body.RSIError == "" {
				return nil
			}
			body.Data = &StrategyReport{}
		}
		body.Data.MAError = body.MAError
		body.Data.RSIError = body.RSIError
		return body.Data
	case AgentTradeAdvisor:
		var body struct {
			Recommendation *Recommendation `json:"recommendation"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Recommendation == nil {
			return nil
		}
		return body.Recommendation
	case AgentRiskAdvisor:
		var body struct {
			Assessment *RiskAssessment `json:"risk_assessment"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Assessment == nil {
			return nil
		}
		return body.Assessment
	}

	var fields map[string]any
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	return &GenericPayload{Agent: id, Fields: fields}
}

// GenericPayload holds the body of an agent with no known shape.
type GenericPayload struct {
	Agent  AgentID
	Fields map[string]any
}

func (p *GenericPayload) PayloadAgent() AgentID { return p.Agent }

// --- data_analyst ---

// CompanyInfo identifies the analysed company.
type CompanyInfo struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// Overview is the market snapshot section of the data analysis.
type Overview struct {
	Ticker       string `json:"ticker"`
	CompanyName  string `json:"company_name"`
	Sector       string `json:"sector"`
	Industry     string `json:"industry"`
	CurrentPrice Number `json:"current_price"`
	PriceChange  Number `json:"price_change"`
	MarketCap    Number `json:"market_cap"`
	Volume       Number `json:"volume"`
	PERatio      Number `json:"pe_ratio"`
}

// FinancialRatios is the ratio section of the data analysis.
type FinancialRatios struct {
	PERatio        Number `json:"pe_ratio"`
	EPS            Number `json:"eps"`
	PriceToBook    Number `json:"price_to_book"`
	DividendYield  Number `json:"dividend_yield"`
	ProfitMargin   Number `json:"profit_margin"`
	ReturnOnEquity Number `json:"return_on_equity"`
	ReturnOnAssets Number `json:"return_on_assets"`
	DebtToEquity   Number `json:"debt_to_equity"`
	CurrentRatio   Number `json:"current_ratio"`
}

// NewsArticle is one scored news item.
type NewsArticle struct {
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	Source         string `json:"source"`
	URL            string `json:"url"`
	SentimentScore Number `json:"sentiment_score"`
}

// NewsSentiment aggregates article sentiment for the ticker.
type NewsSentiment struct {
	SentimentScore Number        `json:"sentiment_score"`
	News           []NewsArticle `json:"news"`
}

// DataAnalysis is the data_analyst payload.
type DataAnalysis struct {
	CompanyInfo     CompanyInfo     `json:"company_info"`
	Overview        Overview        `json:"overview"`
	FinancialRatios FinancialRatios `json:"financial_ratios"`
	NewsSentiment   NewsSentiment   `json:"news_sentiment"`
	Error           string          `json:"error"`
}

func (*DataAnalysis) PayloadAgent() AgentID { return AgentDataAnalyst }

// --- trade_strategy ---

// StrategyPerformance summarises a backtested strategy.
type StrategyPerformance struct {
	WinRate          Number `json:"win_rate"`
	TotalTrades      Number `json:"total_trades"`
	CumulativeReturn Number `json:"cumulative_return"`
	SharpeRatio      Number `json:"sharpe_ratio"`
	CurrentRSI       Number `json:"current_rsi"`
	CurrentSignal    string `json:"current_signal"`
}

// StrategySignal is one dated point of a strategy series.
type StrategySignal struct {
	Date    string `json:"date"`
	Price   Number `json:"price"`
	ShortMA Number `json:"short_ma"`
	LongMA  Number `json:"long_ma"`
	RSI     Number `json:"rsi"`
	Signal  Number `json:"signal"`
}

// Strategy is one strategy's result.
type Strategy struct {
	Performance StrategyPerformance `json:"performance"`
	Signals     []StrategySignal    `json:"signals"`
	Error       string              `json:"error"`
}

// StrategyReport is the trade_strategy payload.
type StrategyReport struct {
	MovingAverage *Strategy `json:"ma_strategy"`
	RSI           *Strategy `json:"rsi_strategy"`
	MAError       string    `json:"-"`
	RSIError      string    `json:"-"`
}

func (*StrategyReport) PayloadAgent() AgentID { return AgentTradeStrategy }

// --- trade_advisor ---

// TechnicalAnalysis is the indicator section of a recommendation.
type TechnicalAnalysis struct {
	CurrentPrice  Number `json:"current_price"`
	RSI           Number `json:"RSI"`
	MA20          Number `json:"MA20"`
	MA50          Number `json:"MA50"`
	MA200         Number `json:"MA200"`
	OverallSignal string `json:"overall_signal"`
}

// SentimentAnalysis is the news sentiment section of a recommendation.
type SentimentAnalysis struct {
	Sentiment      string `json:"sentiment"`
	SentimentScore Number `json:"sentiment_score"`
	ArticlesCount  Number `json:"articles_count"`
	Error          string `json:"error"`
}

// PriceMomentum is the momentum section of a recommendation.
type PriceMomentum struct {
	Momentum Number `json:"momentum"`
	Error    string `json:"error"`
}

// EarningsAnalysis is the earnings section of a recommendation.
type EarningsAnalysis struct {
	Quarter string `json:"quarter"`
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

// Recommendation is the trade_advisor payload.
type Recommendation struct {
	Ticker             string            `json:"ticker"`
	Signal             string            `json:"signal"`
	Confidence         Number            `json:"confidence"`
	TechnicalAnalysis  TechnicalAnalysis `json:"technical_analysis"`
	SentimentAnalysis  SentimentAnalysis `json:"sentiment_analysis"`
	PriceMomentum      PriceMomentum     `json:"price_momentum"`
	EarningsAnalysis   EarningsAnalysis  `json:"earnings_analysis"`
	RecommendationText string            `json:"recommendation_text"`
	Error              string            `json:"error"`
}

func (*Recommendation) PayloadAgent() AgentID { return AgentTradeAdvisor }

// --- risk_advisor ---

// RiskSummary is the headline of a risk assessment.
type RiskSummary struct {
	RiskLevel       string   `json:"risk_level"`
	RiskScore       Number   `json:"risk_score"`
	KeyRiskFactors  []string `json:"key_risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// VolatilityMetrics describes recent price volatility.
type VolatilityMetrics struct {
	RecentVolatility  Number `json:"recent_volatility"`
	AverageVolatility Number `json:"average_volatility"`
	VolatilityLevel   string `json:"volatility_level"`
}

// DrawdownMetrics describes peak-to-trough losses.
type DrawdownMetrics struct {
	MaxDrawdown     Number `json:"max_drawdown"`
	CurrentDrawdown Number `json:"current_drawdown"`
	DrawdownRisk    string `json:"drawdown_risk"`
}

// ValueAtRisk is the historical VaR estimate.
type ValueAtRisk struct {
	ConfidenceLevel Number `json:"confidence_level"`
	TimeHorizon     Number `json:"time_horizon"`
	VarPercentage   Number `json:"var_percentage"`
	DollarVar       Number `json:"dollar_var"`
	Interpretation  string `json:"interpretation"`
}

// BetaMetrics relates the ticker's moves to the market.
type BetaMetrics struct {
	Beta           Number `json:"beta"`
	Interpretation string `json:"interpretation"`
}

// RiskMetrics groups the detailed risk measurements.
type RiskMetrics struct {
	Volatility      VolatilityMetrics `json:"volatility"`
	MaximumDrawdown DrawdownMetrics   `json:"maximum_drawdown"`
	ValueAtRisk     ValueAtRisk       `json:"value_at_risk"`
	Beta            BetaMetrics       `json:"beta"`
}

// RiskAssessment is the risk_advisor payload.
type RiskAssessment struct {
	Ticker          string      `json:"ticker"`
	RiskSummary     RiskSummary `json:"risk_summary"`
	DetailedMetrics RiskMetrics `json:"detailed_metrics"`
	Error           string      `json:"error"`
}

func (*RiskAssessment) PayloadAgent() AgentID { return AgentRiskAdvisor }
