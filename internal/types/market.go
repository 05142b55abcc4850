package types

// AnalysisRequest opens a backend analysis session for one ticker.
type AnalysisRequest struct {
	Ticker    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Quarter   string // e.g. 2023Q1
}

// PricePoint is one close in a stock's recent history.
type PricePoint struct {
	Date  string `json:"date" yaml:"date"`
	Close Number `json:"close" yaml:"close"`
}

// StockSummary is a dashboard row as served by /get_stock_data and /api/top_stocks.
type StockSummary struct {
	Ticker        string       `json:"ticker" yaml:"ticker"`
	CompanyName   string       `json:"company_name" yaml:"company_name"`
	Sector        string       `json:"sector" yaml:"sector"`
	Industry      string       `json:"industry,omitempty" yaml:"industry,omitempty"`
	Close         Number       `json:"close" yaml:"close"`
	PreviousClose Number       `json:"previous_close" yaml:"previous_close"`
	PercentChange Number       `json:"percent_change" yaml:"percent_change"`
	Volume        Number       `json:"volume" yaml:"volume"`
	AvgVolume     Number       `json:"avg_volume" yaml:"avg_volume"`
	MarketCap     Number       `json:"market_cap" yaml:"market_cap"`
	PERatio       Number       `json:"pe_ratio" yaml:"pe_ratio"`
	EPS           Number       `json:"eps" yaml:"eps"`
	DividendYield Number       `json:"dividend_yield" yaml:"dividend_yield"`
	Beta          Number       `json:"beta" yaml:"beta"`
	MA50          Number       `json:"50day_ma" yaml:"50day_ma"`
	MA200         Number       `json:"200day_ma" yaml:"200day_ma"`
	WeekRange52   string       `json:"52_week_range,omitempty" yaml:"52_week_range,omitempty"`
	RecentPrices  []PricePoint `json:"recent_prices,omitempty" yaml:"recent_prices,omitempty"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// IndicatorRequest selects a technical indicator series.
type IndicatorRequest struct {
	Symbol     string
	Function   string // e.g. RSI, SMA, MACD
	Interval   string // daily, weekly, monthly, 60min, ...
	TimePeriod int
	SeriesType string // close, open, high, low
	Days       int
}

// IndicatorSeries maps a timestamp to the indicator values at that time.
type IndicatorSeries map[string]map[string]Number
