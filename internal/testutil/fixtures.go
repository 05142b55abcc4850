package testutil

import (
	"encoding/json"
	"testing"

	"github.com/fin-foresight/foresight/internal/types"
)

// Step builds a successful /run_agent body: agent's payload under results,
// with next as current_agent.
func Step(agent types.AgentID, payload map[string]any, next types.NextAgent) map[string]any {
	return map[string]any{
		"status": "success",
		"results": map[string]any{
			string(agent):   payload,
			"current_agent": string(next),
		},
	}
}

// Failure builds an error /run_agent body carrying a partial payload.
func Failure(agent types.AgentID, message string, payload map[string]any) map[string]any {
	body := map[string]any{"status": "error", "message": message}
	if payload != nil {
		body["results"] = map[string]any{string(agent): payload}
	}
	return body
}

// DataAnalystPayload returns a completed data_analyst payload for ticker.
func DataAnalystPayload(ticker string) map[string]any {
	return map[string]any{
		"status": "completed",
		"data": map[string]any{
			"company_info": map[string]any{
				"ticker":   ticker,
				"name":     ticker + " Corp",
				"sector":   "Technology",
				"industry": "Consumer Electronics",
			},
			"overview": map[string]any{
				"current_price": 189.84,
				"price_change":  1.2,
				"market_cap":    2.9e12,
				"volume":        51234000,
				"pe_ratio":      29.4,
			},
			"financial_ratios": map[string]any{
				"eps":            6.42,
				"dividend_yield": 0.0051,
				"profit_margin":  "N/A",
			},
			"news_sentiment": map[string]any{
				"sentiment_score": 0.31,
				"news": []any{
					map[string]any{"title": ticker + " beats estimates", "source": "Wire", "sentiment_score": 0.6},
				},
			},
		},
	}
}

// DataAnalystError returns the payload the backend sends when data fetching fails.
func DataAnalystError(ticker, message string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": message,
		"data": map[string]any{
			"company_info": map[string]any{"ticker": ticker, "name": "N/A", "sector": "N/A", "industry": "N/A"},
			"error":        message,
		},
	}
}

// TradeStrategyPayload returns a completed trade_strategy payload.
func TradeStrategyPayload() map[string]any {
	return map[string]any{
		"status": "completed",
		"data": map[string]any{
			"ma_strategy": map[string]any{
				"performance": map[string]any{
					"win_rate": 0.58, "total_trades": 14, "cumulative_return": 0.123,
					"sharpe_ratio": 1.1, "current_signal": "BUY",
				},
			},
			"rsi_strategy": map[string]any{
				"performance": map[string]any{"win_rate": 0.5, "current_rsi": 61.7, "current_signal": "HOLD"},
			},
		},
	}
}

// TradeAdvisorPayload returns a completed trade_advisor payload.
func TradeAdvisorPayload(ticker string) map[string]any {
	return map[string]any{
		"status": "completed",
		"recommendation": map[string]any{
			"ticker":     ticker,
			"signal":     "bullish",
			"confidence": 72.5,
			"technical_analysis": map[string]any{
				"current_price": 189.84, "RSI": 61.7, "MA20": 185.2, "MA50": 180.1, "MA200": nil,
				"overall_signal": "bullish",
			},
			"sentiment_analysis":  map[string]any{"sentiment": "positive", "sentiment_score": 0.31, "articles_count": 12},
			"price_momentum":      map[string]any{"momentum": 3.4},
			"earnings_analysis":   map[string]any{"quarter": "2023Q1", "summary": "Revenue up 8%"},
			"recommendation_text": "Accumulate on dips.",
		},
	}
}

// RiskAdvisorPayload returns a completed risk_advisor payload.
func RiskAdvisorPayload(ticker string) map[string]any {
	return map[string]any{
		"status": "completed",
		"risk_assessment": map[string]any{
			"ticker": ticker,
			"risk_summary": map[string]any{
				"risk_level":       "Moderate",
				"risk_score":       48,
				"key_risk_factors": []any{"Elevated valuation"},
				"recommendations":  []any{"Size positions conservatively"},
			},
			"detailed_metrics": map[string]any{
				"volatility":       map[string]any{"recent_volatility": 0.24, "volatility_level": "Moderate"},
				"maximum_drawdown": map[string]any{"max_drawdown": -0.18, "drawdown_risk": "Moderate"},
				"value_at_risk":    map[string]any{"confidence_level": 0.95, "var_percentage": 2.1, "interpretation": "1-day VaR"},
				"beta":             map[string]any{"beta": 1.21, "interpretation": "More volatile than the market"},
			},
		},
	}
}

// HappyPath queues a full successful pipeline for ticker on f.
func HappyPath(f *FakeBackend, ticker string) {
	f.On(types.AgentDataAnalyst, Reply{Body: Step(types.AgentDataAnalyst, DataAnalystPayload(ticker), "trade_strategy")})
	f.On(types.AgentTradeStrategy, Reply{Body: Step(types.AgentTradeStrategy, TradeStrategyPayload(), "trade_advisor")})
	f.On(types.AgentTradeAdvisor, Reply{Body: Step(types.AgentTradeAdvisor, TradeAdvisorPayload(ticker), "risk_advisor")})
	f.On(types.AgentRiskAdvisor, Reply{Body: Step(types.AgentRiskAdvisor, RiskAdvisorPayload(ticker), types.NextCompleted)})
}

// DecodeResult decodes a fixture payload the way the backend client does.
func DecodeResult(t *testing.T, agent types.AgentID, payload map[string]any) *types.AgentResult {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return types.DecodeAgentResult(agent, data)
}
