package types

import (
	"encoding/json"
	"testing"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
		wantValue float64
	}{
		{`12.5`, true, 12.5},
		{`"42"`, true, 42},
		{`" 3.25 "`, true, 3.25},
		{`null`, false, 0},
		{`"N/A"`, false, 0},
		{`{"beta": 1}`, false, 0},
		{`true`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.in, err)
			}
			if n.Valid != tt.wantValid || n.Value != tt.wantValue {
				t.Errorf("Unmarshal(%s) = %+v, want valid=%v value=%v", tt.in, n, tt.wantValid, tt.wantValue)
			}
		})
	}
}

func TestNumber_NullFieldIsUnavailable(t *testing.T) {
	var v struct {
		MA50  Number `json:"ma50"`
		MA200 Number `json:"ma200"`
	}
	v.MA200 = Num(7)
	if err := json.Unmarshal([]byte(`{"ma50": 101.5, "ma200": null}`), &v); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if v.MA200.Valid {
		t.Errorf("MA200 = %+v, want invalid", v.MA200)
	}
	if got := v.MA200.Format(2); got != Unavailable {
		t.Errorf("MA200.Format(2) = %q, want %s", got, Unavailable)
	}
	if got := v.MA50.Format(2); got != "101.50" {
		t.Errorf("MA50.Format(2) = %q, want 101.50", got)
	}
}

func TestNumber_Format(t *testing.T) {
	if got := Num(1.23456).Format(2); got != "1.23" {
		t.Errorf("Format(2) = %q, want 1.23", got)
	}
	if got := (Number{}).Format(2); got != Unavailable {
		t.Errorf("Format of invalid = %q, want %s", got, Unavailable)
	}
}

func TestOrUnavailable(t *testing.T) {
	if got := OrUnavailable("  "); got != Unavailable {
		t.Errorf("OrUnavailable(blank) = %q", got)
	}
	if got := OrUnavailable("Technology"); got != "Technology" {
		t.Errorf("OrUnavailable = %q", got)
	}
}

func TestDecodeAgentResult(t *testing.T) {
	t.Run("data analyst error keeps partial company info", func(t *testing.T) {
		body := `{"status":"error","message":"Failed to fetch stock data","data":{"company_info":{"ticker":"ZZZZ","name":"N/A"},"error":"Failed to fetch stock data"}}`
		res := DecodeAgentResult(AgentDataAnalyst, []byte(body))

		if res.ReportedStatus() != AgentStatusError {
			t.Errorf("ReportedStatus = %s, want error", res.ReportedStatus())
		}
		if !res.HasFailure() {
			t.Error("HasFailure = false, want true")
		}
		if res.ErrorMessage() != "Failed to fetch stock data" {
			t.Errorf("ErrorMessage = %q", res.ErrorMessage())
		}
		analysis, ok := res.Payload.(*DataAnalysis)
		if !ok {
			t.Fatalf("Payload = %T, want *DataAnalysis", res.Payload)
		}
		if analysis.CompanyInfo.Ticker != "ZZZZ" {
			t.Errorf("Ticker = %q", analysis.CompanyInfo.Ticker)
		}
	})

	t.Run("trade strategy errors are lifted into the report", func(t *testing.T) {
		body := `{"status":"error","error":"Strategy calculation failed","ma_error":"no data","rsi_error":null}`
		res := DecodeAgentResult(AgentTradeStrategy, []byte(body))

		report, ok := res.Payload.(*StrategyReport)
		if !ok {
			t.Fatalf("Payload = %T, want *StrategyReport", res.Payload)
		}
		if report.MAError != "no data" {
			t.Errorf("MAError = %q", report.MAError)
		}
		if report.MovingAverage != nil {
			t.Error("MovingAverage should be nil")
		}
		if res.ErrorMessage() != "Strategy calculation failed" {
			t.Errorf("ErrorMessage = %q", res.ErrorMessage())
		}
	})

	t.Run("trade strategy performance", func(t *testing.T) {
		body := `{"status":"completed","data":{"ma_strategy":{"performance":{"win_rate":0.55,"total_trades":12,"current_signal":"BUY"}},"rsi_strategy":{"performance":{"current_rsi":"61.2"}}}}`
		res := DecodeAgentResult(AgentTradeStrategy, []byte(body))

		report := res.Payload.(*StrategyReport)
		if got := report.MovingAverage.Performance.WinRate; !got.Valid || got.Value != 0.55 {
			t.Errorf("WinRate = %+v", got)
		}
		if got := report.RSI.Performance.CurrentRSI.Format(1); got != "61.2" {
			t.Errorf("CurrentRSI = %s", got)
		}
		if res.HasFailure() {
			t.Error("HasFailure = true, want false")
		}
	})

	t.Run("mismatched field type does not drop the payload", func(t *testing.T) {
		body := `{"status":"completed","risk_assessment":{"ticker":"TSLA","detailed_metrics":{"beta":1.8},"risk_summary":{"risk_level":"High","risk_score":82}}}`
		res := DecodeAgentResult(AgentRiskAdvisor, []byte(body))

		assessment, ok := res.Payload.(*RiskAssessment)
		if !ok {
			t.Fatalf("Payload = %T, want *RiskAssessment", res.Payload)
		}
		if assessment.RiskSummary.RiskLevel != "High" {
			t.Errorf("RiskLevel = %q", assessment.RiskSummary.RiskLevel)
		}
		if assessment.DetailedMetrics.Beta.Beta.Valid {
			t.Error("Beta should be unavailable")
		}
	})

	t.Run("trade advisor", func(t *testing.T) {
		body := `{"status":"completed","recommendation":{"ticker":"NVDA","signal":"bullish","confidence":71.3,"technical_analysis":{"RSI":64.1,"MA20":null}}}`
		res := DecodeAgentResult(AgentTradeAdvisor, []byte(body))

		rec := res.Payload.(*Recommendation)
		if rec.Signal != "bullish" {
			t.Errorf("Signal = %q", rec.Signal)
		}
		if rec.TechnicalAnalysis.MA20.Valid {
			t.Error("MA20 should be unavailable")
		}
		if rec.TechnicalAnalysis.RSI.Format(1) != "64.1" {
			t.Errorf("RSI = %s", rec.TechnicalAnalysis.RSI.Format(1))
		}
	})

	t.Run("unknown agent keeps generic fields", func(t *testing.T) {
		res := DecodeAgentResult("sentiment", []byte(`{"status":"completed","score":0.4}`))
		generic, ok := res.Payload.(*GenericPayload)
		if !ok {
			t.Fatalf("Payload = %T, want *GenericPayload", res.Payload)
		}
		if generic.Fields["score"] != 0.4 {
			t.Errorf("score = %v", generic.Fields["score"])
		}
	})

	t.Run("non-object body", func(t *testing.T) {
		res := DecodeAgentResult(AgentRiskAdvisor, []byte(`"oops"`))
		if res.Payload != nil || res.Fields != nil {
			t.Errorf("expected empty result, got %+v", res)
		}
		if res.ReportedStatus() != AgentStatusCompleted {
			t.Errorf("ReportedStatus = %s", res.ReportedStatus())
		}
	})
}

func TestAgentResult_NilSafe(t *testing.T) {
	var res *AgentResult
	if res.HasFailure() {
		t.Error("nil HasFailure should be false")
	}
	if res.ErrorMessage() != "" {
		t.Error("nil ErrorMessage should be empty")
	}
	if res.ReportedStatus() != AgentStatusCompleted {
		t.Error("nil ReportedStatus should be completed")
	}
}
