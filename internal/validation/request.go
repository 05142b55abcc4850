// Package validation checks analysis and indicator requests before they are
// sent to the backend.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/types"
)

// DateLayout is the backend's date format.
const DateLayout = "2006-01-02"

var (
	tickerPattern  = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)
	quarterPattern = regexp.MustCompile(`^\d{4}Q[1-4]$`)
)

// Intervals accepted by /technical_indicators.
var Intervals = []string{"1min", "5min", "15min", "30min", "60min", "daily", "weekly", "monthly"}

// SeriesTypes accepted by /technical_indicators.
var SeriesTypes = []string{"close", "open", "high", "low"}

// RequestValidationError contains details about validation failures.
type RequestValidationError struct {
	Request string
	Missing []string          // Names of missing required fields
	Invalid map[string]string // Name -> error message for invalid fields
}

func (e *RequestValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid %s request\n", e.Request))

	if len(e.Missing) > 0 {
		sb.WriteString("\nMissing required fields:\n")
		for _, name := range e.Missing {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	if len(e.Invalid) > 0 {
		sb.WriteString("\nInvalid fields:\n")
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", name, e.Invalid[name]))
		}
	}

	return sb.String()
}

// Unwrap exposes the failure as a coded request error.
func (e *RequestValidationError) Unwrap() error {
	field := e.Request
	switch {
	case len(e.Missing) > 0:
		field = e.Missing[0]
	case len(e.Invalid) > 0:
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		field = names[0]
	}
	return ferrors.RequestInvalid(field, "failed validation")
}

func (e *RequestValidationError) failed() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

// Analysis checks an analysis request. Blank optional fields are left for
// the backend to default.
func Analysis(req types.AnalysisRequest) error {
	valErr := &RequestValidationError{Request: "analysis", Invalid: map[string]string{}}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	switch {
	case ticker == "":
		valErr.Missing = append(valErr.Missing, "ticker")
	case !tickerPattern.MatchString(ticker):
		valErr.Invalid["ticker"] = fmt.Sprintf("invalid ticker symbol: %s", req.Ticker)
	}

	start, startOK := parseDate(valErr, "start_date", req.StartDate)
	end, endOK := parseDate(valErr, "end_date", req.EndDate)
	if startOK && endOK && start.After(end) {
		valErr.Invalid["start_date"] = fmt.Sprintf("%s is after end_date %s", req.StartDate, req.EndDate)
	}

	if q := strings.TrimSpace(req.Quarter); q != "" && !quarterPattern.MatchString(strings.ToUpper(q)) {
		valErr.Invalid["quarter"] = fmt.Sprintf("invalid quarter: %s (expected YYYYQn)", q)
	}

	if valErr.failed() {
		return valErr
	}
	return nil
}

// Indicator checks a technical indicator request.
func Indicator(req types.IndicatorRequest) error {
	valErr := &RequestValidationError{Request: "indicator", Invalid: map[string]string{}}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	switch {
	case symbol == "":
		valErr.Missing = append(valErr.Missing, "symbol")
	case !tickerPattern.MatchString(symbol):
		valErr.Invalid["symbol"] = fmt.Sprintf("invalid ticker symbol: %s", req.Symbol)
	}
	if strings.TrimSpace(req.Function) == "" {
		valErr.Missing = append(valErr.Missing, "function")
	}
	if req.Interval != "" && !contains(Intervals, req.Interval) {
		valErr.Invalid["interval"] = fmt.Sprintf("unsupported interval %q (expected one of %s)", req.Interval, strings.Join(Intervals, ", "))
	}
	if req.SeriesType != "" && !contains(SeriesTypes, req.SeriesType) {
		valErr.Invalid["series_type"] = fmt.Sprintf("unsupported series type %q (expected one of %s)", req.SeriesType, strings.Join(SeriesTypes, ", "))
	}
	if req.TimePeriod < 0 {
		valErr.Invalid["time_period"] = "must not be negative"
	}
	if req.Days < 0 {
		valErr.Invalid["days"] = "must not be negative"
	}

	if valErr.failed() {
		return valErr
	}
	return nil
}

func parseDate(valErr *RequestValidationError, name, value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		valErr.Invalid[name] = fmt.Sprintf("invalid date: %s (expected YYYY-MM-DD)", value)
		return time.Time{}, false
	}
	return t, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
