// Package present renders agent results and dashboard data for the terminal.
// Every renderer treats missing fields as unavailable and prints "N/A"
// instead of failing.
package present

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fin-foresight/foresight/internal/types"
)

// FinancialNumber renders n with a B, M or K suffix, optionally as currency.
func FinancialNumber(n types.Number, currency bool) string {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return types.Unavailable
	}

	abs := math.Abs(n.Value)
	prefix := ""
	if n.Value < 0 {
		prefix = "-"
	}
	symbol := ""
	if currency {
		symbol = "$"
	}

	switch {
	case abs > 0 && abs < 1:
		return fmt.Sprintf("%s%s%.2f", prefix, symbol, abs)
	case abs >= 1e9:
		return fmt.Sprintf("%s%s%.2fB", prefix, symbol, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%s%.2fM", prefix, symbol, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%s%.1fK", prefix, symbol, abs/1e3)
	}
	return fmt.Sprintf("%s%s%.2f", prefix, symbol, abs)
}

// MarketCap renders a market capitalization in trillions or billions.
func MarketCap(n types.Number) string {
	if !n.Valid || n.Value == 0 {
		return types.Unavailable
	}
	switch {
	case n.Value >= 1e12:
		return fmt.Sprintf("$%.2fT", n.Value/1e12)
	case n.Value >= 1e9:
		return fmt.Sprintf("$%.2fB", n.Value/1e9)
	}
	return "$" + groupThousands(n.Value)
}

// Price renders a dollar amount with two decimals.
func Price(n types.Number) string {
	if !n.Valid {
		return types.Unavailable
	}
	return fmt.Sprintf("$%.2f", n.Value)
}

// Percent renders n as a percentage. Ratios (|n| <= 1) are scaled when
// ratio is true.
func Percent(n types.Number, ratio bool) string {
	if !n.Valid {
		return types.Unavailable
	}
	v := n.Value
	if ratio {
		v *= 100
	}
	return fmt.Sprintf("%.2f%%", v)
}

// SignedPercent renders a change with an explicit sign.
func SignedPercent(n types.Number) string {
	if !n.Valid {
		return types.Unavailable
	}
	return fmt.Sprintf("%+.2f%%", n.Value)
}

// Fixed renders n with prec decimals.
func Fixed(n types.Number, prec int) string {
	return n.Format(prec)
}

// Count renders an integral value with thousands separators.
func Count(n types.Number) string {
	if !n.Valid {
		return types.Unavailable
	}
	return groupThousands(n.Value)
}

func groupThousands(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Text returns s or "N/A".
func Text(s string) string {
	return types.OrUnavailable(s)
}
