package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fin-foresight/foresight/internal/present"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
	"github.com/fin-foresight/foresight/internal/validation"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators <symbol>",
	Short: "Show a technical indicator series",
	Long: `Fetch one technical indicator series (RSI, SMA, EMA, MACD, ...) for a
symbol and print the most recent values, newest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicators,
}

var (
	indFunction   string
	indInterval   string
	indTimePeriod int
	indSeriesType string
	indDays       int
	indOutput     string
	indNoColor    bool
)

func init() {
	indicatorsCmd.Flags().StringVarP(&indFunction, "function", "f", "RSI", "indicator function")
	indicatorsCmd.Flags().StringVar(&indInterval, "interval", "daily", "interval: 1min, 5min, 15min, 30min, 60min, daily, weekly, monthly")
	indicatorsCmd.Flags().IntVar(&indTimePeriod, "time-period", 14, "number of data points per value")
	indicatorsCmd.Flags().StringVar(&indSeriesType, "series-type", "close", "price series: close, open, high, low")
	indicatorsCmd.Flags().IntVar(&indDays, "days", 30, "number of most recent entries to show")
	indicatorsCmd.Flags().StringVarP(&indOutput, "output", "o", "text", "output format: text, json, yaml")
	indicatorsCmd.Flags().BoolVar(&indNoColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(indicatorsCmd)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	if err := checkFormat(indOutput); err != nil {
		return err
	}

	req := types.IndicatorRequest{
		Symbol:     strings.ToUpper(strings.TrimSpace(args[0])),
		Function:   strings.ToUpper(strings.TrimSpace(indFunction)),
		Interval:   indInterval,
		TimePeriod: indTimePeriod,
		SeriesType: indSeriesType,
		Days:       indDays,
	}
	if err := validation.Indicator(req); err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	series, err := e.client().TechnicalIndicators(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("fetching %s for %s: %w", req.Function, req.Symbol, err)
	}

	out := cmd.OutOrStdout()
	if indOutput != "text" {
		return status.Encode(out, indOutput, series)
	}
	present.NewDashboard(out, present.Options{NoColor: indNoColor}).
		Indicators(fmt.Sprintf("%s %s (%s)", req.Symbol, req.Function, req.Interval), series, req.Days)
	return nil
}
