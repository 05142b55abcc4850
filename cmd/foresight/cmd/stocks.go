package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fin-foresight/foresight/internal/present"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

var stocksCmd = &cobra.Command{
	Use:   "stocks [ticker...]",
	Short: "Show the market dashboard",
	Long: `Fetch the stock grid and the featured stock list from the backend.

Without arguments the tickers come from dashboard.tickers in the config.
Both requests run concurrently.`,
	RunE: runStocks,
}

var (
	stocksOutput  string
	stocksNoColor bool
	stocksNoTop   bool
)

func init() {
	stocksCmd.Flags().StringVarP(&stocksOutput, "output", "o", "text", "output format: text, json, yaml")
	stocksCmd.Flags().BoolVar(&stocksNoColor, "no-color", false, "disable colored output")
	stocksCmd.Flags().BoolVar(&stocksNoTop, "no-top", false, "skip the featured stock list")
	rootCmd.AddCommand(stocksCmd)
}

type stocksReport struct {
	Stocks    map[string]types.StockSummary `json:"stocks" yaml:"stocks"`
	TopStocks []types.StockSummary          `json:"top_stocks,omitempty" yaml:"top_stocks,omitempty"`
}

func runStocks(cmd *cobra.Command, args []string) error {
	if err := checkFormat(stocksOutput); err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	tickers := make([]string, 0, len(args))
	for _, a := range args {
		if t := strings.ToUpper(strings.TrimSpace(a)); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		tickers = e.cfg.Dashboard.Tickers
	}

	client := e.client()
	var report stocksReport

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		stocks, err := client.StockData(ctx, tickers)
		if err != nil {
			return fmt.Errorf("fetching stock data: %w", err)
		}
		report.Stocks = stocks
		return nil
	})
	if !stocksNoTop {
		g.Go(func() error {
			top, err := client.TopStocks(ctx)
			if err != nil {
				return fmt.Errorf("fetching top stocks: %w", err)
			}
			report.TopStocks = top
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if stocksOutput != "text" {
		return status.Encode(out, stocksOutput, report)
	}

	d := present.NewDashboard(out, present.Options{NoColor: stocksNoColor})
	d.Stocks(report.Stocks)
	if !stocksNoTop {
		fmt.Fprintln(out)
		d.TopStocks(report.TopStocks)
	}
	return nil
}
