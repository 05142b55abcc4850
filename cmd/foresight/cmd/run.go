package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fin-foresight/foresight/internal/cli"
	"github.com/fin-foresight/foresight/internal/ipc"
	"github.com/fin-foresight/foresight/internal/logging"
	"github.com/fin-foresight/foresight/internal/orchestrator"
	"github.com/fin-foresight/foresight/internal/present"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
	"github.com/fin-foresight/foresight/internal/validation"
)

var runCmd = &cobra.Command{
	Use:   "run [ticker]",
	Short: "Run the analysis pipeline for a ticker",
	Long: `Open an analysis session for the ticker and run every agent in turn.

Each agent is invoked with one request. The backend names the agent to run
next; the run stops at the first failure and marks the agents that never
ran as errored. The command exits non-zero when the run fails.

Without a ticker, the command offers the dashboard tickers to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runStartDate string
	runEndDate   string
	runQuarter   string
	runDelay     time.Duration
	runOutput    string
	runNoColor   bool
	runTrace     string
	runServe     bool
)

func init() {
	runCmd.Flags().StringVar(&runStartDate, "start-date", "", "analysis start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEndDate, "end-date", "", "analysis end date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runQuarter, "quarter", "", "earnings quarter, e.g. 2023Q1")
	runCmd.Flags().DurationVar(&runDelay, "delay", time.Second, "pause between agents (default: workflow.step_delay)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "output format: text, json, yaml")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "disable colored output")
	runCmd.Flags().StringVar(&runTrace, "trace", "", "append a JSONL execution trace to this file")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "serve progress to 'foresight status <run-id>' while running")
	rootCmd.AddCommand(runCmd)
}

// runReport is the structured result of a run.
type runReport struct {
	RunID    string           `json:"run_id" yaml:"run_id"`
	Ticker   string           `json:"ticker" yaml:"ticker"`
	Status   types.RunStatus  `json:"status" yaml:"status"`
	Progress status.Snapshot  `json:"progress" yaml:"progress"`
	Results  []present.Report `json:"results" yaml:"results"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := checkFormat(runOutput); err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var ticker string
	if len(args) == 1 {
		ticker = args[0]
	} else {
		ticker, err = promptTicker(cmd, e.cfg.Dashboard.Tickers)
		if err != nil {
			return err
		}
		if ticker == "" {
			return fmt.Errorf("no ticker selected")
		}
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	req := types.AnalysisRequest{
		Ticker:    ticker,
		StartDate: runStartDate,
		EndDate:   runEndDate,
		Quarter:   strings.ToUpper(runQuarter),
	}
	if err := validation.Analysis(req); err != nil {
		return err
	}

	reg, err := e.registry()
	if err != nil {
		return err
	}

	delay := e.cfg.Workflow.StepDelay
	if cmd.Flags().Changed("delay") {
		delay = runDelay
	}

	runID := uuid.NewString()
	logger := logging.WithRun(e.logger, runID, ticker)
	client := e.client()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.StartAnalysis(ctx, req); err != nil {
		return fmt.Errorf("starting analysis: %w", err)
	}

	out := cmd.OutOrStdout()
	collector := &present.Collector{}
	presenters := present.Multi{collector}
	opts := []orchestrator.Option{
		orchestrator.WithStepDelay(delay),
		orchestrator.WithCascadeOnError(e.cfg.Workflow.CascadeOnError),
	}
	if runOutput == "text" {
		fmt.Fprintf(out, "Analyzing %s (%d agents)\n", ticker, reg.Len())
		if runServe {
			fmt.Fprintf(out, "Run ID: %s\n", runID)
		}
		fmt.Fprintln(out)
		presenters = append(presenters, present.NewTerminal(out, present.Options{NoColor: runNoColor}))
		opts = append(opts,
			orchestrator.WithProgressView(status.NewTerminalView(out, status.FormatOptions{NoColor: runNoColor})),
		)
	}
	opts = append(opts, orchestrator.WithPresenter(presenters))

	if runTrace != "" {
		path := runTrace
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.dir, path)
		}
		tracer, file, err := orchestrator.OpenTraceFile(path, runID)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer file.Close()
		opts = append(opts, orchestrator.WithTracer(tracer))
	}

	ctrl := orchestrator.New(reg, status.NewStore(reg), client, logger, opts...)

	if runServe {
		handler := &ipc.RunHandler{RunID: runID, Ticker: ticker, Run: ctrl, Results: collector}
		server := ipc.NewServer(runID, handler, logger)
		if err := server.StartAsync(ctx); err != nil {
			return fmt.Errorf("starting status socket: %w", err)
		}
		defer server.Shutdown()
	}

	snap, runErr := ctrl.Run(ctx)

	if runOutput != "text" {
		report := runReport{
			RunID:    runID,
			Ticker:   ticker,
			Status:   snap.RunStatus,
			Progress: snap,
			Results:  collector.Reports(),
		}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		if err := status.Encode(out, runOutput, report); err != nil {
			return err
		}
	} else if verbose {
		fmt.Fprintf(out, "Run %s finished in %s\n", runID, snap.Duration().Round(time.Millisecond))
	}

	if runErr != nil && ctx.Err() != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("interrupted: %w", runErr)
	}
	return runErr
}

func promptTicker(cmd *cobra.Command, tickers []string) (string, error) {
	options := make([]cli.SelectOption, len(tickers))
	for i, t := range tickers {
		options[i] = cli.SelectOption{Value: t, Label: t}
	}
	p := &cli.Prompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	return p.Select("Select a ticker to analyze:", options, true)
}
