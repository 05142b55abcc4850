package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fin-foresight/foresight/internal/ipc"
	"github.com/fin-foresight/foresight/internal/orchestrator"
	"github.com/fin-foresight/foresight/internal/present"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show progress of a running analysis",
	Long: `Query a run started with 'foresight run --serve'.

Prints the progress bar and per-agent status. With --agent, prints that
agent's latest result instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var (
	statusSocket  string
	statusAgent   string
	statusFormat  string
	statusNoColor bool
)

func init() {
	statusCmd.Flags().StringVar(&statusSocket, "socket", "", "socket path (default: derived from run id)")
	statusCmd.Flags().StringVar(&statusAgent, "agent", "", "show this agent's result")
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "output format: text, json, yaml")
	statusCmd.Flags().BoolVar(&statusNoColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := checkFormat(statusFormat); err != nil {
		return err
	}

	path := statusSocket
	if path == "" {
		if len(args) == 0 {
			return fmt.Errorf("run id or --socket is required")
		}
		path = ipc.SocketPath(args[0])
	}
	client := ipc.NewClient(path)
	out := cmd.OutOrStdout()

	if statusAgent != "" {
		msg, err := client.Result(types.AgentID(statusAgent))
		if err != nil {
			return err
		}
		res := msg.AgentResult()
		if statusFormat != "text" {
			return status.Encode(out, statusFormat, present.Report{
				Agent: msg.Agent, Status: msg.Status, Message: msg.Message, Result: res,
			})
		}
		term := present.NewTerminal(out, present.Options{NoColor: statusNoColor})
		term.Present(msg.Agent, orchestrator.Outcome{Status: msg.Status, Message: msg.Message, Result: res})
		return nil
	}

	msg, err := client.Status()
	if err != nil {
		return err
	}
	if statusFormat != "text" {
		return status.Encode(out, statusFormat, msg)
	}
	fmt.Fprintf(out, "Run %s (%s): %s\n\n", msg.RunID, msg.Ticker, msg.Snapshot.RunStatus)
	fmt.Fprintln(out, status.FormatSnapshot(msg.Snapshot, status.FormatOptions{NoColor: statusNoColor}))
	return nil
}
