package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List pipeline agents",
	Long: `Display the agents of the analysis pipeline in registry order.

The order comes from workflow.agents in the config, or the built-in
pipeline when unset. The backend may still dictate a different order at
run time.`,
	RunE: runAgents,
}

var agentsFormat string

func init() {
	agentsCmd.Flags().StringVar(&agentsFormat, "format", "text", "output format: text, json, yaml")
	rootCmd.AddCommand(agentsCmd)
}

type agentInfo struct {
	ID    types.AgentID `json:"id" yaml:"id"`
	Title string        `json:"title" yaml:"title"`
}

func runAgents(cmd *cobra.Command, args []string) error {
	if err := checkFormat(agentsFormat); err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	reg, err := e.registry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if agentsFormat != "text" {
		infos := make([]agentInfo, 0, reg.Len())
		for _, id := range reg.Agents() {
			infos = append(infos, agentInfo{ID: id, Title: id.Title()})
		}
		return status.Encode(out, agentsFormat, infos)
	}

	fmt.Fprintln(out, "Agents")
	fmt.Fprintln(out, "------")
	for i, id := range reg.Agents() {
		fmt.Fprintf(out, "%d. %-16s %s\n", i+1, id, id.Title())
	}
	return nil
}
