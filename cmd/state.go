package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"runc-go/container"
)

var stateCmd = &cobra.Command{
	Use:   "state <container-id>",
	Short: "Output the state of a container",
	Long:  `Output the OCI-compliant state of a container as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runState,
}

var (
	stateMetrics bool
	stateHuman   bool
)

func init() {
	rootCmd.AddCommand(stateCmd)

	stateCmd.Flags().BoolVar(&stateMetrics, "metrics", false, "output cgroup resource usage in Prometheus text format instead of OCI state")
	stateCmd.Flags().BoolVar(&stateHuman, "human", false, "with --metrics, output a short human-readable summary instead of Prometheus text")
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	containerID := args[0]

	if stateMetrics {
		if stateHuman {
			text, err := container.StatsHuman(ctx, containerID, GetStateRoot())
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		}
		text, err := container.Metrics(ctx, containerID, GetStateRoot())
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	}

	return container.State(ctx, containerID, GetStateRoot())
}
