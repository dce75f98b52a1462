package cmd

import (
	"github.com/spf13/cobra"

	"runc-go/container"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <container-id>",
	Short: "Pause a running container",
	Long:  `Suspend all processes in a container via its cgroup freezer.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPause,
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}

func runPause(cmd *cobra.Command, args []string) error {
	return container.Pause(GetContext(), args[0], GetStateRoot())
}
