package cmd

import (
	"github.com/spf13/cobra"

	"runc-go/container"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <container-id>",
	Short: "Resume a paused container",
	Long:  `Resume all processes in a container previously suspended with 'pause'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	return container.Resume(GetContext(), args[0], GetStateRoot())
}
