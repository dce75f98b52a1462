package cmd

import (
	"github.com/spf13/cobra"

	"runc-go/container"
)

var initCmd = &cobra.Command{
	Use:    "init",
	Short:  "Run the Init role of the container construction pipeline (internal use)",
	Long:   `Internal command: the second re-exec hop, inside the pid/cgroup namespaces, that builds the rootfs and execs the container process.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runInit,
}

var initIntermediateCmd = &cobra.Command{
	Use:    "init-intermediate",
	Short:  "Run the Intermediate role of the container construction pipeline (internal use)",
	Long:   `Internal command: the first re-exec hop, inside the early-hop namespaces, that forks the Init role.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runInitIntermediate,
}

var execInitCmd = &cobra.Command{
	Use:    "exec-init",
	Short:  "Initialize exec in container (internal use)",
	Long:   `Internal command called to join container namespaces and exec.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runExecInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(initIntermediateCmd)
	rootCmd.AddCommand(execInitCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	return container.RunInit()
}

func runInitIntermediate(cmd *cobra.Command, args []string) error {
	return container.RunIntermediate()
}

func runExecInit(cmd *cobra.Command, args []string) error {
	return container.ExecInit()
}
