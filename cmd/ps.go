package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"runc-go/container"
)

var psCmd = &cobra.Command{
	Use:   "ps <container-id>",
	Short: "List processes in a container",
	Long:  `List the PIDs of every process currently in a container's cgroup.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPs,
}

var psFormat string

func init() {
	rootCmd.AddCommand(psCmd)
	psCmd.Flags().StringVarP(&psFormat, "format", "f", "table", "output format (table, json)")
}

type psEntry struct {
	HostPID int `json:"host_pid"`
	PID     int `json:"pid"`
}

func runPs(cmd *cobra.Command, args []string) error {
	hostPids, err := container.Ps(GetContext(), args[0], GetStateRoot())
	if err != nil {
		return err
	}

	entries := make([]psEntry, len(hostPids))
	for i, hostPid := range hostPids {
		nsPid, err := container.NamespacePid(hostPid)
		if err != nil {
			nsPid = hostPid
		}
		entries[i] = psEntry{HostPID: hostPid, PID: nsPid}
	}

	if psFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	fmt.Println("PID\tHOST PID")
	for _, e := range entries {
		fmt.Printf("%d\t%d\n", e.PID, e.HostPID)
	}
	return nil
}
