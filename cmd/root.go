package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/deaddiskd/cmd/run"
	"github.com/stratastor/deaddiskd/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deaddiskd",
		Short: "deaddiskd: unattended disk-health remediator for storage-cluster nodes",
	}

	rootCmd.AddCommand(run.NewRunCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return rootCmd
}
