package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-network-go/internal/config"
)

// newInitCmd creates the "init" subcommand.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample network config",
		Long: `Init writes a sample config that synthesizes a two-zone
network with endpoints and flow logs enabled.

Examples:
    wetwire-network init
    wetwire-network init prod.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteSample(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
