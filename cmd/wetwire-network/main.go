// Command wetwire-network synthesizes AWS VPC networks into CloudFormation
// templates.
//
// Usage:
//
//	wetwire-network init                  Write a sample wetwire-network.yaml
//	wetwire-network build                 Print the network template
//	wetwire-network build -o out/         Write every enabled stack
//	wetwire-network validate              Check network invariants and lint
//	wetwire-network version               Show version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-network",
		Short: "Synthesize AWS VPC networks into CloudFormation",
		Long: `wetwire-network derives a complete VPC network from a small configuration:
subnet CIDR blocks, availability zones, route tables, network ACLs and
security groups, plus optional stacks that build on it.

    network:
      name: demo
      cidr: 10.10.0.0/16
      availability_zones: [us-east-1a, us-east-1b]
      public_subnets: 2
      private_subnets: 2

Then generate CloudFormation:

    wetwire-network build`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./wetwire-network.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose development logging on stderr")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(),
		newValidateCmd(opts),
		newListCmd(opts),
		newWatchCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-network %s\n", getVersion())
		},
	}
}
