package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/stacks"
	"github.com/lex00/wetwire-network-go/internal/synth"
)

type graphOptions struct {
	stack            string
	format           string
	includeExternals bool
	clusterByKind    bool
}

func newGraphCmd(global *globalOptions) *cobra.Command {
	opts := graphOptions{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph of one stack's resource dependencies.

The output can be rendered with Graphviz:
    wetwire-network graph | dot -Tpng -o network.png

Or used in GitHub markdown (Mermaid format):
    wetwire-network graph -f mermaid

Examples:
    wetwire-network graph
    wetwire-network graph --stack cluster -e    # show imported exports
    wetwire-network graph -k                    # cluster by resource kind`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := synthesize(cmd.Context(), global)
			if err != nil {
				return err
			}
			return runGraph(res, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.stack, "stack", "s", stacks.Network, "Stack to draw")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&opts.includeExternals, "include-externals", "e", false, "Draw imported exports as dashed nodes")
	cmd.Flags().BoolVarP(&opts.clusterByKind, "cluster", "k", false, "Cluster resources by kind")

	return cmd
}

func runGraph(res *synth.Result, opts graphOptions, out io.Writer) error {
	var format graph.Format
	switch opts.format {
	case "dot":
		format = graph.FormatDOT
	case "mermaid":
		format = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", opts.format)
	}

	stack, ok := res.Stack(opts.stack)
	if !ok {
		return fmt.Errorf("stack %q is not enabled (enabled: %v)", opts.stack, res.Names())
	}

	r := &graph.Renderer{
		Format:           format,
		IncludeExternals: opts.includeExternals,
		ClusterByKind:    opts.clusterByKind,
	}
	return r.Render(stack.Graph, out)
}
