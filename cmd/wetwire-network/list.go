package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/synth"
)

func newListCmd(global *globalOptions) *cobra.Command {
	var (
		outputFormat string
		stack        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List synthesized resources",
		Long: `List shows the logical id and type of every resource, stack by stack.

Examples:
    wetwire-network list
    wetwire-network list --stack network --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := synthesize(cmd.Context(), global)
			if err != nil {
				return err
			}
			result, err := runList(res, stack)
			if err != nil {
				return err
			}
			return outputListResult(result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&stack, "stack", "s", "", "Only list this stack")

	return cmd
}

func runList(res *synth.Result, only string) (wetwire.ListResult, error) {
	result := wetwire.ListResult{Resources: []wetwire.ListResource{}}
	found := only == ""
	for _, s := range res.Stacks {
		if only != "" && s.Name != only {
			continue
		}
		found = true
		for _, id := range s.Graph.IDs() {
			n, _ := s.Graph.Node(id)
			result.Resources = append(result.Resources, wetwire.ListResource{
				Stack:     s.Name,
				Name:      id,
				Type:      string(n.Kind),
				DependsOn: s.Graph.Dependencies(id),
			})
		}
	}
	if !found {
		return result, fmt.Errorf("stack %q is not enabled (enabled: %v)", only, res.Names())
	}
	return result, nil
}

func outputListResult(result wetwire.ListResult, format string, out io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(out, data)

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(out, "No resources found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STACK\tNAME\tTYPE")
		for _, r := range result.Resources {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Stack, r.Name, r.Type)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nTotal: %d resources\n", len(result.Resources))
		return nil

	default:
		return fmt.Errorf("unknown format: %s (use 'text' or 'json')", format)
	}
}
