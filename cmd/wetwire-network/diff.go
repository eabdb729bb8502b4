package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two CloudFormation templates",
		Long: `Diff compares two templates (JSON or YAML) resource by resource and
output by output.

Synthesis is idempotent, so two builds of the same config never differ:

    wetwire-network build > a.json
    wetwire-network build > b.json
    wetwire-network diff a.json b.json

Examples:
    wetwire-network diff old.json new.json
    wetwire-network diff old.yaml new.yaml --format json
    wetwire-network diff old.json new.json --ignore-order`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], outputFormat, ignoreOrder, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

func runDiff(file1, file2, format string, ignoreOrder bool, out io.Writer) error {
	result, err := differ.CompareFiles(file1, file2, differ.Options{IgnoreOrder: ignoreOrder})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    wetwire.TemplateDiff `json:"diff"`
			Summary wetwire.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(out, data)

	case "text":
		if result.Summary.Total == 0 {
			fmt.Fprintln(out, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(out, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(out, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(out, "~ %s (%s)\n", e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(out, "    %s\n", c)
			}
		}
		fmt.Fprintf(out, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)
		return nil

	default:
		return fmt.Errorf("unknown format: %s (use 'text' or 'json')", format)
	}
}
