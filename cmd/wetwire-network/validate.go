package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/synth"
	"github.com/lex00/wetwire-network-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd(global *globalOptions) *cobra.Command {
	var (
		outputFormat string
		skipLint     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check network invariants and lint the templates",
		Long: `Validate synthesizes every enabled stack and checks it.

Checks performed:
  - Subnets lie inside the VPC block and do not overlap
  - Every subnet has exactly one route table and one network ACL of its tier
  - The public route table has one default route, to the internet gateway
  - Private route tables never route to the internet gateway
  - Network ACL rule numbers are unique, ascending and on their band
  - Security groups carry no ephemeral-port rule
  - Every resource has its required properties with well-typed values
  - cfn-lint on every emitted template (skip with --skip-lint)

Examples:
    wetwire-network validate
    wetwire-network validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := synthesize(cmd.Context(), global)
			if err != nil {
				return err
			}
			result, err := runValidate(res, skipLint)
			if err != nil {
				return err
			}
			return outputValidateResult(result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Skip cfn-lint")

	return cmd
}

func runValidate(res *synth.Result, skipLint bool) (wetwire.ValidateResult, error) {
	result := wetwire.ValidateResult{}
	for _, issue := range validation.CheckNetwork(res.Network) {
		result.Errors = append(result.Errors, issue.String())
	}

	for _, s := range res.Stacks {
		result.Resources += s.Graph.Len()
		for _, issue := range validation.ValidateSchema(s.Template) {
			result.Errors = append(result.Errors, s.Name+": "+issue.String())
		}
		if skipLint {
			continue
		}
		lint, err := validation.LintTemplate(s.Template)
		if err != nil {
			return result, fmt.Errorf("linting %s: %w", s.Name, err)
		}
		for _, e := range lint.Errors {
			result.Errors = append(result.Errors, s.Name+": "+e)
		}
		for _, w := range lint.Warnings {
			result.Warnings = append(result.Warnings, s.Name+": "+w)
		}
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

func outputValidateResult(result wetwire.ValidateResult, format string, out io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(out, data); err != nil {
			return err
		}

	case "text":
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if result.Success {
			fmt.Fprintf(out, "Validation passed: %d resources OK\n", result.Resources)
			return nil
		}
		fmt.Fprintln(out, "Validation FAILED:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}

	default:
		return fmt.Errorf("unknown format: %s (use 'text' or 'json')", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed with %d errors", len(result.Errors))
	}
	return nil
}
