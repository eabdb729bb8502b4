package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/ack"
	"github.com/lex00/wetwire-network-go/internal/stacks"
	"github.com/lex00/wetwire-network-go/internal/synth"
	"github.com/lex00/wetwire-network-go/internal/template"
)

const (
	targetCloudFormation = "cloudformation"
	targetACK            = "ack"
)

type buildOptions struct {
	format    string
	outputDir string
	stack     string
	target    string
	namespace string
	json      bool
}

func newBuildCmd(global *globalOptions) *cobra.Command {
	opts := buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate CloudFormation templates from the network config",
		Long: `Build synthesizes the network and every enabled downstream stack.

Without --output-dir one stack is printed to stdout (the network by default).
With --output-dir every enabled stack is written to {dir}/{stack}.{format}.

With --target ack the network is rendered as AWS Controllers for Kubernetes
manifests instead of a template.

Examples:
    wetwire-network build
    wetwire-network build --stack cluster --format yaml
    wetwire-network build -o out/ --json
    wetwire-network build --target ack --namespace ack-system`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := synthesize(cmd.Context(), global)
			if err != nil {
				return err
			}
			return runBuild(res, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Write every stack into this directory")
	cmd.Flags().StringVarP(&opts.stack, "stack", "s", stacks.Network, "Stack printed to stdout")
	cmd.Flags().StringVarP(&opts.target, "target", "t", targetCloudFormation, "Output target: cloudformation or ack")
	cmd.Flags().StringVar(&opts.namespace, "namespace", "", "Namespace of ACK manifests")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print a JSON build summary (requires --output-dir)")

	return cmd
}

func runBuild(res *synth.Result, opts buildOptions, out io.Writer) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format: %s (use 'json' or 'yaml')", opts.format)
	}
	if opts.json && opts.outputDir == "" {
		return fmt.Errorf("--json requires --output-dir")
	}

	switch opts.target {
	case targetACK:
		return buildACK(res, opts, out)
	case targetCloudFormation:
	default:
		return fmt.Errorf("unknown target: %s (use 'cloudformation' or 'ack')", opts.target)
	}

	if opts.outputDir == "" {
		stack, ok := res.Stack(opts.stack)
		if !ok {
			return fmt.Errorf("stack %q is not enabled (enabled: %v)", opts.stack, res.Names())
		}
		data, err := template.Marshal(stack.Template, opts.format)
		if err != nil {
			return err
		}
		return writeOutput(out, data)
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	result := wetwire.BuildResult{Success: true}
	for _, s := range res.Stacks {
		data, err := template.Marshal(s.Template, opts.format)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.outputDir, s.Name+"."+opts.format)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		result.Stacks = append(result.Stacks, stackResult(s, path))
	}

	if opts.json {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(out, data)
	}
	for _, s := range result.Stacks {
		fmt.Fprintf(out, "%s: %d resources -> %s\n", s.Name, len(s.Resources), s.File)
	}
	return nil
}

func buildACK(res *synth.Result, opts buildOptions, out io.Writer) error {
	objs, err := ack.Manifests(res.Network, ack.Options{Namespace: opts.namespace})
	if err != nil {
		return err
	}
	data, err := ack.Marshal(objs)
	if err != nil {
		return err
	}
	if opts.outputDir == "" {
		_, err := out.Write(data)
		return err
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(opts.outputDir, stacks.Network+"-ack.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if opts.json {
		result := wetwire.BuildResult{Success: true, Stacks: []wetwire.StackResult{{
			Name:      stacks.Network,
			File:      path,
			Resources: manifestNames(objs),
		}}}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(out, data)
	}
	fmt.Fprintf(out, "%s: %d manifests -> %s\n", stacks.Network, len(objs), path)
	return nil
}

func stackResult(s synth.Stack, path string) wetwire.StackResult {
	r := wetwire.StackResult{
		Name:      s.Name,
		File:      path,
		Resources: s.Graph.IDs(),
	}
	for name := range s.Template.Outputs {
		r.Outputs = append(r.Outputs, name)
	}
	sort.Strings(r.Outputs)
	return r
}

func manifestNames(objs []any) []string {
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		if named, ok := o.(interface{ GetName() string }); ok {
			names = append(names, named.GetName())
		}
	}
	return names
}

// writeOutput writes data followed by a newline when it lacks one.
func writeOutput(out io.Writer, data []byte) error {
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err := io.WriteString(out, "\n")
		return err
	}
	return nil
}
