// Package template renders a resource graph as a CloudFormation template.
package template

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/graph"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// Build converts g into a template. The graph is validated first, so a
// template is only produced for a complete, acyclic graph.
func Build(g *graph.Graph) (*wetwire.Template, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	t := &wetwire.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              g.Description(),
		Resources:                make(map[string]wetwire.ResourceDef, g.Len()),
	}

	for _, n := range g.Nodes() {
		props, err := normalizeProperties(n.Properties)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", n.ID, err)
		}
		t.Resources[n.ID] = wetwire.ResourceDef{
			Type:       string(n.Kind),
			Properties: props,
			DependsOn:  n.DependsOn,
		}
	}

	outputs := g.Outputs()
	if len(outputs) > 0 {
		t.Outputs = make(map[string]wetwire.Output, len(outputs))
		for name, out := range outputs {
			value, err := graph.Normalize(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			out.Value = value
			t.Outputs[name] = out
		}
	}

	return t, nil
}

// normalizeProperties turns intrinsics and Go values into plain JSON data so
// JSON and YAML output agree.
func normalizeProperties(props map[string]any) (map[string]any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	norm, err := graph.Normalize(props)
	if err != nil {
		return nil, err
	}
	out, ok := norm.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("properties normalized to %T", norm)
	}
	return out, nil
}

// ToJSON serializes the template to JSON. Map keys are sorted, so equal
// templates serialize to identical bytes.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Marshal serializes the template as json or yaml.
func Marshal(t *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return ToJSON(t)
	case "yaml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
