// Package wetwire_network synthesizes AWS VPC network topologies into
// declarative resource graphs and CloudFormation templates.
//
// A single configuration record drives the whole pass:
//
//	network:
//	  name: demo
//	  cidr: 10.10.0.0/16
//	  availability_zones: [us-east-1a, us-east-1b]
//	  public_subnets: 2
//	  private_subnets: 2
//
// The wetwire-network CLI turns that record into a VPC stack plus optional
// downstream stacks (endpoints, flow logs, EKS cluster) that import the
// network's published ids.
package wetwire_network

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `json:"Type" yaml:"Type"`
	Description   string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export publishes an output under a region-wide name for Fn::ImportValue.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `wetwire-network build --json`.
type BuildResult struct {
	Success bool          `json:"success"`
	Stacks  []StackResult `json:"stacks,omitempty"`
	Errors  []string      `json:"errors,omitempty"`
}

// StackResult describes one synthesized stack.
type StackResult struct {
	Name      string   `json:"name"`
	File      string   `json:"file,omitempty"`
	Resources []string `json:"resources"`
	Outputs   []string `json:"outputs,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-network validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-network list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Stack     string   `json:"stack"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TemplateDiff holds the resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one changed resource or output.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
