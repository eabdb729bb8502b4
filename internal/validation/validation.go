// Package validation checks a synthesized network against its structural
// invariants and lints emitted templates with cfn-lint-go.
//
//   - CheckNetwork: subnet containment and disjointness, route and ACL
//     associations, default routes, ACL numbering, security group rules
//   - ValidateSchema: offline required-property and value checks
//   - LintTemplate / RunCfnLint: CloudFormation template validation
//     (library dependency, no external binary)
package validation

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/cidr"
	"github.com/lex00/wetwire-network-go/internal/schema"
	"github.com/lex00/wetwire-network-go/internal/template"
	"github.com/lex00/wetwire-network-go/internal/topology"
)

// Check names one network invariant.
type Check string

const (
	CheckSubnetContainment Check = "subnet-containment"
	CheckSubnetOverlap     Check = "subnet-overlap"
	CheckRouteAssociation  Check = "route-association"
	CheckACLAssociation    Check = "acl-association"
	CheckDefaultRoute      Check = "default-route"
	CheckACLNumbering      Check = "acl-numbering"
	CheckSecurityGroup     Check = "security-group"
	CheckSchema            Check = "schema"
)

// Issue is one violated invariant.
type Issue struct {
	Check    Check  `json:"check"`
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Check, i.Resource, i.Message)
}

// CheckNetwork returns every invariant the network violates. A network
// returned by topology.Synthesize always yields no issues.
func CheckNetwork(n *topology.Network) []Issue {
	var issues []Issue
	issues = append(issues, checkSubnets(n)...)
	issues = append(issues, checkRouteTables(n)...)
	issues = append(issues, checkACLs(n)...)
	issues = append(issues, checkSecurityGroups(n)...)
	return issues
}

// ValidateSchema checks every resource of t against the schemas of the
// emitted resource types. Schema warnings are not issues.
func ValidateSchema(t *wetwire.Template) []Issue {
	var issues []Issue
	for _, e := range schema.ValidateTemplate(t, schema.Options{}).Errors {
		msg := e.Message
		if e.Property != "" {
			msg = e.Property + ": " + msg
		}
		issues = append(issues, Issue{Check: CheckSchema, Resource: e.Resource, Message: msg})
	}
	return issues
}

func checkSubnets(n *topology.Network) []Issue {
	var issues []Issue
	blocks := make([]netip.Prefix, 0, len(n.Subnets))
	for _, s := range n.Subnets {
		if s.CIDR.Bits() < n.VPC.CIDR.Bits() || !n.VPC.CIDR.Contains(s.CIDR.Addr()) {
			issues = append(issues, Issue{CheckSubnetContainment, s.LogicalID,
				fmt.Sprintf("%s is outside VPC block %s", s.CIDR, n.VPC.CIDR)})
		}
		blocks = append(blocks, s.CIDR)
	}
	if a, b, ok := cidr.Overlapping(blocks); ok {
		issues = append(issues, Issue{CheckSubnetOverlap, n.VPC.LogicalID,
			fmt.Sprintf("%s overlaps %s", a, b)})
	}
	return issues
}

// countAssociations maps subnet id to the tiers of the parents it is
// associated with.
func countAssociations(assocs map[topology.Tier][]topology.Association) map[string][]topology.Tier {
	out := make(map[string][]topology.Tier)
	for tier, list := range assocs {
		for _, a := range list {
			out[a.Subnet] = append(out[a.Subnet], tier)
		}
	}
	return out
}

func checkAssociations(n *topology.Network, check Check, kind string, assocs map[topology.Tier][]topology.Association) []Issue {
	var issues []Issue
	bySubnet := countAssociations(assocs)
	for _, s := range n.Subnets {
		tiers := bySubnet[s.LogicalID]
		switch {
		case len(tiers) == 0:
			issues = append(issues, Issue{check, s.LogicalID, "no " + kind + " association"})
		case len(tiers) > 1:
			issues = append(issues, Issue{check, s.LogicalID, fmt.Sprintf("%d %s associations", len(tiers), kind)})
		case tiers[0] != s.Tier:
			issues = append(issues, Issue{check, s.LogicalID, fmt.Sprintf("%s subnet associated with %s %s", s.Tier, tiers[0], kind)})
		}
	}
	return issues
}

func checkRouteTables(n *topology.Network) []Issue {
	assocs := make(map[topology.Tier][]topology.Association)
	var issues []Issue
	for _, rt := range n.RouteTables {
		assocs[rt.Tier] = append(assocs[rt.Tier], rt.Associations...)

		var defaults []topology.Route
		for _, r := range rt.Routes {
			if r.Destination == topology.DefaultDestination {
				defaults = append(defaults, r)
			}
		}
		if len(defaults) > 1 {
			issues = append(issues, Issue{CheckDefaultRoute, rt.LogicalID, fmt.Sprintf("%d default routes", len(defaults))})
		}

		switch rt.Tier {
		case topology.Public:
			if len(defaults) == 0 {
				issues = append(issues, Issue{CheckDefaultRoute, rt.LogicalID, "public route table has no default route"})
			}
			for _, r := range defaults {
				if r.TargetKind != topology.TargetInternetGateway {
					issues = append(issues, Issue{CheckDefaultRoute, rt.LogicalID, fmt.Sprintf("default route targets %s, want internet gateway", r.TargetKind)})
				}
			}
		case topology.Private:
			for _, r := range defaults {
				if r.TargetKind == topology.TargetInternetGateway {
					issues = append(issues, Issue{CheckDefaultRoute, rt.LogicalID, "private route table routes to the internet gateway"})
				}
			}
		}
	}
	return append(issues, checkAssociations(n, CheckRouteAssociation, "route table", assocs)...)
}

func checkACLs(n *topology.Network) []Issue {
	assocs := make(map[topology.Tier][]topology.Association)
	var issues []Issue
	for _, acl := range n.NetworkACLs {
		assocs[acl.Tier] = append(assocs[acl.Tier], acl.Associations...)
		issues = append(issues, checkNumbering(acl.LogicalID, topology.Ingress, acl.Ingress)...)
		issues = append(issues, checkNumbering(acl.LogicalID, topology.Egress, acl.Egress)...)
	}
	return append(issues, checkAssociations(n, CheckACLAssociation, "network ACL", assocs)...)
}

// checkNumbering requires strictly ascending numbers, each on a step of its
// category's band.
func checkNumbering(acl string, dir topology.Direction, rules []topology.AclRule) []Issue {
	var issues []Issue
	prev := 0
	for _, r := range rules {
		where := fmt.Sprintf("%s %s rule %d", acl, dir, r.Number)
		if r.Number <= prev {
			issues = append(issues, Issue{CheckACLNumbering, where, fmt.Sprintf("not greater than previous rule %d", prev)})
		}
		prev = r.Number

		category, ok := topology.CategoryOf(r.Number)
		if !ok || category != r.Category {
			issues = append(issues, Issue{CheckACLNumbering, where, "outside its category band"})
			continue
		}
		if (r.Number-topology.BandBase(category))%topology.RuleStep != 0 {
			issues = append(issues, Issue{CheckACLNumbering, where, fmt.Sprintf("not on a step of %d", topology.RuleStep)})
		}
	}
	return issues
}

func checkSecurityGroups(n *topology.Network) []Issue {
	var issues []Issue
	for _, sg := range n.SecurityGroups {
		for _, r := range append(append([]topology.SecurityGroupRule{}, sg.Ingress...), sg.Egress...) {
			if r.Ports == topology.EphemeralPorts {
				issues = append(issues, Issue{CheckSecurityGroup, sg.LogicalID,
					fmt.Sprintf("%s rule opens the ephemeral range; security groups are stateful", r.Direction)})
			}
			if (r.CIDR == "") == (r.PeerGroup == "") {
				issues = append(issues, Issue{CheckSecurityGroup, sg.LogicalID,
					fmt.Sprintf("%s rule must select exactly one of CIDR or peer group", r.Direction)})
			}
		}
	}
	return issues
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// LintTemplate writes t to a temporary file and lints it.
func LintTemplate(t *wetwire.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	dir, err := os.MkdirTemp("", "wetwire-network-lint-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	for _, match := range matches {
		formatted := formatMatch(match)
		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0
	return result, nil
}

func formatMatch(match lint.Match) string {
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, strings.Join(parts, "/"))
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}
