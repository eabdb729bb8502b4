// Package emit turns a synthesized network into a validated resource graph
// with published outputs, and describes those outputs for downstream stacks.
package emit

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Result is the emitted network stack.
type Result struct {
	Graph   *graph.Graph
	Exports Exports
}

type emitter struct {
	n *topology.Network
	g *graph.Graph
}

// Emit builds the network's resource graph. The graph is validated before it
// is returned; on error nothing is returned.
func Emit(n *topology.Network) (*Result, error) {
	e := &emitter{
		n: n,
		g: graph.New(fmt.Sprintf("%s network: VPC %s across %d availability zones", n.Config.Name, n.VPC.CIDR, len(n.Zones))),
	}

	steps := []func() error{
		e.vpc,
		e.gateways,
		e.subnets,
		e.routeTables,
		e.networkACLs,
		e.securityGroups,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	exports, err := e.outputs()
	if err != nil {
		return nil, err
	}
	if err := e.g.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s network graph: %w", n.Config.Name, err)
	}
	return &Result{Graph: e.g, Exports: exports}, nil
}

func (e *emitter) add(id string, kind graph.Kind, props map[string]any, dependsOn ...string) error {
	return e.g.Add(graph.Node{ID: id, Kind: kind, Properties: props, DependsOn: dependsOn})
}

// tags returns the Name tag, any extra tags, then the configured tags sorted
// by key.
func (e *emitter) tags(name string, extra ...intrinsics.Tag) []any {
	out := []any{intrinsics.Tag{Key: "Name", Value: e.n.Config.Name + "-" + name}}
	for _, t := range extra {
		out = append(out, t)
	}
	keys := make([]string, 0, len(e.n.Config.Tags))
	for k := range e.n.Config.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, intrinsics.Tag{Key: k, Value: e.n.Config.Tags[k]})
	}
	return out
}

func (e *emitter) vpc() error {
	return e.add(e.n.VPC.LogicalID, graph.KindVPC, map[string]any{
		"CidrBlock":          e.n.VPC.CIDR.String(),
		"EnableDnsSupport":   true,
		"EnableDnsHostnames": true,
		"Tags":               e.tags("vpc"),
	})
}

func (e *emitter) gateways() error {
	igw := e.n.InternetGateway
	if igw == nil {
		return nil
	}
	if err := e.add(igw.LogicalID, graph.KindInternetGateway, map[string]any{
		"Tags": e.tags("igw"),
	}); err != nil {
		return err
	}
	return e.add(igw.Attachment, graph.KindGatewayAttachment, map[string]any{
		"VpcId":             intrinsics.RefTo(e.n.VPC.LogicalID),
		"InternetGatewayId": intrinsics.RefTo(igw.LogicalID),
	})
}

func (e *emitter) subnets() error {
	for _, s := range e.n.Subnets {
		role := intrinsics.Tag{Key: "kubernetes.io/role/internal-elb", Value: "1"}
		if s.Tier == topology.Public {
			role = intrinsics.Tag{Key: "kubernetes.io/role/elb", Value: "1"}
		}
		props := map[string]any{
			"VpcId":            intrinsics.RefTo(s.VPC),
			"CidrBlock":        s.CIDR.String(),
			"AvailabilityZone": s.AZ,
			"Tags":             e.tags(fmt.Sprintf("%s-%d", s.Tier, s.Index+1), role),
		}
		if s.MapPublicIPOnLaunch() {
			props["MapPublicIpOnLaunch"] = true
		}
		if err := e.add(s.LogicalID, graph.KindSubnet, props); err != nil {
			return err
		}
	}

	// The NAT gateway lives in a public subnet, so it is emitted after them.
	nat := e.n.NATGateway
	if nat == nil {
		return nil
	}
	var eipDeps []string
	if e.n.InternetGateway != nil {
		eipDeps = append(eipDeps, e.n.InternetGateway.Attachment)
	}
	if err := e.add(nat.EIP, graph.KindEIP, map[string]any{
		"Domain": "vpc",
		"Tags":   e.tags("nat-eip"),
	}, eipDeps...); err != nil {
		return err
	}
	return e.add(nat.LogicalID, graph.KindNATGateway, map[string]any{
		"AllocationId": intrinsics.Attr(nat.EIP, "AllocationId"),
		"SubnetId":     intrinsics.RefTo(nat.Subnet),
		"Tags":         e.tags("nat"),
	})
}

func (e *emitter) routeTables() error {
	for _, rt := range e.n.RouteTables {
		if err := e.add(rt.LogicalID, graph.KindRouteTable, map[string]any{
			"VpcId": intrinsics.RefTo(rt.VPC),
			"Tags":  e.tags(fmt.Sprintf("%s-rt", rt.Tier)),
		}); err != nil {
			return err
		}
		for _, r := range rt.Routes {
			props := map[string]any{
				"RouteTableId":         intrinsics.RefTo(rt.LogicalID),
				"DestinationCidrBlock": r.Destination,
			}
			switch r.TargetKind {
			case topology.TargetInternetGateway:
				props["GatewayId"] = intrinsics.RefTo(r.Target)
			case topology.TargetNATGateway:
				props["NatGatewayId"] = intrinsics.RefTo(r.Target)
			default:
				return fmt.Errorf("route %s: unsupported target kind %q", r.LogicalID, r.TargetKind)
			}
			if err := e.add(r.LogicalID, graph.KindRoute, props, r.DependsOn...); err != nil {
				return err
			}
		}
		for _, a := range rt.Associations {
			if err := e.add(a.LogicalID, graph.KindSubnetRouteTableAssociation, map[string]any{
				"SubnetId":     intrinsics.RefTo(a.Subnet),
				"RouteTableId": intrinsics.RefTo(a.Parent),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *emitter) networkACLs() error {
	for _, acl := range e.n.NetworkACLs {
		if err := e.add(acl.LogicalID, graph.KindNetworkACL, map[string]any{
			"VpcId": intrinsics.RefTo(acl.VPC),
			"Tags":  e.tags(fmt.Sprintf("%s-nacl", acl.Tier)),
		}); err != nil {
			return err
		}
		for _, rule := range acl.Rules() {
			props, err := ACLEntryProperties(acl.LogicalID, rule)
			if err != nil {
				return err
			}
			if err := e.add(topology.ACLEntryID(acl.Tier, rule.Direction, rule.Number), graph.KindNetworkACLEntry, props); err != nil {
				return err
			}
		}
		for _, a := range acl.Associations {
			if err := e.add(a.LogicalID, graph.KindSubnetNetworkACLAssociation, map[string]any{
				"SubnetId":     intrinsics.RefTo(a.Subnet),
				"NetworkAclId": intrinsics.RefTo(a.Parent),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *emitter) securityGroups() error {
	for _, sg := range e.n.SecurityGroups {
		props := SecurityGroupProperties(sg)
		props["Tags"] = e.tags(fmt.Sprintf("%s-sg", sg.Tier))
		if err := e.add(sg.LogicalID, graph.KindSecurityGroup, props); err != nil {
			return err
		}
	}
	return nil
}

// ACLEntryProperties returns the NetworkAclEntry properties of rule.
func ACLEntryProperties(aclID string, rule topology.AclRule) (map[string]any, error) {
	protocol, err := strconv.Atoi(string(rule.Protocol))
	if err != nil {
		return nil, fmt.Errorf("rule %d: protocol %q is not numeric", rule.Number, rule.Protocol)
	}
	props := map[string]any{
		"NetworkAclId": intrinsics.RefTo(aclID),
		"RuleNumber":   rule.Number,
		"Protocol":     protocol,
		"RuleAction":   string(rule.Action),
		"Egress":       rule.Direction == topology.Egress,
		"CidrBlock":    rule.CIDR,
	}
	if !rule.Ports.IsAll() {
		props["PortRange"] = map[string]any{"From": rule.Ports.From, "To": rule.Ports.To}
	}
	return props, nil
}

// SecurityGroupProperties returns the SecurityGroup properties of sg with
// its rules inline.
func SecurityGroupProperties(sg topology.SecurityGroup) map[string]any {
	props := map[string]any{
		"GroupDescription": sg.Description,
		"VpcId":            intrinsics.RefTo(sg.VPC),
	}
	if len(sg.Ingress) > 0 {
		props["SecurityGroupIngress"] = securityGroupRules(sg.Ingress)
	}
	if len(sg.Egress) > 0 {
		props["SecurityGroupEgress"] = securityGroupRules(sg.Egress)
	}
	return props
}

func securityGroupRules(rules []topology.SecurityGroupRule) []any {
	out := make([]any, 0, len(rules))
	for _, r := range rules {
		out = append(out, SecurityGroupRuleProperties(r))
	}
	return out
}

// SecurityGroupRuleProperties returns the CloudFormation form of one rule.
// The peer key depends on the direction: CidrIp or SourceSecurityGroupId for
// ingress, CidrIp or DestinationSecurityGroupId for egress.
func SecurityGroupRuleProperties(r topology.SecurityGroupRule) map[string]any {
	props := map[string]any{
		"IpProtocol": r.Protocol.Name(),
	}
	if !r.Ports.IsAll() {
		props["FromPort"] = r.Ports.From
		props["ToPort"] = r.Ports.To
	}
	switch {
	case r.PeerGroup != "" && r.Direction == topology.Egress:
		props["DestinationSecurityGroupId"] = intrinsics.Attr(r.PeerGroup, "GroupId")
	case r.PeerGroup != "":
		props["SourceSecurityGroupId"] = intrinsics.Attr(r.PeerGroup, "GroupId")
	default:
		props["CidrIp"] = r.CIDR
	}
	if r.Description != "" {
		props["Description"] = r.Description
	}
	return props
}
