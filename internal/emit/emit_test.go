package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

func demoConfig() topology.NetworkConfig {
	return topology.NetworkConfig{
		Name:              "demo",
		CIDR:              "10.10.0.0/16",
		AvailabilityZones: []string{"us-east-1a", "us-east-1b"},
		PublicSubnets:     2,
		PrivateSubnets:    2,
		NATGateway:        true,
		Tags:              map[string]string{"team": "net", "env": "dev"},
	}
}

func emitConfig(t *testing.T, cfg topology.NetworkConfig) *Result {
	t.Helper()
	n, err := topology.Synthesize(cfg)
	require.NoError(t, err)
	res, err := Emit(n)
	require.NoError(t, err)
	return res
}

func normalized(t *testing.T, v any) any {
	t.Helper()
	out, err := graph.Normalize(v)
	require.NoError(t, err)
	return out
}

func TestEmit_Nodes(t *testing.T) {
	res := emitConfig(t, demoConfig())
	g := res.Graph

	for id, kind := range map[string]graph.Kind{
		"VPC":                     graph.KindVPC,
		"InternetGateway":         graph.KindInternetGateway,
		"IGWAttachment":           graph.KindGatewayAttachment,
		"NATGatewayEIP":           graph.KindEIP,
		"NATGateway":              graph.KindNATGateway,
		"PublicSubnet1":           graph.KindSubnet,
		"PrivateSubnet2":          graph.KindSubnet,
		"PublicRouteTable":        graph.KindRouteTable,
		"PublicRoute":             graph.KindRoute,
		"PrivateRoute":            graph.KindRoute,
		"PublicSubnetRTAssoc1":    graph.KindSubnetRouteTableAssociation,
		"PrivateSubnetRTAssoc2":   graph.KindSubnetRouteTableAssociation,
		"PublicNACL":              graph.KindNetworkACL,
		"PublicNACLIngress200":    graph.KindNetworkACLEntry,
		"PrivateNACLEgress400":    graph.KindNetworkACLEntry,
		"PrivateSubnetNACLAssoc1": graph.KindSubnetNetworkACLAssociation,
		"PublicSecurityGroup":     graph.KindSecurityGroup,
		"PrivateSecurityGroup":    graph.KindSecurityGroup,
	} {
		n, ok := g.Node(id)
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, kind, n.Kind, id)
	}
}

func TestEmit_Routes(t *testing.T) {
	g := emitConfig(t, demoConfig()).Graph

	public, ok := g.Node("PublicRoute")
	require.True(t, ok)
	assert.Equal(t, intrinsics.RefTo("InternetGateway"), public.Properties["GatewayId"])
	assert.Equal(t, "0.0.0.0/0", public.Properties["DestinationCidrBlock"])
	assert.Equal(t, []string{"IGWAttachment"}, public.DependsOn)

	private, ok := g.Node("PrivateRoute")
	require.True(t, ok)
	assert.Equal(t, intrinsics.RefTo("NATGateway"), private.Properties["NatGatewayId"])
	assert.NotContains(t, private.Properties, "GatewayId")
}

func TestEmit_NoNAT(t *testing.T) {
	cfg := demoConfig()
	cfg.NATGateway = false
	g := emitConfig(t, cfg).Graph

	assert.False(t, g.Has("PrivateRoute"))
	assert.False(t, g.Has("NATGateway"))
	assert.False(t, g.Has("NATGatewayEIP"))
	assert.True(t, g.Has("PrivateRouteTable"))
}

func TestEmit_PrivateOnly(t *testing.T) {
	cfg := demoConfig()
	cfg.PublicSubnets = 0
	cfg.NATGateway = false
	res := emitConfig(t, cfg)

	assert.False(t, res.Graph.Has("InternetGateway"))
	assert.False(t, res.Graph.Has("PublicRouteTable"))
	assert.Empty(t, res.Exports.PublicSubnetIDs)
	assert.False(t, res.Exports.HasTier(topology.Public))
	assert.True(t, res.Exports.HasTier(topology.Private))
}

func TestEmit_SubnetTags(t *testing.T) {
	g := emitConfig(t, demoConfig()).Graph

	n, ok := g.Node("PublicSubnet2")
	require.True(t, ok)
	assert.Equal(t, "10.10.1.0/24", n.Properties["CidrBlock"])
	assert.Equal(t, "us-east-1b", n.Properties["AvailabilityZone"])
	assert.Equal(t, true, n.Properties["MapPublicIpOnLaunch"])
	assert.Equal(t, normalized(t, []any{
		map[string]any{"Key": "Name", "Value": "demo-public-2"},
		map[string]any{"Key": "kubernetes.io/role/elb", "Value": "1"},
		map[string]any{"Key": "env", "Value": "dev"},
		map[string]any{"Key": "team", "Value": "net"},
	}), normalized(t, n.Properties["Tags"]))

	n, ok = g.Node("PrivateSubnet1")
	require.True(t, ok)
	assert.NotContains(t, n.Properties, "MapPublicIpOnLaunch")
	assert.Contains(t, normalized(t, n.Properties["Tags"]), map[string]any{"Key": "kubernetes.io/role/internal-elb", "Value": "1"})
}

func TestEmit_ACLEntries(t *testing.T) {
	g := emitConfig(t, demoConfig()).Graph

	n, ok := g.Node("PublicNACLIngress500")
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"NetworkAclId": intrinsics.RefTo("PublicNACL"),
		"RuleNumber":   500,
		"Protocol":     6,
		"RuleAction":   "allow",
		"Egress":       false,
		"CidrBlock":    "0.0.0.0/0",
		"PortRange":    map[string]any{"From": 1024, "To": 65535},
	}, n.Properties)

	n, ok = g.Node("PublicNACLEgress900")
	require.True(t, ok)
	assert.Equal(t, -1, n.Properties["Protocol"])
	assert.Equal(t, true, n.Properties["Egress"])
	assert.NotContains(t, n.Properties, "PortRange")
}

func TestEmit_SecurityGroupHasNoEphemeralRule(t *testing.T) {
	g := emitConfig(t, demoConfig()).Graph

	n, ok := g.Node("PublicSecurityGroup")
	require.True(t, ok)
	ingress, ok := normalized(t, n.Properties["SecurityGroupIngress"]).([]any)
	require.True(t, ok)
	assert.Len(t, ingress, 3)
	for _, r := range ingress {
		rule := r.(map[string]any)
		assert.NotEqual(t, float64(1024), rule["FromPort"])
	}
}

func TestEmit_Outputs(t *testing.T) {
	res := emitConfig(t, demoConfig())

	outputs := res.Graph.Outputs()
	assert.Len(t, outputs, 8)
	assert.Equal(t, "demo-VpcId", outputs[OutputVpcID].Export.Name)
	assert.Equal(t, normalized(t, intrinsics.Join{Delimiter: ",", Values: intrinsics.Refs("PrivateSubnet1", "PrivateSubnet2")}),
		normalized(t, outputs[OutputPrivateSubnetIDs].Value))

	assert.Equal(t, NewExports("demo"), res.Exports)
}

func TestEmit_Idempotent(t *testing.T) {
	a := emitConfig(t, demoConfig()).Graph
	b := emitConfig(t, demoConfig()).Graph

	require.Equal(t, a.IDs(), b.IDs())
	for _, id := range a.IDs() {
		na, _ := a.Node(id)
		nb, _ := b.Node(id)
		assert.Equal(t, normalized(t, na.Properties), normalized(t, nb.Properties), id)
		assert.Equal(t, na.DependsOn, nb.DependsOn, id)
	}

	orderA, err := a.Order()
	require.NoError(t, err)
	orderB, err := b.Order()
	require.NoError(t, err)
	assert.Equal(t, orderA, orderB)
}

func TestEmit_AssociationsFollowSubnetAndTable(t *testing.T) {
	g := emitConfig(t, demoConfig()).Graph

	deps := g.Dependencies("PrivateSubnetRTAssoc1")
	assert.Equal(t, []string{"PrivateRouteTable", "PrivateSubnet1"}, deps)
}

func TestExports_Imports(t *testing.T) {
	x := NewExports("demo")

	assert.Equal(t, intrinsics.ImportValue{ExportName: "demo-VpcId"}, x.ImportVpcID())
	assert.Equal(t, intrinsics.ImportList("demo-PublicSubnetIds"), x.ImportSubnetIDs(topology.Public))
	assert.Equal(t, intrinsics.ImportValue{ExportName: "demo-PrivateRouteTableId"}, x.ImportRouteTableID(topology.Private))
}
