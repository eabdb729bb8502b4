package template

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

func networkTemplate(t *testing.T, cfg topology.NetworkConfig) *wetwire.Template {
	t.Helper()
	n, err := topology.Synthesize(cfg)
	require.NoError(t, err)
	res, err := emit.Emit(n)
	require.NoError(t, err)
	tmpl, err := Build(res.Graph)
	require.NoError(t, err)
	return tmpl
}

func demoConfig() topology.NetworkConfig {
	return topology.NetworkConfig{
		Name:              "demo",
		CIDR:              "10.10.0.0/16",
		AvailabilityZones: []string{"us-east-1a", "us-east-1b"},
		PublicSubnets:     2,
		PrivateSubnets:    2,
		NATGateway:        true,
	}
}

func TestBuild_NetworkTemplate(t *testing.T) {
	tmpl := networkTemplate(t, demoConfig())

	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	assert.Contains(t, tmpl.Description, "10.10.0.0/16")

	vpc := tmpl.Resources["VPC"]
	assert.Equal(t, "AWS::EC2::VPC", vpc.Type)
	assert.Equal(t, "10.10.0.0/16", vpc.Properties["CidrBlock"])

	route := tmpl.Resources["PublicRoute"]
	assert.Equal(t, []string{"IGWAttachment"}, route.DependsOn)
	assert.Equal(t, map[string]any{"Ref": "InternetGateway"}, route.Properties["GatewayId"])

	nat := tmpl.Resources["NATGateway"]
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"NATGatewayEIP", "AllocationId"}}, nat.Properties["AllocationId"])

	igw := tmpl.Resources["InternetGateway"]
	assert.Empty(t, igw.DependsOn)

	require.Contains(t, tmpl.Outputs, "VpcId")
	assert.Equal(t, map[string]any{"Ref": "VPC"}, tmpl.Outputs["VpcId"].Value)
	assert.Equal(t, "demo-VpcId", tmpl.Outputs["VpcId"].Export.Name)
}

func TestBuild_Idempotent(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			a, err := Marshal(networkTemplate(t, demoConfig()), format)
			require.NoError(t, err)
			b, err := Marshal(networkTemplate(t, demoConfig()), format)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestBuild_RejectsUnresolvedReference(t *testing.T) {
	g := graph.New("broken")
	require.NoError(t, g.Add(graph.Node{ID: "PublicSubnet1", Kind: graph.KindSubnet, Properties: map[string]any{
		"VpcId": intrinsics.RefTo("VPC"),
	}}))

	tmpl, err := Build(g)
	assert.Nil(t, tmpl)
	var depErr *wetwire.DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, "VPC", depErr.To)
}

func TestBuild_RejectsCycle(t *testing.T) {
	g := graph.New("cycle")
	require.NoError(t, g.Add(graph.Node{ID: "A", Kind: graph.KindSecurityGroup, Properties: map[string]any{
		"Peer": intrinsics.Attr("B", "GroupId"),
	}}))
	require.NoError(t, g.Add(graph.Node{ID: "B", Kind: graph.KindSecurityGroup, Properties: map[string]any{
		"Peer": intrinsics.Attr("A", "GroupId"),
	}}))

	_, err := Build(g)
	var cycleErr *wetwire.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
}

func TestToJSON_RoundTrip(t *testing.T) {
	tmpl := networkTemplate(t, demoConfig())

	data, err := ToJSON(tmpl)
	require.NoError(t, err)

	var back wetwire.Template
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, len(tmpl.Resources), len(back.Resources))
	assert.Equal(t, "AWS::EC2::NatGateway", back.Resources["NATGateway"].Type)
}

func TestToYAML(t *testing.T) {
	tmpl := networkTemplate(t, demoConfig())

	data, err := ToYAML(tmpl)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "2010-09-09", back["AWSTemplateFormatVersion"])
	assert.Contains(t, back["Resources"], "PrivateSubnet2")
}

func TestMarshal_UnknownFormat(t *testing.T) {
	_, err := Marshal(&wetwire.Template{}, "toml")
	assert.Error(t, err)
}
