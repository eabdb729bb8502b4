package ack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/lex00/wetwire-network-go/internal/topology"
)

func network(t *testing.T, nat bool) *topology.Network {
	t.Helper()
	n, err := topology.Synthesize(topology.NetworkConfig{
		Name:              "Demo",
		CIDR:              "10.10.0.0/16",
		AvailabilityZones: []string{"us-east-1a", "us-east-1b"},
		PublicSubnets:     2,
		PrivateSubnets:    2,
		NATGateway:        nat,
		Tags:              map[string]string{"Team": "net"},
	})
	require.NoError(t, err)
	return n
}

func kinds(objs []any) []string {
	var out []string
	for _, o := range objs {
		switch o.(type) {
		case *VPC:
			out = append(out, "VPC")
		case *InternetGateway:
			out = append(out, "InternetGateway")
		case *Subnet:
			out = append(out, "Subnet")
		case *ElasticIPAddress:
			out = append(out, "ElasticIPAddress")
		case *NATGateway:
			out = append(out, "NATGateway")
		case *RouteTable:
			out = append(out, "RouteTable")
		case *NetworkACL:
			out = append(out, "NetworkACL")
		case *SecurityGroup:
			out = append(out, "SecurityGroup")
		}
	}
	return out
}

func TestResourceName(t *testing.T) {
	tests := map[string]string{
		"VPC":                 "demo-vpc",
		"PublicSubnet1":       "demo-public-subnet1",
		"NATGatewayEIP":       "demo-nat-gateway-eip",
		"PrivateNACL":         "demo-private-nacl",
		"PublicSecurityGroup": "demo-public-security-group",
		"InternetGateway":     "demo-internet-gateway",
		"PrivateRouteTable":   "demo-private-route-table",
	}
	for id, want := range tests {
		assert.Equal(t, want, ResourceName("Demo", id), id)
	}
}

func TestManifests_Order(t *testing.T) {
	objs, err := Manifests(network(t, true), Options{Namespace: "ack-system"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"VPC", "InternetGateway",
		"Subnet", "Subnet", "Subnet", "Subnet",
		"ElasticIPAddress", "NATGateway",
		"RouteTable", "RouteTable",
		"NetworkACL", "NetworkACL",
		"SecurityGroup", "SecurityGroup",
	}, kinds(objs))

	vpc := objs[0].(*VPC)
	assert.Equal(t, APIVersion, vpc.APIVersion)
	assert.Equal(t, "VPC", vpc.Kind)
	assert.Equal(t, "ack-system", vpc.Namespace)
	assert.Equal(t, "VPC", vpc.Annotations["wetwire.network/logical-id"])
	assert.Equal(t, []string{"10.10.0.0/16"}, vpc.Spec.CIDRBlocks)
	assert.Equal(t, []Tag{{Key: "Name", Value: "Demo-vpc"}, {Key: "Team", Value: "net"}}, vpc.Spec.Tags)
}

func TestManifests_SubnetsAndRoutes(t *testing.T) {
	objs, err := Manifests(network(t, true), Options{})
	require.NoError(t, err)

	pub := objs[2].(*Subnet)
	assert.Equal(t, "demo-public-subnet1", pub.Name)
	assert.Equal(t, "10.10.0.0/24", pub.Spec.CIDRBlock)
	assert.Equal(t, "us-east-1a", pub.Spec.AvailabilityZone)
	assert.True(t, pub.Spec.MapPublicIPOnLaunch)
	assert.Equal(t, "demo-vpc", pub.Spec.VPCRef.From.Name)
	assert.Equal(t, []Reference{*ref("demo-public-route-table")}, pub.Spec.RouteTableRefs)

	priv := objs[4].(*Subnet)
	assert.Equal(t, "10.10.10.0/24", priv.Spec.CIDRBlock)
	assert.False(t, priv.Spec.MapPublicIPOnLaunch)
	assert.Equal(t, []Reference{*ref("demo-private-route-table")}, priv.Spec.RouteTableRefs)

	nat := objs[7].(*NATGateway)
	assert.Equal(t, "demo-nat-gateway-eip", nat.Spec.AllocationRef.From.Name)
	assert.Equal(t, "demo-public-subnet1", nat.Spec.SubnetRef.From.Name)

	publicRT := objs[8].(*RouteTable)
	require.Len(t, publicRT.Spec.Routes, 1)
	assert.Equal(t, "0.0.0.0/0", publicRT.Spec.Routes[0].DestinationCIDRBlock)
	assert.Equal(t, "demo-internet-gateway", publicRT.Spec.Routes[0].GatewayRef.From.Name)
	assert.Nil(t, publicRT.Spec.Routes[0].NATGatewayRef)

	privateRT := objs[9].(*RouteTable)
	require.Len(t, privateRT.Spec.Routes, 1)
	assert.Equal(t, "demo-nat-gateway", privateRT.Spec.Routes[0].NATGatewayRef.From.Name)
}

func TestManifests_NoNAT(t *testing.T) {
	objs, err := Manifests(network(t, false), Options{})
	require.NoError(t, err)

	assert.NotContains(t, kinds(objs), "NATGateway")
	assert.NotContains(t, kinds(objs), "ElasticIPAddress")
	for _, o := range objs {
		if rt, ok := o.(*RouteTable); ok && strings.Contains(rt.Name, "private") {
			assert.Empty(t, rt.Spec.Routes)
		}
	}
}

func TestManifests_ACLAndSecurityGroups(t *testing.T) {
	objs, err := Manifests(network(t, true), Options{})
	require.NoError(t, err)

	var acls []*NetworkACL
	var groups []*SecurityGroup
	for _, o := range objs {
		switch v := o.(type) {
		case *NetworkACL:
			acls = append(acls, v)
		case *SecurityGroup:
			groups = append(groups, v)
		}
	}
	require.Len(t, acls, 2)
	require.Len(t, groups, 2)

	public := acls[0]
	assert.Len(t, public.Spec.Associations, 2)
	var ephemeral *NetworkACLEntry
	for i, e := range public.Spec.Entries {
		if e.RuleNumber == 500 && !e.Egress {
			ephemeral = &public.Spec.Entries[i]
		}
	}
	require.NotNil(t, ephemeral)
	assert.Equal(t, &PortRange{From: 1024, To: 65535}, ephemeral.PortRange)
	assert.Equal(t, "6", ephemeral.Protocol)
	assert.Equal(t, "allow", ephemeral.RuleAction)

	for _, sg := range groups {
		for _, p := range sg.Spec.IngressRules {
			if p.FromPort != nil {
				assert.NotEqual(t, int64(1024), *p.FromPort, "security groups need no ephemeral rule")
			}
		}
	}
	assert.Equal(t, "tcp", groups[0].Spec.IngressRules[0].IPProtocol)
	assert.Equal(t, "-1", groups[1].Spec.IngressRules[0].IPProtocol)
	assert.Nil(t, groups[1].Spec.IngressRules[0].FromPort)
	assert.Equal(t, "10.10.0.0/16", groups[1].Spec.IngressRules[0].IPRanges[0].CIDRIP)
}

func TestMarshal(t *testing.T) {
	objs, err := Manifests(network(t, true), Options{Namespace: "ack-system"})
	require.NoError(t, err)

	data, err := Marshal(objs)
	require.NoError(t, err)

	docs := strings.Split(string(data), "---\n")
	require.Len(t, docs, len(objs))

	var first map[string]any
	require.NoError(t, sigsyaml.Unmarshal([]byte(docs[0]), &first))
	assert.Equal(t, APIVersion, first["apiVersion"])
	assert.Equal(t, "VPC", first["kind"])
	meta := first["metadata"].(map[string]any)
	assert.Equal(t, "demo-vpc", meta["name"])
	spec := first["spec"].(map[string]any)
	assert.Equal(t, true, spec["enableDNSSupport"])

	again, err := Marshal(objs)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
