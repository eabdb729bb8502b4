package topology

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-network-go"
)

func TestSynthesize_TwoByTwo(t *testing.T) {
	n, err := Synthesize(validConfig())
	require.NoError(t, err)

	public := n.SubnetsIn(Public)
	private := n.SubnetsIn(Private)
	require.Len(t, public, 2)
	require.Len(t, private, 2)

	assert.Equal(t, "10.10.0.0/24", public[0].CIDR.String())
	assert.Equal(t, "10.10.1.0/24", public[1].CIDR.String())
	assert.Equal(t, "10.10.10.0/24", private[0].CIDR.String())
	assert.Equal(t, "10.10.11.0/24", private[1].CIDR.String())

	assert.Equal(t, "us-east-1a", public[0].AZ)
	assert.Equal(t, "us-east-1b", public[1].AZ)
	assert.Equal(t, "us-east-1a", private[0].AZ)
	assert.Equal(t, "us-east-1b", private[1].AZ)

	assert.Equal(t, "PublicSubnet1", public[0].LogicalID)
	assert.Equal(t, "PrivateSubnet2", private[1].LogicalID)
	assert.True(t, public[0].MapPublicIPOnLaunch())
	assert.False(t, private[0].MapPublicIPOnLaunch())

	require.NotNil(t, n.InternetGateway)
	require.NotNil(t, n.NATGateway)
	assert.Equal(t, "PublicSubnet1", n.NATGateway.Subnet)
	assert.Len(t, n.NetworkACLs, 2)
	assert.Len(t, n.SecurityGroups, 2)
}

func TestSynthesize_NATDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.NATGateway = false

	n, err := Synthesize(cfg)
	require.NoError(t, err)
	assert.Nil(t, n.NATGateway)

	rt, ok := n.RouteTable(Private)
	require.True(t, ok)
	_, hasDefault := rt.DefaultRoute()
	assert.False(t, hasDefault)

	pub, ok := n.RouteTable(Public)
	require.True(t, ok)
	route, hasDefault := pub.DefaultRoute()
	require.True(t, hasDefault)
	assert.Equal(t, InternetGatewayID, route.Target)
}

func TestSynthesize_PrivateOnly(t *testing.T) {
	cfg := validConfig()
	cfg.PublicSubnets = 0
	cfg.NATGateway = false

	n, err := Synthesize(cfg)
	require.NoError(t, err)
	assert.Nil(t, n.InternetGateway)
	_, ok := n.RouteTable(Public)
	assert.False(t, ok)
	_, ok = n.NetworkACL(Public)
	assert.False(t, ok)
	_, ok = n.SecurityGroup(Public)
	assert.False(t, ok)
	assert.Len(t, n.SubnetsIn(Private), 2)
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NetworkConfig)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "empty zones",
			mutate: func(c *NetworkConfig) { c.AvailabilityZones = nil },
			check: func(t *testing.T, err error) {
				var target *wetwire.ConfigError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name: "300 subnets from a /24",
			mutate: func(c *NetworkConfig) {
				c.CIDR = "10.0.0.0/24"
				c.PublicSubnets, c.PrivateSubnets = 150, 150
			},
			check: func(t *testing.T, err error) {
				var target *wetwire.CapacityError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name:   "bad cidr",
			mutate: func(c *NetworkConfig) { c.CIDR = "10.0.0.0" },
			check: func(t *testing.T, err error) {
				var target *wetwire.ConfigError
				assert.True(t, errors.As(err, &target))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			n, err := Synthesize(cfg)
			require.Error(t, err)
			assert.Nil(t, n)
			tt.check(t, err)
		})
	}
}

func TestSynthesize_Properties(t *testing.T) {
	zoneSets := [][]string{
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
	}

	for _, zones := range zoneSets {
		for public := 0; public <= 4; public++ {
			for private := 0; private <= 4; private++ {
				if public+private == 0 {
					continue
				}
				cfg := NetworkConfig{
					Name:              "prop",
					CIDR:              "10.0.0.0/16",
					AvailabilityZones: zones,
					PublicSubnets:     public,
					PrivateSubnets:    private,
					NATGateway:        public > 0,
				}
				n, err := Synthesize(cfg)
				require.NoError(t, err)

				assert.Len(t, n.SubnetsIn(Public), public)
				assert.Len(t, n.SubnetsIn(Private), private)

				blocks := make([]netip.Prefix, 0, len(n.Subnets))
				for _, s := range n.Subnets {
					blocks = append(blocks, s.CIDR)
					assert.Equal(t, zones[s.Index%len(zones)], s.AZ)
				}
				for i := range blocks {
					for j := i + 1; j < len(blocks); j++ {
						assert.False(t, blocks[i].Overlaps(blocks[j]), "%s overlaps %s", blocks[i], blocks[j])
					}
				}

				associated := map[string]int{}
				for _, rt := range n.RouteTables {
					route, ok := rt.DefaultRoute()
					if rt.Tier == Public {
						require.True(t, ok)
						assert.Equal(t, TargetInternetGateway, route.TargetKind)
					} else if ok {
						assert.NotEqual(t, TargetInternetGateway, route.TargetKind)
					}
					for _, a := range rt.Associations {
						associated[a.Subnet]++
					}
				}
				for _, s := range n.Subnets {
					assert.Equal(t, 1, associated[s.LogicalID], s.LogicalID)
				}
			}
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	a, err := Synthesize(validConfig())
	require.NoError(t, err)
	b, err := Synthesize(validConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
