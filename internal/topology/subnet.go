package topology

import (
	"fmt"
	"net/netip"

	"github.com/lex00/wetwire-network-go/internal/cidr"
)

// Tier classifies a subnet as internet-reachable or internal.
type Tier string

const (
	Public  Tier = "public"
	Private Tier = "private"
)

// Tiers lists every tier in build order.
var Tiers = []Tier{Public, Private}

// Title returns the tier name as used in logical ids.
func (t Tier) Title() string {
	switch t {
	case Public:
		return "Public"
	case Private:
		return "Private"
	default:
		return string(t)
	}
}

// Subnet is one subnet of the VPC.
type Subnet struct {
	LogicalID string
	CIDR      netip.Prefix
	AZ        string
	Tier      Tier
	VPC       string
	// Index is the position within the tier, from zero.
	Index int
}

// MapPublicIPOnLaunch is true for the public tier.
func (s Subnet) MapPublicIPOnLaunch() bool {
	return s.Tier == Public
}

// BuildSubnets pairs allocated blocks with zones. Zones rotate per tier, so
// PublicSubnet1 and PrivateSubnet1 share the first zone.
func BuildSubnets(vpc string, alloc cidr.Allocation, azs []string) ([]Subnet, error) {
	var subnets []Subnet
	for _, group := range []struct {
		tier   Tier
		blocks []netip.Prefix
	}{
		{Public, alloc.Public},
		{Private, alloc.Private},
	} {
		for i, block := range group.blocks {
			az, err := AssignAZ(azs, i)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", SubnetID(group.tier, i), err)
			}
			subnets = append(subnets, Subnet{
				LogicalID: SubnetID(group.tier, i),
				CIDR:      block,
				AZ:        az,
				Tier:      group.tier,
				VPC:       vpc,
				Index:     i,
			})
		}
	}
	return subnets, nil
}

// SubnetsIn filters subnets by tier, preserving order.
func SubnetsIn(subnets []Subnet, tier Tier) []Subnet {
	var out []Subnet
	for _, s := range subnets {
		if s.Tier == tier {
			out = append(out, s)
		}
	}
	return out
}

// SubnetIDs returns the logical ids of subnets, preserving order.
func SubnetIDs(subnets []Subnet) []string {
	ids := make([]string, len(subnets))
	for i, s := range subnets {
		ids[i] = s.LogicalID
	}
	return ids
}
