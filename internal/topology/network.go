package topology

import (
	"fmt"
	"net/netip"

	"github.com/lex00/wetwire-network-go/internal/cidr"
)

// VPC is the network container.
type VPC struct {
	LogicalID string
	CIDR      netip.Prefix
}

// InternetGateway is the VPC's internet gateway and its attachment.
type InternetGateway struct {
	LogicalID  string
	Attachment string
}

// NATGateway is a public NAT gateway with its Elastic IP.
type NATGateway struct {
	LogicalID string
	EIP       string
	Subnet    string
}

// Network is every record produced by one synthesis pass. It is built once
// and never mutated afterwards.
type Network struct {
	Config          NetworkConfig
	Zones           []string
	VPC             VPC
	InternetGateway *InternetGateway
	NATGateway      *NATGateway
	Subnets         []Subnet
	RouteTables     []RouteTable
	NetworkACLs     []NetworkACL
	SecurityGroups  []SecurityGroup
}

// Synthesize derives the whole network from cfg. It fails before producing
// anything if cfg is invalid or does not fit the VPC block.
func Synthesize(cfg NetworkConfig) (*Network, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zones, err := cfg.Zones()
	if err != nil {
		return nil, err
	}

	alloc, err := cidr.NewAllocator(cfg.CIDR, cfg.SubnetPrefixLength)
	if err != nil {
		return nil, err
	}
	blocks, err := alloc.Allocate(cfg.PublicSubnets, cfg.PrivateSubnets, cfg.PrivateOffset)
	if err != nil {
		return nil, err
	}

	n := &Network{
		Config: cfg,
		Zones:  zones,
		VPC:    VPC{LogicalID: VPCID, CIDR: alloc.Parent()},
	}
	declared := NewIDSet(VPCID)

	n.Subnets, err = BuildSubnets(VPCID, blocks, zones)
	if err != nil {
		return nil, err
	}
	for _, s := range n.Subnets {
		declared.Add(s.LogicalID)
	}

	var gw Gateways
	public := SubnetsIn(n.Subnets, Public)
	if len(public) > 0 {
		n.InternetGateway = &InternetGateway{LogicalID: InternetGatewayID, Attachment: GatewayAttachmentID}
		declared.Add(InternetGatewayID)
		declared.Add(GatewayAttachmentID)
		gw.InternetGateway = InternetGatewayID
		gw.Attachment = GatewayAttachmentID
	}
	if cfg.NATGateway {
		n.NATGateway = &NATGateway{LogicalID: NATGatewayID, EIP: NATEIPID, Subnet: public[0].LogicalID}
		declared.Add(NATEIPID)
		declared.Add(NATGatewayID)
		gw.NATGateway = NATGatewayID
	}

	n.RouteTables, err = BuildRouteTables(VPCID, n.Subnets, gw, declared)
	if err != nil {
		return nil, fmt.Errorf("building route tables: %w", err)
	}

	vpcCIDR := n.VPC.CIDR.String()
	for _, tier := range Tiers {
		if len(SubnetsIn(n.Subnets, tier)) == 0 {
			continue
		}
		acl, err := ComposeNetworkACL(VPCID, tier, vpcCIDR, n.Subnets)
		if err != nil {
			return nil, fmt.Errorf("composing %s ACL: %w", tier, err)
		}
		n.NetworkACLs = append(n.NetworkACLs, acl)
		n.SecurityGroups = append(n.SecurityGroups, ComposeSecurityGroup(VPCID, tier, vpcCIDR))
	}

	return n, nil
}

// SubnetsIn returns the subnets of one tier.
func (n *Network) SubnetsIn(tier Tier) []Subnet {
	return SubnetsIn(n.Subnets, tier)
}

// RouteTable returns the route table of a tier.
func (n *Network) RouteTable(tier Tier) (RouteTable, bool) {
	for _, rt := range n.RouteTables {
		if rt.Tier == tier {
			return rt, true
		}
	}
	return RouteTable{}, false
}

// NetworkACL returns the ACL of a tier.
func (n *Network) NetworkACL(tier Tier) (NetworkACL, bool) {
	for _, acl := range n.NetworkACLs {
		if acl.Tier == tier {
			return acl, true
		}
	}
	return NetworkACL{}, false
}

// SecurityGroup returns the default security group of a tier.
func (n *Network) SecurityGroup(tier Tier) (SecurityGroup, bool) {
	for _, sg := range n.SecurityGroups {
		if sg.Tier == tier {
			return sg, true
		}
	}
	return SecurityGroup{}, false
}
