package topology

import (
	"fmt"
	"sort"
)

// AnyIPv4 matches every IPv4 address.
const AnyIPv4 = "0.0.0.0/0"

// Direction of a traffic rule.
type Direction string

const (
	Ingress Direction = "ingress"
	Egress  Direction = "egress"
)

// Title returns the direction as used in logical ids.
func (d Direction) Title() string {
	if d == Egress {
		return "Egress"
	}
	return "Ingress"
}

// Action of an ACL rule.
type Action string

const (
	Allow Action = "allow"
	Deny  Action = "deny"
)

// Protocol is an IP protocol number as ACL entries spell it.
type Protocol string

const (
	ProtocolAll  Protocol = "-1"
	ProtocolICMP Protocol = "1"
	ProtocolTCP  Protocol = "6"
	ProtocolUDP  Protocol = "17"
)

// Name returns the protocol name security group rules use.
func (p Protocol) Name() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	case ProtocolICMP:
		return "icmp"
	default:
		return "-1"
	}
}

// PortRange is an inclusive port range. The zero value means all ports.
type PortRange struct {
	From int
	To   int
}

// Port returns a single-port range.
func Port(p int) PortRange {
	return PortRange{From: p, To: p}
}

// EphemeralPorts is the return-traffic range stateless ACLs must admit.
var EphemeralPorts = PortRange{From: 1024, To: 65535}

// IsAll reports whether r covers every port.
func (r PortRange) IsAll() bool {
	return r == PortRange{}
}

// Category groups rules into numbering bands.
type Category int

const (
	CategoryVPC Category = iota
	CategoryWeb
	CategoryAdmin
	CategoryDNS
	CategoryEphemeral
	CategoryAllTraffic
)

// Rule numbers live in a fixed band per category. Within a band, rules are
// numbered Base, Base+RuleStep, ... so a rule can later be inserted between
// two neighbours without renumbering either.
const (
	BandWidth = 100
	RuleStep  = 10
)

var bandBase = map[Category]int{
	CategoryVPC:        100,
	CategoryWeb:        200,
	CategoryAdmin:      300,
	CategoryDNS:        400,
	CategoryEphemeral:  500,
	CategoryAllTraffic: 900,
}

// BandBase returns the first rule number of a category.
func BandBase(c Category) int {
	return bandBase[c]
}

// CategoryOf returns the category whose band contains number.
func CategoryOf(number int) (Category, bool) {
	for c, base := range bandBase {
		if number >= base && number < base+BandWidth {
			return c, true
		}
	}
	return 0, false
}

// AclRule is one NACL entry.
type AclRule struct {
	Number    int
	Direction Direction
	Protocol  Protocol
	Ports     PortRange
	CIDR      string
	Action    Action
	Category  Category
	Name      string
}

// NetworkACL is the stateless filter shared by every subnet of a tier.
type NetworkACL struct {
	LogicalID    string
	VPC          string
	Tier         Tier
	Ingress      []AclRule
	Egress       []AclRule
	Associations []Association
}

// Rules returns ingress then egress rules.
func (n NetworkACL) Rules() []AclRule {
	return append(append([]AclRule{}, n.Ingress...), n.Egress...)
}

// SecurityGroupRule is one stateful rule. Exactly one of CIDR or PeerGroup
// selects the remote side.
type SecurityGroupRule struct {
	Direction   Direction
	Protocol    Protocol
	Ports       PortRange
	CIDR        string
	PeerGroup   string
	Description string
}

// SecurityGroup is a stateful instance-level filter.
type SecurityGroup struct {
	LogicalID   string
	VPC         string
	Tier        Tier
	Description string
	Ingress     []SecurityGroupRule
	Egress      []SecurityGroupRule
}

type peer int

const (
	peerAny peer = iota
	peerVPC
)

// ruleSpec is one line of a tier policy, before numbering.
type ruleSpec struct {
	category Category
	name     string
	protocol Protocol
	ports    PortRange
	peer     peer
}

func (r ruleSpec) cidr(vpcCIDR string) string {
	if r.peer == peerVPC {
		return vpcCIDR
	}
	return AnyIPv4
}

// tierPolicy returns the default allow rules of a tier.
func tierPolicy(tier Tier) (ingress, egress []ruleSpec) {
	switch tier {
	case Public:
		// The VPC rule admits private-tier traffic bound for the NAT gateway.
		ingress = []ruleSpec{
			{CategoryVPC, "VPC", ProtocolAll, PortRange{}, peerVPC},
			{CategoryWeb, "HTTP", ProtocolTCP, Port(80), peerAny},
			{CategoryWeb, "HTTPS", ProtocolTCP, Port(443), peerAny},
			{CategoryAdmin, "SSH", ProtocolTCP, Port(22), peerAny},
			{CategoryEphemeral, "Ephemeral", ProtocolTCP, EphemeralPorts, peerAny},
			{CategoryEphemeral, "EphemeralUDP", ProtocolUDP, EphemeralPorts, peerAny},
		}
		egress = []ruleSpec{
			{CategoryAllTraffic, "AllTraffic", ProtocolAll, PortRange{}, peerAny},
		}
	case Private:
		ingress = []ruleSpec{
			{CategoryVPC, "VPC", ProtocolAll, PortRange{}, peerVPC},
			{CategoryEphemeral, "Ephemeral", ProtocolTCP, EphemeralPorts, peerAny},
			{CategoryEphemeral, "EphemeralUDP", ProtocolUDP, EphemeralPorts, peerAny},
		}
		egress = []ruleSpec{
			{CategoryVPC, "VPC", ProtocolAll, PortRange{}, peerVPC},
			{CategoryWeb, "HTTP", ProtocolTCP, Port(80), peerAny},
			{CategoryWeb, "HTTPS", ProtocolTCP, Port(443), peerAny},
			{CategoryDNS, "DNS", ProtocolUDP, Port(53), peerAny},
		}
	}
	return ingress, egress
}

// numberRules assigns band numbers in policy order and returns the rules
// sorted ascending.
func numberRules(dir Direction, specs []ruleSpec, vpcCIDR string) ([]AclRule, error) {
	used := make(map[Category]int)
	rules := make([]AclRule, 0, len(specs))
	for _, spec := range specs {
		offset := used[spec.category] * RuleStep
		if offset >= BandWidth {
			return nil, fmt.Errorf("%s band of category %d is full", dir, spec.category)
		}
		used[spec.category]++
		rules = append(rules, AclRule{
			Number:    BandBase(spec.category) + offset,
			Direction: dir,
			Protocol:  spec.protocol,
			Ports:     spec.ports,
			CIDR:      spec.cidr(vpcCIDR),
			Action:    Allow,
			Category:  spec.category,
			Name:      spec.name,
		})
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Number < rules[j].Number })
	return rules, nil
}

// ComposeNetworkACL builds the ACL of a tier and associates every subnet of
// that tier with it. ACLs are stateless, so ingress always admits ephemeral
// return traffic.
func ComposeNetworkACL(vpc string, tier Tier, vpcCIDR string, subnets []Subnet) (NetworkACL, error) {
	ingressSpecs, egressSpecs := tierPolicy(tier)
	ingress, err := numberRules(Ingress, ingressSpecs, vpcCIDR)
	if err != nil {
		return NetworkACL{}, err
	}
	egress, err := numberRules(Egress, egressSpecs, vpcCIDR)
	if err != nil {
		return NetworkACL{}, err
	}

	acl := NetworkACL{
		LogicalID: NetworkACLID(tier),
		VPC:       vpc,
		Tier:      tier,
		Ingress:   ingress,
		Egress:    egress,
	}
	for _, s := range SubnetsIn(subnets, tier) {
		acl.Associations = append(acl.Associations, Association{
			LogicalID: ACLAssociationID(tier, s.Index),
			Subnet:    s.LogicalID,
			Parent:    acl.LogicalID,
		})
	}
	return acl, nil
}

// ComposeSecurityGroup builds the default security group of a tier from the
// same policy as its ACL. Security groups track connections, so the
// ephemeral return rule is dropped and outbound traffic is allowed wholesale.
func ComposeSecurityGroup(vpc string, tier Tier, vpcCIDR string) SecurityGroup {
	ingressSpecs, _ := tierPolicy(tier)

	sg := SecurityGroup{
		LogicalID:   SecurityGroupID(tier),
		VPC:         vpc,
		Tier:        tier,
		Description: fmt.Sprintf("Default %s tier security group", tier),
	}
	for _, spec := range ingressSpecs {
		if spec.category == CategoryEphemeral {
			continue
		}
		sg.Ingress = append(sg.Ingress, SecurityGroupRule{
			Direction:   Ingress,
			Protocol:    spec.protocol,
			Ports:       spec.ports,
			CIDR:        spec.cidr(vpcCIDR),
			Description: spec.name,
		})
	}
	sg.Egress = []SecurityGroupRule{{
		Direction:   Egress,
		Protocol:    ProtocolAll,
		CIDR:        AnyIPv4,
		Description: "AllTraffic",
	}}
	return sg
}
