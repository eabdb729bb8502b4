package topology

import (
	wetwire "github.com/lex00/wetwire-network-go"
)

// DefaultDestination is the IPv4 default route.
const DefaultDestination = "0.0.0.0/0"

// TargetKind is the kind of resource a route points at.
type TargetKind string

const (
	TargetInternetGateway TargetKind = "internet-gateway"
	TargetNATGateway      TargetKind = "nat-gateway"
)

// Route sends Destination to Target.
type Route struct {
	LogicalID   string
	Destination string
	Target      string
	TargetKind  TargetKind
	// DependsOn lists ids the route must wait for beyond its references.
	DependsOn []string
}

// Association binds one subnet to a route table or ACL.
type Association struct {
	LogicalID string
	Subnet    string
	Parent    string
}

// RouteTable is the single route table of a tier.
type RouteTable struct {
	LogicalID    string
	VPC          string
	Tier         Tier
	Routes       []Route
	Associations []Association
}

// DefaultRoute returns the 0.0.0.0/0 route, if any.
func (rt RouteTable) DefaultRoute() (Route, bool) {
	for _, r := range rt.Routes {
		if r.Destination == DefaultDestination {
			return r, true
		}
	}
	return Route{}, false
}

// Gateways names the gateways provisioned for a VPC. Empty means absent.
type Gateways struct {
	InternetGateway string
	// Attachment is the VPCGatewayAttachment a default route to the
	// internet gateway must wait for.
	Attachment string
	NATGateway string
}

// IDSet is a set of declared logical ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// BuildRouteTables creates one route table per tier that has subnets and
// associates each subnet with it. The public table always routes to the
// internet gateway; the private table routes to the NAT gateway only when
// one is provisioned. Every gateway referenced must be in declared.
func BuildRouteTables(vpc string, subnets []Subnet, gw Gateways, declared IDSet) ([]RouteTable, error) {
	var tables []RouteTable
	for _, tier := range Tiers {
		members := SubnetsIn(subnets, tier)
		if len(members) == 0 {
			continue
		}

		rt := RouteTable{
			LogicalID: RouteTableID(tier),
			VPC:       vpc,
			Tier:      tier,
		}

		switch tier {
		case Public:
			if gw.InternetGateway == "" || !declared.Has(gw.InternetGateway) {
				return nil, &wetwire.DependencyError{From: DefaultRouteID(tier), To: gw.InternetGateway, Reason: "internet gateway not in graph"}
			}
			route := Route{
				LogicalID:   DefaultRouteID(tier),
				Destination: DefaultDestination,
				Target:      gw.InternetGateway,
				TargetKind:  TargetInternetGateway,
			}
			if gw.Attachment != "" {
				if !declared.Has(gw.Attachment) {
					return nil, &wetwire.DependencyError{From: route.LogicalID, To: gw.Attachment, Reason: "gateway attachment not in graph"}
				}
				route.DependsOn = []string{gw.Attachment}
			}
			rt.Routes = append(rt.Routes, route)
		case Private:
			if gw.NATGateway != "" {
				if !declared.Has(gw.NATGateway) {
					return nil, &wetwire.DependencyError{From: DefaultRouteID(tier), To: gw.NATGateway, Reason: "NAT gateway not in graph"}
				}
				rt.Routes = append(rt.Routes, Route{
					LogicalID:   DefaultRouteID(tier),
					Destination: DefaultDestination,
					Target:      gw.NATGateway,
					TargetKind:  TargetNATGateway,
				})
			}
		}

		for _, s := range members {
			rt.Associations = append(rt.Associations, Association{
				LogicalID: RouteTableAssociationID(tier, s.Index),
				Subnet:    s.LogicalID,
				Parent:    rt.LogicalID,
			})
		}
		tables = append(tables, rt)
	}
	return tables, nil
}
