package emit

import (
	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Output names published by the network stack.
const (
	OutputVpcID                  = "VpcId"
	OutputVpcCidr                = "VpcCidr"
	OutputPublicSubnetIDs        = "PublicSubnetIds"
	OutputPrivateSubnetIDs       = "PrivateSubnetIds"
	OutputPublicRouteTableID     = "PublicRouteTableId"
	OutputPrivateRouteTableID    = "PrivateRouteTableId"
	OutputPublicSecurityGroupID  = "PublicSecurityGroupId"
	OutputPrivateSecurityGroupID = "PrivateSecurityGroupId"
)

// ExportName returns the export name of a network output.
func ExportName(network, output string) string {
	return network + "-" + output
}

// Exports is the typed hand-off downstream stacks import. An empty field
// means the network has no such output (e.g. no public tier).
type Exports struct {
	Network              string
	VpcID                string
	VpcCidr              string
	PublicSubnetIDs      string
	PrivateSubnetIDs     string
	PublicRouteTableID   string
	PrivateRouteTableID  string
	PublicSecurityGroup  string
	PrivateSecurityGroup string
}

// NewExports returns the export names a network called name publishes when
// both tiers are present.
func NewExports(name string) Exports {
	return Exports{
		Network:              name,
		VpcID:                ExportName(name, OutputVpcID),
		VpcCidr:              ExportName(name, OutputVpcCidr),
		PublicSubnetIDs:      ExportName(name, OutputPublicSubnetIDs),
		PrivateSubnetIDs:     ExportName(name, OutputPrivateSubnetIDs),
		PublicRouteTableID:   ExportName(name, OutputPublicRouteTableID),
		PrivateRouteTableID:  ExportName(name, OutputPrivateRouteTableID),
		PublicSecurityGroup:  ExportName(name, OutputPublicSecurityGroupID),
		PrivateSecurityGroup: ExportName(name, OutputPrivateSecurityGroupID),
	}
}

// ImportVpcID imports the VPC id.
func (x Exports) ImportVpcID() intrinsics.ImportValue {
	return intrinsics.ImportValue{ExportName: x.VpcID}
}

// ImportVpcCidr imports the VPC CIDR block.
func (x Exports) ImportVpcCidr() intrinsics.ImportValue {
	return intrinsics.ImportValue{ExportName: x.VpcCidr}
}

// ImportSubnetIDs imports the subnet ids of a tier as a list.
func (x Exports) ImportSubnetIDs(tier topology.Tier) intrinsics.Split {
	if tier == topology.Public {
		return intrinsics.ImportList(x.PublicSubnetIDs)
	}
	return intrinsics.ImportList(x.PrivateSubnetIDs)
}

// ImportRouteTableID imports the route table id of a tier.
func (x Exports) ImportRouteTableID(tier topology.Tier) intrinsics.ImportValue {
	if tier == topology.Public {
		return intrinsics.ImportValue{ExportName: x.PublicRouteTableID}
	}
	return intrinsics.ImportValue{ExportName: x.PrivateRouteTableID}
}

// HasTier reports whether the network published subnets for tier.
func (x Exports) HasTier(tier topology.Tier) bool {
	if tier == topology.Public {
		return x.PublicSubnetIDs != ""
	}
	return x.PrivateSubnetIDs != ""
}

func (e *emitter) output(name, description string, value any) (string, error) {
	export := ExportName(e.n.Config.Name, name)
	err := e.g.AddOutput(name, wetwire.Output{
		Description: description,
		Value:       value,
		Export:      &wetwire.Export{Name: export},
	})
	return export, err
}

func (e *emitter) outputs() (Exports, error) {
	x := Exports{Network: e.n.Config.Name}
	var err error

	if x.VpcID, err = e.output(OutputVpcID, "VPC id", intrinsics.RefTo(e.n.VPC.LogicalID)); err != nil {
		return Exports{}, err
	}
	if x.VpcCidr, err = e.output(OutputVpcCidr, "VPC CIDR block", intrinsics.Attr(e.n.VPC.LogicalID, "CidrBlock")); err != nil {
		return Exports{}, err
	}

	for _, tier := range topology.Tiers {
		subnets := e.n.SubnetsIn(tier)
		if len(subnets) == 0 {
			continue
		}
		title := tier.Title()

		subnetExport, err := e.output(title+"SubnetIds", title+" subnet ids, comma separated",
			intrinsics.Join{Delimiter: ",", Values: intrinsics.Refs(topology.SubnetIDs(subnets)...)})
		if err != nil {
			return Exports{}, err
		}

		var rtExport string
		if rt, ok := e.n.RouteTable(tier); ok {
			if rtExport, err = e.output(title+"RouteTableId", title+" route table id", intrinsics.RefTo(rt.LogicalID)); err != nil {
				return Exports{}, err
			}
		}

		var sgExport string
		if sg, ok := e.n.SecurityGroup(tier); ok {
			if sgExport, err = e.output(title+"SecurityGroupId", title+" tier security group id", intrinsics.Attr(sg.LogicalID, "GroupId")); err != nil {
				return Exports{}, err
			}
		}

		if tier == topology.Public {
			x.PublicSubnetIDs, x.PublicRouteTableID, x.PublicSecurityGroup = subnetExport, rtExport, sgExport
		} else {
			x.PrivateSubnetIDs, x.PrivateRouteTableID, x.PrivateSecurityGroup = subnetExport, rtExport, sgExport
		}
	}
	return x, nil
}
