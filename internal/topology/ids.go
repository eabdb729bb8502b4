package topology

import "fmt"

// Logical ids of the singleton network resources.
const (
	VPCID               = "VPC"
	InternetGatewayID   = "InternetGateway"
	GatewayAttachmentID = "IGWAttachment"
	NATEIPID            = "NATGatewayEIP"
	NATGatewayID        = "NATGateway"
)

// SubnetID names the i-th subnet of a tier, counting from zero: PublicSubnet1.
func SubnetID(tier Tier, i int) string {
	return fmt.Sprintf("%sSubnet%d", tier.Title(), i+1)
}

// RouteTableID names the route table of a tier.
func RouteTableID(tier Tier) string {
	return tier.Title() + "RouteTable"
}

// DefaultRouteID names the 0.0.0.0/0 route of a tier.
func DefaultRouteID(tier Tier) string {
	return tier.Title() + "Route"
}

// RouteTableAssociationID names the route table association of a subnet.
func RouteTableAssociationID(tier Tier, i int) string {
	return fmt.Sprintf("%sSubnetRTAssoc%d", tier.Title(), i+1)
}

// NetworkACLID names the ACL of a tier.
func NetworkACLID(tier Tier) string {
	return tier.Title() + "NACL"
}

// ACLEntryID names one ACL entry by direction and rule number.
func ACLEntryID(tier Tier, dir Direction, number int) string {
	return fmt.Sprintf("%s%s%d", NetworkACLID(tier), dir.Title(), number)
}

// ACLAssociationID names the ACL association of a subnet.
func ACLAssociationID(tier Tier, i int) string {
	return fmt.Sprintf("%sSubnetNACLAssoc%d", tier.Title(), i+1)
}

// SecurityGroupID names the default security group of a tier.
func SecurityGroupID(tier Tier) string {
	return tier.Title() + "SecurityGroup"
}
