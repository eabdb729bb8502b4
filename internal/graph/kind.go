package graph

import "strings"

// Kind is the CloudFormation resource type of a node. Each kind is one
// variant of the graph's node union; Properties carry the variant's payload.
type Kind string

const (
	KindVPC                         Kind = "AWS::EC2::VPC"
	KindSubnet                      Kind = "AWS::EC2::Subnet"
	KindInternetGateway             Kind = "AWS::EC2::InternetGateway"
	KindGatewayAttachment           Kind = "AWS::EC2::VPCGatewayAttachment"
	KindEIP                         Kind = "AWS::EC2::EIP"
	KindNATGateway                  Kind = "AWS::EC2::NatGateway"
	KindRouteTable                  Kind = "AWS::EC2::RouteTable"
	KindRoute                       Kind = "AWS::EC2::Route"
	KindSubnetRouteTableAssociation Kind = "AWS::EC2::SubnetRouteTableAssociation"
	KindNetworkACL                  Kind = "AWS::EC2::NetworkAcl"
	KindNetworkACLEntry             Kind = "AWS::EC2::NetworkAclEntry"
	KindSubnetNetworkACLAssociation Kind = "AWS::EC2::SubnetNetworkAclAssociation"
	KindSecurityGroup               Kind = "AWS::EC2::SecurityGroup"
	KindSecurityGroupIngress        Kind = "AWS::EC2::SecurityGroupIngress"
	KindSecurityGroupEgress         Kind = "AWS::EC2::SecurityGroupEgress"
	KindVPCEndpoint                 Kind = "AWS::EC2::VPCEndpoint"
	KindFlowLog                     Kind = "AWS::EC2::FlowLog"
	KindLogGroup                    Kind = "AWS::Logs::LogGroup"
	KindIAMRole                     Kind = "AWS::IAM::Role"
	KindEKSCluster                  Kind = "AWS::EKS::Cluster"
	KindEKSNodegroup                Kind = "AWS::EKS::Nodegroup"
	KindEKSAddon                    Kind = "AWS::EKS::Addon"
	KindEKSAccessEntry              Kind = "AWS::EKS::AccessEntry"
	KindSecret                      Kind = "AWS::SecretsManager::Secret"
)

// Service returns the service segment, e.g. "EC2".
func (k Kind) Service() string {
	parts := strings.Split(string(k), "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

// Short returns the type segment, e.g. "Subnet".
func (k Kind) Short() string {
	parts := strings.Split(string(k), "::")
	return parts[len(parts)-1]
}
