package stacks

import (
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Logical ids of the endpoints stack.
const (
	LambdaSecurityGroupID   = "LambdaSecurityGroup"
	EndpointSecurityGroupID = "ECREndpointSecurityGroup"
	LambdaToEndpointID      = "LambdaToEndpointEgress"
	EndpointFromLambdaID    = "EndpointFromLambdaIngress"
	S3GatewayEndpointID     = "S3GatewayEndpoint"
	ECRAPIEndpointID        = "ECRApiEndpoint"
	ECRDockerEndpointID     = "ECRDkrEndpoint"
)

// EndpointsConfig selects the endpoints to create.
type EndpointsConfig struct {
	S3  bool
	ECR bool
}

// closedEgress is the placeholder rule that keeps CloudFormation from adding
// its implicit allow-all egress rule to a group that must not send traffic.
var closedEgress = map[string]any{
	"CidrIp":      "255.255.255.255/32",
	"IpProtocol":  "icmp",
	"FromPort":    252,
	"ToPort":      86,
	"Description": "Disallow all traffic",
}

// BuildEndpoints creates the Lambda and endpoint security groups and the S3
// gateway and ECR interface endpoints in the private tier.
//
// The two groups admit each other through standalone ingress and egress
// resources. Written inline, each group would reference the other and the
// graph would contain a cycle.
func BuildEndpoints(x emit.Exports, cfg EndpointsConfig) (*graph.Graph, error) {
	if err := requireTier(Endpoints, x, topology.Private); err != nil {
		return nil, err
	}
	b := newBuilder(x.Network+" VPC endpoints", x)

	allOut := emit.SecurityGroupRuleProperties(topology.SecurityGroupRule{
		Direction:   topology.Egress,
		Protocol:    topology.ProtocolAll,
		CIDR:        topology.AnyIPv4,
		Description: "Allow all outbound traffic",
	})
	b.add(LambdaSecurityGroupID, graph.KindSecurityGroup, map[string]any{
		"GroupDescription":    "Security group for Lambda functions",
		"GroupName":           b.name("lambda-sg"),
		"VpcId":               x.ImportVpcID(),
		"SecurityGroupEgress": []any{allOut},
		"Tags":                b.nameTag("lambda-sg"),
	})
	b.add(EndpointSecurityGroupID, graph.KindSecurityGroup, map[string]any{
		"GroupDescription":    "Security group for ECR VPC endpoints",
		"GroupName":           b.name("ecr-endpoint-sg"),
		"VpcId":               x.ImportVpcID(),
		"SecurityGroupEgress": []any{closedEgress},
		"Tags":                b.nameTag("ecr-endpoint-sg"),
	})

	egress := emit.SecurityGroupRuleProperties(topology.SecurityGroupRule{
		Direction:   topology.Egress,
		Protocol:    topology.ProtocolAll,
		PeerGroup:   EndpointSecurityGroupID,
		Description: "Allow all traffic to the ECR endpoints",
	})
	egress["GroupId"] = intrinsics.Attr(LambdaSecurityGroupID, "GroupId")
	b.add(LambdaToEndpointID, graph.KindSecurityGroupEgress, egress)

	ingress := emit.SecurityGroupRuleProperties(topology.SecurityGroupRule{
		Direction:   topology.Ingress,
		Protocol:    topology.ProtocolAll,
		PeerGroup:   LambdaSecurityGroupID,
		Description: "Allow all traffic from Lambda",
	})
	ingress["GroupId"] = intrinsics.Attr(EndpointSecurityGroupID, "GroupId")
	b.add(EndpointFromLambdaID, graph.KindSecurityGroupIngress, ingress)

	if cfg.S3 {
		b.add(S3GatewayEndpointID, graph.KindVPCEndpoint, map[string]any{
			"VpcId":           x.ImportVpcID(),
			"ServiceName":     intrinsics.Sub{String: "com.amazonaws.${AWS::Region}.s3"},
			"VpcEndpointType": "Gateway",
			"RouteTableIds":   []any{x.ImportRouteTableID(topology.Private)},
		})
	}
	if cfg.ECR {
		for _, ep := range []struct{ id, service string }{
			{ECRAPIEndpointID, "ecr.api"},
			{ECRDockerEndpointID, "ecr.dkr"},
		} {
			b.add(ep.id, graph.KindVPCEndpoint, map[string]any{
				"VpcId":             x.ImportVpcID(),
				"ServiceName":       intrinsics.Sub{String: "com.amazonaws.${AWS::Region}." + ep.service},
				"VpcEndpointType":   "Interface",
				"SubnetIds":         x.ImportSubnetIDs(topology.Private),
				"SecurityGroupIds":  []any{intrinsics.Attr(EndpointSecurityGroupID, "GroupId")},
				"PrivateDnsEnabled": true,
			})
		}
	}

	b.output("LambdaSecurityGroupId", "Security group for Lambda functions in the private tier",
		intrinsics.Attr(LambdaSecurityGroupID, "GroupId"))
	b.output("EndpointSecurityGroupId", "Security group guarding the ECR endpoints",
		intrinsics.Attr(EndpointSecurityGroupID, "GroupId"))

	return b.finish(Endpoints)
}
