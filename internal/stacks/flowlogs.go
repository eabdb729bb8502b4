package stacks

import (
	"fmt"
	"slices"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Logical ids of the flow logs stack.
const (
	FlowLogGroupID = "VPCFlowLogsLogGroup"
	FlowLogRoleID  = "VPCFlowLogsRole"
	FlowLogID      = "VPCFlowLog"
)

// FlowLogsConfig configures VPC flow logs delivered to CloudWatch Logs.
type FlowLogsConfig struct {
	// RetentionDays defaults to 7.
	RetentionDays int
	// TrafficType is ALL, ACCEPT or REJECT. Defaults to ALL.
	TrafficType string
}

// retentionDays are the values CloudWatch Logs accepts.
var retentionDays = []int{1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400, 545, 731, 1096, 1827, 2192, 2557, 2922, 3288, 3653}

var trafficTypes = []string{"ALL", "ACCEPT", "REJECT"}

func (c FlowLogsConfig) withDefaults() FlowLogsConfig {
	if c.RetentionDays == 0 {
		c.RetentionDays = 7
	}
	if c.TrafficType == "" {
		c.TrafficType = "ALL"
	}
	return c
}

func (c FlowLogsConfig) validate() error {
	if !slices.Contains(retentionDays, c.RetentionDays) {
		return &wetwire.ConfigError{Field: "flow_logs.retention_days", Reason: fmt.Sprintf("%d is not a CloudWatch Logs retention period", c.RetentionDays)}
	}
	if !slices.Contains(trafficTypes, c.TrafficType) {
		return &wetwire.ConfigError{Field: "flow_logs.traffic_type", Reason: fmt.Sprintf("%q must be one of %v", c.TrafficType, trafficTypes)}
	}
	return nil
}

// BuildFlowLogs captures the VPC's traffic into a log group.
func BuildFlowLogs(x emit.Exports, cfg FlowLogsConfig) (*graph.Graph, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := newBuilder(x.Network+" VPC flow logs", x)

	b.add(FlowLogGroupID, graph.KindLogGroup, map[string]any{
		"LogGroupName":    "/aws/vpc/flowlogs/" + x.Network,
		"RetentionInDays": cfg.RetentionDays,
	})
	b.add(FlowLogRoleID, graph.KindIAMRole, map[string]any{
		"Description":              "Role for VPC Flow Logs to write to CloudWatch",
		"AssumeRolePolicyDocument": intrinsics.AssumeRole(intrinsics.ServicePrincipal{"vpc-flow-logs.amazonaws.com"}),
		"Policies": []any{map[string]any{
			"PolicyName": "flow-logs-delivery",
			"PolicyDocument": intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect: "Allow",
				Action: []string{
					"logs:CreateLogStream",
					"logs:PutLogEvents",
					"logs:DescribeLogGroups",
					"logs:DescribeLogStreams",
				},
				Resource: intrinsics.Attr(FlowLogGroupID, "Arn"),
			}),
		}},
	})
	b.add(FlowLogID, graph.KindFlowLog, map[string]any{
		"ResourceId":               x.ImportVpcID(),
		"ResourceType":             "VPC",
		"TrafficType":              cfg.TrafficType,
		"LogDestinationType":       "cloud-watch-logs",
		"LogDestination":           intrinsics.Attr(FlowLogGroupID, "Arn"),
		"DeliverLogsPermissionArn": intrinsics.Attr(FlowLogRoleID, "Arn"),
		"Tags":                     b.nameTag("flow-log"),
	})

	b.output("FlowLogGroupName", "Log group receiving VPC flow logs", intrinsics.RefTo(FlowLogGroupID))

	return b.finish(FlowLogs)
}
