// Package intrinsics provides the CloudFormation intrinsic functions used by
// the network builders.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{"VPC"}                       → {"Ref": "VPC"}
//	GetAtt{"NATGatewayEIP", "AllocationId"} → {"Fn::GetAtt": ["NATGatewayEIP", "AllocationId"]}
//	ImportValue{"demo-VpcId"}        → {"Fn::ImportValue": "demo-VpcId"}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// RefTo returns a Ref to a logical id.
func RefTo(logicalID string) Ref {
	return Ref{LogicalName: logicalID}
}

// Attr returns a GetAtt on a logical id.
func Attr(logicalID, attribute string) GetAtt {
	return GetAtt{LogicalName: logicalID, Attribute: attribute}
}

// Refs returns Refs to each logical id, in order.
func Refs(logicalIDs ...string) []any {
	out := make([]any, 0, len(logicalIDs))
	for _, id := range logicalIDs {
		out = append(out, RefTo(id))
	}
	return out
}

// ImportList imports a comma-joined export as a list value.
func ImportList(exportName string) Split {
	return Split{Delimiter: ",", Source: ImportValue{ExportName: exportName}}
}

// StackName returns a Sub that prefixes suffix with the stack name.
func StackName(suffix string) Sub {
	return Sub{String: "${AWS::StackName}-" + suffix}
}
