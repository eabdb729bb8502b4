package intrinsics

import (
	"encoding/json"
)

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version and the
// given statements.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
}

// AssumeRole returns a trust policy letting principal assume a role.
func AssumeRole(principal any) PolicyDocument {
	return NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: principal,
		Action:    "sts:AssumeRole",
	})
}

// ServicePrincipal represents a service principal (e.g. eks.amazonaws.com).
// Serializes to {"Service": ...}.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// AWSPrincipal represents an account, role or user principal.
// Serializes to {"AWS": ...}.
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"AWS": p[0]})
	}
	return json.Marshal(map[string]any{"AWS": []any(p)})
}

// AccountRoot is the principal for the root of the deploying account.
func AccountRoot() AWSPrincipal {
	return AWSPrincipal{Sub{String: "arn:${AWS::Partition}:iam::${AWS::AccountId}:root"}}
}

// ManagedPolicyArn returns the ARN of an AWS managed policy.
func ManagedPolicyArn(name string) Sub {
	return Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + name}
}
