package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-network-go"
)

func tmpl(resources map[string]wetwire.ResourceDef) *wetwire.Template {
	return &wetwire.Template{AWSTemplateFormatVersion: "2010-09-09", Resources: resources}
}

func TestValidateTemplate_Valid(t *testing.T) {
	result := ValidateTemplate(tmpl(map[string]wetwire.ResourceDef{
		"VPC": {Type: "AWS::EC2::VPC", Properties: map[string]any{
			"CidrBlock":        "10.10.0.0/16",
			"EnableDnsSupport": true,
		}},
		"PublicNACLIngress100": {Type: "AWS::EC2::NetworkAclEntry", Properties: map[string]any{
			"NetworkAclId": map[string]any{"Ref": "PublicNACL"},
			"RuleNumber":   float64(100),
			"Protocol":     float64(-1),
			"RuleAction":   "allow",
			"Egress":       false,
			"CidrBlock":    "10.10.0.0/16",
		}},
	}), Options{})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateTemplate_Errors(t *testing.T) {
	result := ValidateTemplate(tmpl(map[string]wetwire.ResourceDef{
		"Subnet": {Type: "AWS::EC2::Subnet", Properties: map[string]any{
			"CidrBlock": "10.10.0.0/24",
		}},
		"Entry": {Type: "AWS::EC2::NetworkAclEntry", Properties: map[string]any{
			"NetworkAclId": map[string]any{"Ref": "PublicNACL"},
			"RuleNumber":   "100",
			"Protocol":     float64(6),
			"RuleAction":   "reject",
		}},
		"Bad": {Type: "EC2::VPC"},
	}), Options{})

	require.False(t, result.Valid)
	assert.Equal(t, []string{
		"Bad.Type: invalid resource type format: EC2::VPC",
		"Entry.RuleAction: value \"reject\" not in allowed values: [allow deny]",
		"Entry.RuleNumber: expected type Integer, got string",
		"Subnet.VpcId: missing required property",
	}, messages(result.Errors))
}

func TestValidateTemplate_Warnings(t *testing.T) {
	resources := map[string]wetwire.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue"},
		"VPC": {Type: "AWS::EC2::VPC", Properties: map[string]any{
			"CidrBlock":       "10.10.0.0/16",
			"InstanceTenancy": "default",
		}},
	}

	result := ValidateTemplate(tmpl(resources), Options{})
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"Queue.Type: unknown resource type: AWS::SQS::Queue"}, messages(result.Warnings))

	strict := ValidateTemplate(tmpl(resources), Options{Strict: true})
	assert.Contains(t, messages(strict.Warnings), "VPC.InstanceTenancy: unknown property")
}

func TestIsIntrinsic(t *testing.T) {
	assert.True(t, isIntrinsic(map[string]any{"Ref": "VPC"}))
	assert.True(t, isIntrinsic(map[string]any{"Fn::ImportValue": "demo-VpcId"}))
	assert.False(t, isIntrinsic(map[string]any{"From": 1, "To": 2}))
	assert.False(t, isIntrinsic("VPC"))
}

func TestIsValidType(t *testing.T) {
	assert.True(t, isValidType(float64(443), "Integer"))
	assert.False(t, isValidType(1.5, "Integer"))
	assert.True(t, isValidType([]any{}, "List"))
	assert.False(t, isValidType("x", "Boolean"))
	assert.True(t, isValidType("anything", "Json"))
}

func messages(errs []Error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.String())
	}
	return out
}
