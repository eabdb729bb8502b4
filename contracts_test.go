package wetwire_network

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplate_JSON(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "network",
		Resources: map[string]ResourceDef{
			"VPC": {
				Type:       "AWS::EC2::VPC",
				Properties: map[string]any{"CidrBlock": "10.10.0.0/16"},
			},
		},
		Outputs: map[string]Output{
			"VpcId": {
				Value:  map[string]any{"Ref": "VPC"},
				Export: &Export{Name: "demo-VpcId"},
			},
		},
	}

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Description": "network",
		"Resources": {"VPC": {"Type": "AWS::EC2::VPC", "Properties": {"CidrBlock": "10.10.0.0/16"}}},
		"Outputs": {"VpcId": {"Value": {"Ref": "VPC"}, "Export": {"Name": "demo-VpcId"}}}
	}`, string(data))
}

func TestResourceDef_DependsOnOmitted(t *testing.T) {
	data, err := json.Marshal(ResourceDef{Type: "AWS::EC2::InternetGateway"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "DependsOn")
	assert.NotContains(t, string(data), "Properties")
}

func TestTemplate_YAMLTags(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"Route": {Type: "AWS::EC2::Route", DependsOn: []string{"IGWAttachment"}},
		},
	}
	data, err := yaml.Marshal(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AWSTemplateFormatVersion: \"2010-09-09\"")
	assert.Contains(t, string(data), "DependsOn:")
	assert.NotContains(t, string(data), "Outputs")
}

func TestErrors_As(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"config", &ConfigError{Field: "availability_zones", Reason: "empty"}, func(err error) bool {
			var target *ConfigError
			return errors.As(err, &target)
		}},
		{"capacity", &CapacityError{Parent: "10.0.0.0/24", PrefixLength: 24, Requested: 1, Available: 1}, func(err error) bool {
			var target *CapacityError
			return errors.As(err, &target)
		}},
		{"dependency", &DependencyError{From: "PublicRoute", To: "IGW"}, func(err error) bool {
			var target *DependencyError
			return errors.As(err, &target)
		}},
		{"cycle", &CycleError{Path: []string{"A", "B", "A"}}, func(err error) bool {
			var target *CycleError
			return errors.As(err, &target)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("synthesizing network: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "invalid configuration: network.cidr: not an IPv4 CIDR",
		(&ConfigError{Field: "network.cidr", Reason: "not an IPv4 CIDR"}).Error())
	assert.Equal(t, "invalid configuration: zero subnets requested",
		(&ConfigError{Reason: "zero subnets requested"}).Error())
	assert.Equal(t, "unresolved reference: PublicRoute -> IGW",
		(&DependencyError{From: "PublicRoute", To: "IGW"}).Error())
	assert.Contains(t, (&CycleError{Path: []string{"A", "B", "A"}}).Error(), "A\n    → B")
	assert.Contains(t, (&CapacityError{Parent: "10.0.0.0/24", PrefixLength: 24, Requested: 10, Available: 1}).Error(), "capacity 1")
}
