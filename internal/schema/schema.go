// Package schema checks synthesized templates offline against the resource
// types the synthesizer emits: required properties, property value types and
// enumerated values.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/graph"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Error is one schema violation.
type Error struct {
	Resource string
	Property string
	Message  string
}

func (e Error) String() string {
	if e.Property == "" {
		return e.Resource + ": " + e.Message
	}
	return e.Resource + "." + e.Property + ": " + e.Message
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// ResourceSchema lists what a resource type requires.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema constrains one property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

var (
	tString = PropertySchema{Type: "String"}
	tInt    = PropertySchema{Type: "Integer"}
	tBool   = PropertySchema{Type: "Boolean"}
	tList   = PropertySchema{Type: "List"}
	tMap    = PropertySchema{Type: "Map"}
	tJSON   = PropertySchema{Type: "Json"}
)

func enum(values ...string) PropertySchema {
	return PropertySchema{Type: "String", AllowedValues: values}
}

// resourceSchemas covers every kind the synthesizer emits.
var resourceSchemas = map[graph.Kind]ResourceSchema{
	graph.KindVPC: {
		Required:   []string{"CidrBlock"},
		Properties: map[string]PropertySchema{"CidrBlock": tString, "EnableDnsSupport": tBool, "EnableDnsHostnames": tBool, "Tags": tList},
	},
	graph.KindSubnet: {
		Required:   []string{"VpcId", "CidrBlock"},
		Properties: map[string]PropertySchema{"VpcId": tString, "CidrBlock": tString, "AvailabilityZone": tString, "MapPublicIpOnLaunch": tBool, "Tags": tList},
	},
	graph.KindInternetGateway: {
		Properties: map[string]PropertySchema{"Tags": tList},
	},
	graph.KindGatewayAttachment: {
		Required:   []string{"VpcId"},
		Properties: map[string]PropertySchema{"VpcId": tString, "InternetGatewayId": tString},
	},
	graph.KindEIP: {
		Properties: map[string]PropertySchema{"Domain": enum("vpc", "standard"), "Tags": tList},
	},
	graph.KindNATGateway: {
		Required:   []string{"SubnetId"},
		Properties: map[string]PropertySchema{"AllocationId": tString, "SubnetId": tString, "Tags": tList},
	},
	graph.KindRouteTable: {
		Required:   []string{"VpcId"},
		Properties: map[string]PropertySchema{"VpcId": tString, "Tags": tList},
	},
	graph.KindRoute: {
		Required:   []string{"RouteTableId"},
		Properties: map[string]PropertySchema{"RouteTableId": tString, "DestinationCidrBlock": tString, "GatewayId": tString, "NatGatewayId": tString},
	},
	graph.KindSubnetRouteTableAssociation: {
		Required:   []string{"SubnetId", "RouteTableId"},
		Properties: map[string]PropertySchema{"SubnetId": tString, "RouteTableId": tString},
	},
	graph.KindNetworkACL: {
		Required:   []string{"VpcId"},
		Properties: map[string]PropertySchema{"VpcId": tString, "Tags": tList},
	},
	graph.KindNetworkACLEntry: {
		Required: []string{"NetworkAclId", "RuleNumber", "Protocol", "RuleAction"},
		Properties: map[string]PropertySchema{
			"NetworkAclId": tString,
			"RuleNumber":   tInt,
			"Protocol":     tInt,
			"RuleAction":   enum("allow", "deny"),
			"Egress":       tBool,
			"CidrBlock":    tString,
			"PortRange":    tMap,
			"Icmp":         tMap,
		},
	},
	graph.KindSubnetNetworkACLAssociation: {
		Required:   []string{"SubnetId", "NetworkAclId"},
		Properties: map[string]PropertySchema{"SubnetId": tString, "NetworkAclId": tString},
	},
	graph.KindSecurityGroup: {
		Required: []string{"GroupDescription"},
		Properties: map[string]PropertySchema{
			"GroupDescription":     tString,
			"VpcId":                tString,
			"SecurityGroupIngress": tList,
			"SecurityGroupEgress":  tList,
			"Tags":                 tList,
		},
	},
	graph.KindSecurityGroupIngress: {
		Required:   []string{"IpProtocol", "GroupId"},
		Properties: map[string]PropertySchema{"IpProtocol": tString, "GroupId": tString, "SourceSecurityGroupId": tString, "CidrIp": tString, "FromPort": tInt, "ToPort": tInt, "Description": tString},
	},
	graph.KindSecurityGroupEgress: {
		Required:   []string{"IpProtocol", "GroupId"},
		Properties: map[string]PropertySchema{"IpProtocol": tString, "GroupId": tString, "DestinationSecurityGroupId": tString, "CidrIp": tString, "FromPort": tInt, "ToPort": tInt, "Description": tString},
	},
	graph.KindVPCEndpoint: {
		Required: []string{"VpcId", "ServiceName"},
		Properties: map[string]PropertySchema{
			"VpcId":             tString,
			"ServiceName":       tString,
			"VpcEndpointType":   enum("Gateway", "Interface", "GatewayLoadBalancer"),
			"RouteTableIds":     tList,
			"SubnetIds":         tList,
			"SecurityGroupIds":  tList,
			"PrivateDnsEnabled": tBool,
		},
	},
	graph.KindFlowLog: {
		Required: []string{"ResourceId", "ResourceType"},
		Properties: map[string]PropertySchema{
			"ResourceId":               tString,
			"ResourceType":             enum("VPC", "Subnet", "NetworkInterface"),
			"TrafficType":              enum("ALL", "ACCEPT", "REJECT"),
			"LogDestinationType":       enum("cloud-watch-logs", "s3", "kinesis-data-firehose"),
			"LogDestination":           tString,
			"DeliverLogsPermissionArn": tString,
			"Tags":                     tList,
		},
	},
	graph.KindLogGroup: {
		Properties: map[string]PropertySchema{"LogGroupName": tString, "RetentionInDays": tInt},
	},
	graph.KindIAMRole: {
		Required:   []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{"AssumeRolePolicyDocument": tJSON, "Description": tString, "ManagedPolicyArns": tList, "Policies": tList},
	},
	graph.KindEKSCluster: {
		Required: []string{"RoleArn", "ResourcesVpcConfig"},
		Properties: map[string]PropertySchema{
			"Name":               tString,
			"Version":            tString,
			"RoleArn":            tString,
			"ResourcesVpcConfig": tMap,
			"AccessConfig":       tMap,
			"Logging":            tMap,
		},
	},
	graph.KindEKSNodegroup: {
		Required: []string{"ClusterName", "NodeRole", "Subnets"},
		Properties: map[string]PropertySchema{
			"ClusterName":   tString,
			"NodegroupName": tString,
			"NodeRole":      tString,
			"Subnets":       tList,
			"InstanceTypes": tList,
			"DiskSize":      tInt,
			"AmiType":       tString,
			"CapacityType":  enum("ON_DEMAND", "SPOT"),
			"ScalingConfig": tMap,
			"Labels":        tMap,
		},
	},
	graph.KindEKSAddon: {
		Required:   []string{"AddonName", "ClusterName"},
		Properties: map[string]PropertySchema{"AddonName": tString, "ClusterName": tString, "AddonVersion": tString, "ResolveConflicts": enum("NONE", "OVERWRITE", "PRESERVE")},
	},
	graph.KindEKSAccessEntry: {
		Required:   []string{"ClusterName", "PrincipalArn"},
		Properties: map[string]PropertySchema{"ClusterName": tString, "PrincipalArn": tString, "AccessPolicies": tList},
	},
	graph.KindSecret: {
		Properties: map[string]PropertySchema{"Name": tString, "Description": tString, "GenerateSecretString": tMap, "Tags": tList},
	},
}

// ValidateTemplate checks every resource of t. Resources are visited in
// logical id order so results are stable.
func ValidateTemplate(t *wetwire.Template, opts Options) *Result {
	result := &Result{}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, t.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateResource(name string, resource wetwire.ResourceDef, opts Options) ([]Error, []Error) {
	var errs, warnings []Error

	if !isValidResourceType(resource.Type) {
		errs = append(errs, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[graph.Kind(resource.Type)]
	if !ok {
		warnings = append(warnings, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, Error{
				Resource: name,
				Property: required,
				Message:  "missing required property",
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for p := range resource.Properties {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, p := range props {
		propSchema, ok := schema.Properties[p]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Error{Resource: name, Property: p, Message: "unknown property"})
			}
			continue
		}
		errs = append(errs, validateProperty(name, p, resource.Properties[p], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType accepts AWS::Service::Resource and Custom::*.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	return len(parts) == 3 && parts[0] == "AWS" && parts[1] != "" && parts[2] != ""
}

func validateProperty(resource, property string, value any, schema PropertySchema) []Error {
	if isIntrinsic(value) {
		return nil
	}
	if !isValidType(value, schema.Type) {
		return []Error{{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s, got %T", schema.Type, value),
		}}
	}
	if s, ok := value.(string); ok && len(schema.AllowedValues) > 0 && !slices.Contains(schema.AllowedValues, s) {
		return []Error{{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("value %q not in allowed values: %v", s, schema.AllowedValues),
		}}
	}
	return nil
}

// isIntrinsic reports whether value is a Ref or Fn:: call, which resolves at
// deploy time.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
