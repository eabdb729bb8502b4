package ack

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// APIVersion is the group version of the ACK EC2 controller.
const APIVersion = "ec2.services.k8s.aws/v1alpha1"

// Manifests only carry desired state. Status is written by the controller.

// VPC is an ACK EC2 VPC.
type VPC struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec VPCSpec `json:"spec"`
}

type VPCSpec struct {
	CIDRBlocks         []string `json:"cidrBlocks"`
	EnableDNSHostnames bool     `json:"enableDNSHostnames"`
	EnableDNSSupport   bool     `json:"enableDNSSupport"`
	Tags               []Tag    `json:"tags,omitempty"`
}

// InternetGateway is attached to the VPC it references.
type InternetGateway struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec InternetGatewaySpec `json:"spec"`
}

type InternetGatewaySpec struct {
	VPCRef *Reference `json:"vpcRef,omitempty"`
	Tags   []Tag      `json:"tags,omitempty"`
}

// ElasticIPAddress backs the NAT gateway.
type ElasticIPAddress struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec ElasticIPAddressSpec `json:"spec"`
}

type ElasticIPAddressSpec struct {
	Tags []Tag `json:"tags,omitempty"`
}

// NATGateway is an ACK NAT gateway.
type NATGateway struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec NATGatewaySpec `json:"spec"`
}

type NATGatewaySpec struct {
	AllocationRef *Reference `json:"allocationRef"`
	SubnetRef     *Reference `json:"subnetRef"`
	Tags          []Tag      `json:"tags,omitempty"`
}

// RouteTable carries its routes inline.
type RouteTable struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec RouteTableSpec `json:"spec"`
}

type RouteTableSpec struct {
	VPCRef *Reference `json:"vpcRef"`
	Routes []Route    `json:"routes,omitempty"`
	Tags   []Tag      `json:"tags,omitempty"`
}

// Route sets exactly one target reference.
type Route struct {
	DestinationCIDRBlock string     `json:"destinationCIDRBlock"`
	GatewayRef           *Reference `json:"gatewayRef,omitempty"`
	NATGatewayRef        *Reference `json:"natGatewayRef,omitempty"`
}

// Subnet names its route table; ACK associates them on creation.
type Subnet struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec SubnetSpec `json:"spec"`
}

type SubnetSpec struct {
	AvailabilityZone    string      `json:"availabilityZone"`
	CIDRBlock           string      `json:"cidrBlock"`
	VPCRef              *Reference  `json:"vpcRef"`
	MapPublicIPOnLaunch bool        `json:"mapPublicIPOnLaunch,omitempty"`
	RouteTableRefs      []Reference `json:"routeTableRefs,omitempty"`
	Tags                []Tag       `json:"tags,omitempty"`
}

// NetworkACL carries its entries and subnet associations inline.
type NetworkACL struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec NetworkACLSpec `json:"spec"`
}

type NetworkACLSpec struct {
	VPCRef       *Reference        `json:"vpcRef"`
	Entries      []NetworkACLEntry `json:"entries,omitempty"`
	Associations []ACLAssociation  `json:"associations,omitempty"`
	Tags         []Tag             `json:"tags,omitempty"`
}

type NetworkACLEntry struct {
	CIDRBlock  string     `json:"cidrBlock"`
	Egress     bool       `json:"egress"`
	PortRange  *PortRange `json:"portRange,omitempty"`
	Protocol   string     `json:"protocol"`
	RuleAction string     `json:"ruleAction"`
	RuleNumber int64      `json:"ruleNumber"`
}

type PortRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type ACLAssociation struct {
	SubnetRef *Reference `json:"subnetRef"`
}

// SecurityGroup is an ACK security group.
type SecurityGroup struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec SecurityGroupSpec `json:"spec"`
}

type SecurityGroupSpec struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	VPCRef       *Reference     `json:"vpcRef"`
	IngressRules []IPPermission `json:"ingressRules,omitempty"`
	EgressRules  []IPPermission `json:"egressRules,omitempty"`
	Tags         []Tag          `json:"tags,omitempty"`
}

// IPPermission is one security group rule. Ports are omitted for all
// protocols.
type IPPermission struct {
	IPProtocol       string            `json:"ipProtocol"`
	FromPort         *int64            `json:"fromPort,omitempty"`
	ToPort           *int64            `json:"toPort,omitempty"`
	IPRanges         []IPRange         `json:"ipRanges,omitempty"`
	UserIDGroupPairs []UserIDGroupPair `json:"userIDGroupPairs,omitempty"`
}

type IPRange struct {
	CIDRIP      string `json:"cidrIP"`
	Description string `json:"description,omitempty"`
}

type UserIDGroupPair struct {
	GroupRef    *Reference `json:"groupRef,omitempty"`
	Description string     `json:"description,omitempty"`
}

type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Reference points at another manifest by name.
type Reference struct {
	From ReferenceFrom `json:"from"`
}

type ReferenceFrom struct {
	Name string `json:"name"`
}

func ref(name string) *Reference {
	return &Reference{From: ReferenceFrom{Name: name}}
}
