package stacks

import (
	"fmt"
	"slices"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Logical ids of the cluster stack.
const (
	ClusterRoleID        = "ClusterRole"
	NodeRoleID           = "NodeRole"
	MastersRoleID        = "MastersRole"
	ClusterID            = "Cluster"
	NodegroupID          = "Nodegroup"
	MastersAccessEntryID = "MastersAccessEntry"
)

// MastersRolePolicy selects what the cluster masters role may do in the
// account.
type MastersRolePolicy string

const (
	// LeastPrivilege grants only the EKS cluster policy.
	LeastPrivilege MastersRolePolicy = "least-privilege"
	// AdminOpenForTesting grants AdministratorAccess. Test accounts only.
	AdminOpenForTesting MastersRolePolicy = "admin-open-for-testing"
)

// ManagedPolicy returns the managed policy attached to the masters role.
func (p MastersRolePolicy) ManagedPolicy() (string, error) {
	switch p {
	case LeastPrivilege:
		return "AmazonEKSClusterPolicy", nil
	case AdminOpenForTesting:
		return "AdministratorAccess", nil
	default:
		return "", &wetwire.ConfigError{
			Field:  "cluster.masters_role_policy",
			Reason: fmt.Sprintf("%q must be %s or %s", p, LeastPrivilege, AdminOpenForTesting),
		}
	}
}

// Addon is a managed cluster addon. An empty Version lets EKS pick the
// default for the cluster version.
type Addon struct {
	Name    string
	Version string
}

// NodegroupConfig sizes the managed nodegroup.
type NodegroupConfig struct {
	InstanceType string
	Min          int
	Max          int
	Desired      int
	DiskSize     int
	AMIType      string
	CapacityType string
	Labels       map[string]string
}

// ClusterConfig configures the EKS cluster stack.
type ClusterConfig struct {
	Version           string
	MastersRolePolicy MastersRolePolicy
	Nodegroup         NodegroupConfig
	Addons            []Addon
}

// DefaultAddons are installed when none are configured.
var DefaultAddons = []Addon{
	{Name: "vpc-cni"},
	{Name: "coredns"},
	{Name: "kube-proxy"},
	{Name: "aws-ebs-csi-driver"},
}

var (
	controlPlaneLogTypes = []string{"api", "audit", "authenticator", "controllerManager", "scheduler"}
	capacityTypes        = []string{"ON_DEMAND", "SPOT"}
)

// DefaultClusterConfig returns the cluster defaults.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Version:           "1.30",
		MastersRolePolicy: LeastPrivilege,
		Nodegroup: NodegroupConfig{
			InstanceType: "t3.medium",
			Min:          1,
			Max:          5,
			Desired:      2,
			DiskSize:     100,
			AMIType:      "AL2_x86_64",
			CapacityType: "ON_DEMAND",
		},
		Addons: DefaultAddons,
	}
}

func (c ClusterConfig) validate() error {
	if c.Version == "" {
		return &wetwire.ConfigError{Field: "cluster.version", Reason: "required"}
	}
	ng := c.Nodegroup
	if ng.InstanceType == "" {
		return &wetwire.ConfigError{Field: "cluster.nodegroup.instance_type", Reason: "required"}
	}
	if ng.Min < 0 || ng.Max < 1 || ng.Min > ng.Max {
		return &wetwire.ConfigError{Field: "cluster.nodegroup", Reason: fmt.Sprintf("invalid scaling bounds min=%d max=%d", ng.Min, ng.Max)}
	}
	if ng.Desired < ng.Min || ng.Desired > ng.Max {
		return &wetwire.ConfigError{Field: "cluster.nodegroup.desired", Reason: fmt.Sprintf("%d outside [%d, %d]", ng.Desired, ng.Min, ng.Max)}
	}
	if ng.DiskSize < 1 {
		return &wetwire.ConfigError{Field: "cluster.nodegroup.disk_size", Reason: "must be positive"}
	}
	if !slices.Contains(capacityTypes, ng.CapacityType) {
		return &wetwire.ConfigError{Field: "cluster.nodegroup.capacity_type", Reason: fmt.Sprintf("%q must be one of %v", ng.CapacityType, capacityTypes)}
	}
	seen := make(map[string]bool)
	for _, a := range c.Addons {
		if a.Name == "" {
			return &wetwire.ConfigError{Field: "cluster.addons", Reason: "addon without a name"}
		}
		if seen[a.Name] {
			return &wetwire.ConfigError{Field: "cluster.addons", Reason: "duplicate addon " + a.Name}
		}
		seen[a.Name] = true
	}
	return nil
}

// AddonID names the addon resource: vpc-cni → AddonVpcCni.
func AddonID(name string) string {
	id := "Addon"
	upper := true
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == '.':
			upper = true
		case upper && r >= 'a' && r <= 'z':
			id += string(r - 'a' + 'A')
			upper = false
		default:
			id += string(r)
			upper = false
		}
	}
	return id
}

// clusterSubnets returns every published subnet id as one list.
func clusterSubnets(x emit.Exports) any {
	switch {
	case x.HasTier(topology.Public) && x.HasTier(topology.Private):
		return intrinsics.Split{Delimiter: ",", Source: intrinsics.Join{Delimiter: ",", Values: []any{
			intrinsics.ImportValue{ExportName: x.PublicSubnetIDs},
			intrinsics.ImportValue{ExportName: x.PrivateSubnetIDs},
		}}}
	case x.HasTier(topology.Public):
		return x.ImportSubnetIDs(topology.Public)
	default:
		return x.ImportSubnetIDs(topology.Private)
	}
}

// BuildCluster creates an EKS cluster across every network subnet, a managed
// nodegroup in the private tier, addons, and a masters role mapped as cluster
// administrator.
func BuildCluster(x emit.Exports, cfg ClusterConfig) (*graph.Graph, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	mastersPolicy, err := cfg.MastersRolePolicy.ManagedPolicy()
	if err != nil {
		return nil, err
	}
	if err := requireTier(Cluster, x, topology.Private); err != nil {
		return nil, err
	}

	b := newBuilder(fmt.Sprintf("%s EKS cluster %s", x.Network, cfg.Version), x)

	b.add(ClusterRoleID, graph.KindIAMRole, map[string]any{
		"AssumeRolePolicyDocument": intrinsics.AssumeRole(intrinsics.ServicePrincipal{"eks.amazonaws.com"}),
		"ManagedPolicyArns":        []any{intrinsics.ManagedPolicyArn("AmazonEKSClusterPolicy")},
	})
	b.add(NodeRoleID, graph.KindIAMRole, map[string]any{
		"AssumeRolePolicyDocument": intrinsics.AssumeRole(intrinsics.ServicePrincipal{"ec2.amazonaws.com"}),
		"ManagedPolicyArns": []any{
			intrinsics.ManagedPolicyArn("AmazonEKSWorkerNodePolicy"),
			intrinsics.ManagedPolicyArn("AmazonEKS_CNI_Policy"),
			intrinsics.ManagedPolicyArn("AmazonEC2ContainerRegistryReadOnly"),
			intrinsics.ManagedPolicyArn("service-role/AmazonEBSCSIDriverPolicy"),
		},
	})
	b.add(MastersRoleID, graph.KindIAMRole, map[string]any{
		"Description":              "Cluster administrators (" + string(cfg.MastersRolePolicy) + ")",
		"AssumeRolePolicyDocument": intrinsics.AssumeRole(intrinsics.AccountRoot()),
		"ManagedPolicyArns":        []any{intrinsics.ManagedPolicyArn(mastersPolicy)},
	})

	logging := make([]any, 0, len(controlPlaneLogTypes))
	for _, t := range controlPlaneLogTypes {
		logging = append(logging, map[string]any{"Type": t})
	}
	b.add(ClusterID, graph.KindEKSCluster, map[string]any{
		"Name":    b.name("cluster"),
		"Version": cfg.Version,
		"RoleArn": intrinsics.Attr(ClusterRoleID, "Arn"),
		"ResourcesVpcConfig": map[string]any{
			"SubnetIds":             clusterSubnets(x),
			"EndpointPublicAccess":  true,
			"EndpointPrivateAccess": true,
		},
		"AccessConfig": map[string]any{
			"AuthenticationMode": "API_AND_CONFIG_MAP",
		},
		"Logging": map[string]any{
			"ClusterLogging": map[string]any{"EnabledTypes": logging},
		},
	})
	b.add(MastersAccessEntryID, graph.KindEKSAccessEntry, map[string]any{
		"ClusterName":  intrinsics.RefTo(ClusterID),
		"PrincipalArn": intrinsics.Attr(MastersRoleID, "Arn"),
		"AccessPolicies": []any{map[string]any{
			"PolicyArn":   "arn:aws:eks::aws:cluster-access-policy/AmazonEKSClusterAdminPolicy",
			"AccessScope": map[string]any{"Type": "cluster"},
		}},
	})

	ng := cfg.Nodegroup
	ngProps := map[string]any{
		"ClusterName":   intrinsics.RefTo(ClusterID),
		"NodegroupName": b.name("nodes"),
		"NodeRole":      intrinsics.Attr(NodeRoleID, "Arn"),
		"Subnets":       x.ImportSubnetIDs(topology.Private),
		"InstanceTypes": []string{ng.InstanceType},
		"DiskSize":      ng.DiskSize,
		"AmiType":       ng.AMIType,
		"CapacityType":  ng.CapacityType,
		"ScalingConfig": map[string]any{
			"MinSize":     ng.Min,
			"MaxSize":     ng.Max,
			"DesiredSize": ng.Desired,
		},
	}
	if len(ng.Labels) > 0 {
		ngProps["Labels"] = ng.Labels
	}
	b.add(NodegroupID, graph.KindEKSNodegroup, ngProps)

	for _, a := range cfg.Addons {
		props := map[string]any{
			"AddonName":        a.Name,
			"ClusterName":      intrinsics.RefTo(ClusterID),
			"ResolveConflicts": "OVERWRITE",
		}
		if a.Version != "" {
			props["AddonVersion"] = a.Version
		}
		// Addons other than the CNI need running nodes to become healthy.
		var deps []string
		if a.Name != "vpc-cni" {
			deps = append(deps, NodegroupID)
		}
		b.add(AddonID(a.Name), graph.KindEKSAddon, props, deps...)
	}

	b.output("ClusterName", "EKS cluster name", intrinsics.RefTo(ClusterID))
	b.output("ClusterEndpoint", "EKS API server endpoint", intrinsics.Attr(ClusterID, "Endpoint"))
	b.output("MastersRoleArn", "Role mapped as cluster administrator", intrinsics.Attr(MastersRoleID, "Arn"))

	return b.finish(Cluster)
}
