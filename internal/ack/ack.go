// Package ack renders a synthesized network as manifests for the AWS
// Controllers for Kubernetes EC2 controller, an alternative to a
// CloudFormation template when the network is reconciled from a cluster.
//
// Cross-resource references use ACK's by-name references, so the manifests
// can be applied together and the controller resolves creation order.
package ack

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/lex00/wetwire-network-go/internal/topology"
)

// Options controls manifest metadata.
type Options struct {
	// Namespace of every manifest. Empty leaves it to kubectl.
	Namespace string
}

// ResourceName derives a DNS-1123 object name from a logical id:
// demo + PublicSubnet1 → demo-public-subnet1.
func ResourceName(network, logicalID string) string {
	runes := []rune(logicalID)
	var b strings.Builder
	b.WriteString(strings.ToLower(network))
	b.WriteByte('-')
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

type builder struct {
	n    *topology.Network
	opts Options
	objs []any
}

func (b *builder) name(logicalID string) string {
	return ResourceName(b.n.Config.Name, logicalID)
}

func (b *builder) meta(kind, logicalID string) (metav1.TypeMeta, metav1.ObjectMeta) {
	return metav1.TypeMeta{APIVersion: APIVersion, Kind: kind},
		metav1.ObjectMeta{
			Name:      b.name(logicalID),
			Namespace: b.opts.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "wetwire-network",
				"wetwire.network/name":         b.n.Config.Name,
			},
			Annotations: map[string]string{
				"wetwire.network/logical-id": logicalID,
			},
		}
}

// tags mirrors the template's tagging: Name, then configured tags by key.
func (b *builder) tags(name string) []Tag {
	out := []Tag{{Key: "Name", Value: b.n.Config.Name + "-" + name}}
	keys := make([]string, 0, len(b.n.Config.Tags))
	for k := range b.n.Config.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, Tag{Key: k, Value: b.n.Config.Tags[k]})
	}
	return out
}

// Manifests returns one object per network resource, in creation order.
// Associations, routes and ACL entries are folded into their parents.
func Manifests(n *topology.Network, opts Options) ([]any, error) {
	b := &builder{n: n, opts: opts}

	tm, om := b.meta("VPC", n.VPC.LogicalID)
	b.objs = append(b.objs, &VPC{TypeMeta: tm, ObjectMeta: om, Spec: VPCSpec{
		CIDRBlocks:         []string{n.VPC.CIDR.String()},
		EnableDNSHostnames: true,
		EnableDNSSupport:   true,
		Tags:               b.tags("vpc"),
	}})

	if igw := n.InternetGateway; igw != nil {
		tm, om := b.meta("InternetGateway", igw.LogicalID)
		b.objs = append(b.objs, &InternetGateway{TypeMeta: tm, ObjectMeta: om, Spec: InternetGatewaySpec{
			VPCRef: ref(b.name(n.VPC.LogicalID)),
			Tags:   b.tags("igw"),
		}})
	}

	routeTableOf := make(map[string]string)
	for _, rt := range n.RouteTables {
		for _, a := range rt.Associations {
			routeTableOf[a.Subnet] = rt.LogicalID
		}
	}
	for _, s := range n.Subnets {
		tm, om := b.meta("Subnet", s.LogicalID)
		spec := SubnetSpec{
			AvailabilityZone:    s.AZ,
			CIDRBlock:           s.CIDR.String(),
			VPCRef:              ref(b.name(s.VPC)),
			MapPublicIPOnLaunch: s.MapPublicIPOnLaunch(),
			Tags:                b.tags(fmt.Sprintf("%s-%d", s.Tier, s.Index+1)),
		}
		if rt, ok := routeTableOf[s.LogicalID]; ok {
			spec.RouteTableRefs = []Reference{*ref(b.name(rt))}
		}
		b.objs = append(b.objs, &Subnet{TypeMeta: tm, ObjectMeta: om, Spec: spec})
	}

	if nat := n.NATGateway; nat != nil {
		tm, om := b.meta("ElasticIPAddress", nat.EIP)
		b.objs = append(b.objs, &ElasticIPAddress{TypeMeta: tm, ObjectMeta: om, Spec: ElasticIPAddressSpec{
			Tags: b.tags("nat-eip"),
		}})
		tm, om = b.meta("NATGateway", nat.LogicalID)
		b.objs = append(b.objs, &NATGateway{TypeMeta: tm, ObjectMeta: om, Spec: NATGatewaySpec{
			AllocationRef: ref(b.name(nat.EIP)),
			SubnetRef:     ref(b.name(nat.Subnet)),
			Tags:          b.tags("nat"),
		}})
	}

	for _, rt := range n.RouteTables {
		spec := RouteTableSpec{
			VPCRef: ref(b.name(rt.VPC)),
			Tags:   b.tags(fmt.Sprintf("%s-rt", rt.Tier)),
		}
		for _, r := range rt.Routes {
			route := Route{DestinationCIDRBlock: r.Destination}
			switch r.TargetKind {
			case topology.TargetInternetGateway:
				route.GatewayRef = ref(b.name(r.Target))
			case topology.TargetNATGateway:
				route.NATGatewayRef = ref(b.name(r.Target))
			default:
				return nil, fmt.Errorf("route %s: unsupported target kind %q", r.LogicalID, r.TargetKind)
			}
			spec.Routes = append(spec.Routes, route)
		}
		tm, om := b.meta("RouteTable", rt.LogicalID)
		b.objs = append(b.objs, &RouteTable{TypeMeta: tm, ObjectMeta: om, Spec: spec})
	}

	for _, acl := range n.NetworkACLs {
		spec := NetworkACLSpec{
			VPCRef: ref(b.name(acl.VPC)),
			Tags:   b.tags(fmt.Sprintf("%s-nacl", acl.Tier)),
		}
		for _, r := range acl.Rules() {
			entry := NetworkACLEntry{
				CIDRBlock:  r.CIDR,
				Egress:     r.Direction == topology.Egress,
				Protocol:   string(r.Protocol),
				RuleAction: string(r.Action),
				RuleNumber: int64(r.Number),
			}
			if !r.Ports.IsAll() {
				entry.PortRange = &PortRange{From: int64(r.Ports.From), To: int64(r.Ports.To)}
			}
			spec.Entries = append(spec.Entries, entry)
		}
		for _, a := range acl.Associations {
			spec.Associations = append(spec.Associations, ACLAssociation{SubnetRef: ref(b.name(a.Subnet))})
		}
		tm, om := b.meta("NetworkACL", acl.LogicalID)
		b.objs = append(b.objs, &NetworkACL{TypeMeta: tm, ObjectMeta: om, Spec: spec})
	}

	for _, sg := range n.SecurityGroups {
		tm, om := b.meta("SecurityGroup", sg.LogicalID)
		b.objs = append(b.objs, &SecurityGroup{TypeMeta: tm, ObjectMeta: om, Spec: SecurityGroupSpec{
			Name:         b.name(sg.LogicalID),
			Description:  sg.Description,
			VPCRef:       ref(b.name(sg.VPC)),
			IngressRules: b.permissions(sg.Ingress),
			EgressRules:  b.permissions(sg.Egress),
			Tags:         b.tags(fmt.Sprintf("%s-sg", sg.Tier)),
		}})
	}

	for _, obj := range b.objs {
		name := objectName(obj)
		if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
			return nil, fmt.Errorf("manifest name %q: %s", name, strings.Join(errs, "; "))
		}
	}
	return b.objs, nil
}

func (b *builder) permissions(rules []topology.SecurityGroupRule) []IPPermission {
	var out []IPPermission
	for _, r := range rules {
		p := IPPermission{IPProtocol: r.Protocol.Name()}
		if !r.Ports.IsAll() {
			from, to := int64(r.Ports.From), int64(r.Ports.To)
			p.FromPort, p.ToPort = &from, &to
		}
		if r.PeerGroup != "" {
			p.UserIDGroupPairs = []UserIDGroupPair{{GroupRef: ref(b.name(r.PeerGroup)), Description: r.Description}}
		} else {
			p.IPRanges = []IPRange{{CIDRIP: r.CIDR, Description: r.Description}}
		}
		out = append(out, p)
	}
	return out
}

func objectName(obj any) string {
	if o, ok := obj.(metav1.Object); ok {
		return o.GetName()
	}
	return ""
}

// Marshal renders objects as one multi-document YAML stream.
func Marshal(objs []any) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objs {
		data, err := sigsyaml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshaling manifest %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
