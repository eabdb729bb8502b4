// Package cidr carves fixed-size subnet blocks out of a parent IPv4 block.
//
// Blocks are addressed by offset: offset i is the i-th child block of the
// parent in ascending network-address order. Public subnets take offsets
// 0..K-1 and private subnets take a reserved band starting at PrivateOffset,
// so the two tiers never collide however asymmetric their counts are.
package cidr

import (
	"fmt"
	"net"
	"net/netip"

	netutils "k8s.io/utils/net"

	wetwire "github.com/lex00/wetwire-network-go"
)

const (
	// DefaultPrefixLength is the child block size used when none is configured.
	DefaultPrefixLength = 24

	// DefaultPrivateOffset is the first offset of the private band.
	DefaultPrivateOffset = 10

	// AWS accepts subnet and VPC blocks between /16 and /28.
	minPrefixLength = 16
	maxPrefixLength = 28
)

// Allocator hands out child blocks of one parent block.
type Allocator struct {
	parent       netip.Prefix
	parentNet    *net.IPNet
	prefixLength int
}

// Allocation is the result of carving both tiers.
type Allocation struct {
	Public  []netip.Prefix
	Private []netip.Prefix
}

// All returns public blocks followed by private blocks.
func (a Allocation) All() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(a.Public)+len(a.Private))
	out = append(out, a.Public...)
	return append(out, a.Private...)
}

// NewAllocator validates parent and the child prefix length.
func NewAllocator(parent string, prefixLength int) (*Allocator, error) {
	if !netutils.IsIPv4CIDRString(parent) {
		return nil, &wetwire.ConfigError{Field: "cidr", Reason: fmt.Sprintf("%q is not an IPv4 CIDR block", parent)}
	}
	p, err := netip.ParsePrefix(parent)
	if err != nil {
		return nil, &wetwire.ConfigError{Field: "cidr", Reason: err.Error()}
	}
	if p.Masked() != p {
		return nil, &wetwire.ConfigError{Field: "cidr", Reason: fmt.Sprintf("%s has host bits set (did you mean %s?)", p, p.Masked())}
	}
	if p.Bits() < minPrefixLength || p.Bits() > maxPrefixLength {
		return nil, &wetwire.ConfigError{Field: "cidr", Reason: fmt.Sprintf("prefix /%d outside /%d-/%d", p.Bits(), minPrefixLength, maxPrefixLength)}
	}
	if prefixLength < minPrefixLength || prefixLength > maxPrefixLength {
		return nil, &wetwire.ConfigError{Field: "subnet_prefix_length", Reason: fmt.Sprintf("/%d outside /%d-/%d", prefixLength, minPrefixLength, maxPrefixLength)}
	}

	_, ipnet, err := netutils.ParseCIDRSloppy(parent)
	if err != nil {
		return nil, &wetwire.ConfigError{Field: "cidr", Reason: err.Error()}
	}

	return &Allocator{parent: p, parentNet: ipnet, prefixLength: prefixLength}, nil
}

// Parent returns the parent block.
func (a *Allocator) Parent() netip.Prefix {
	return a.parent
}

// PrefixLength returns the child block prefix length.
func (a *Allocator) PrefixLength() int {
	return a.prefixLength
}

// Capacity is the number of child blocks the parent holds. It is zero when
// the child prefix is shorter than the parent prefix.
func (a *Allocator) Capacity() int {
	if a.prefixLength < a.parent.Bits() {
		return 0
	}
	return int(netutils.RangeSize(a.parentNet) / a.blockSize())
}

func (a *Allocator) blockSize() int64 {
	return int64(1) << (32 - a.prefixLength)
}

// Block returns the child block at offset.
func (a *Allocator) Block(offset int) (netip.Prefix, error) {
	if offset < 0 || offset >= a.Capacity() {
		return netip.Prefix{}, a.capacityError(1, offset+1)
	}
	ip, err := netutils.GetIndexedIP(a.parentNet, offset*int(a.blockSize()))
	if err != nil {
		return netip.Prefix{}, a.capacityError(1, offset+1)
	}
	addr, ok := netip.AddrFromSlice(ip.To4())
	if !ok {
		return netip.Prefix{}, fmt.Errorf("block %d of %s: invalid address %v", offset, a.parent, ip)
	}
	return netip.PrefixFrom(addr, a.prefixLength), nil
}

// Allocate carves public blocks from offset 0 and private blocks from
// privateOffset. The whole request is checked against capacity before any
// block is produced.
func (a *Allocator) Allocate(public, private, privateOffset int) (Allocation, error) {
	if public < 0 {
		return Allocation{}, &wetwire.ConfigError{Field: "public_subnets", Reason: "must not be negative"}
	}
	if private < 0 {
		return Allocation{}, &wetwire.ConfigError{Field: "private_subnets", Reason: "must not be negative"}
	}
	if privateOffset < 0 {
		return Allocation{}, &wetwire.ConfigError{Field: "private_offset", Reason: "must not be negative"}
	}

	span := public
	if private > 0 && privateOffset+private > span {
		span = privateOffset + private
	}
	if span > a.Capacity() {
		return Allocation{}, a.capacityError(public+private, span)
	}
	if private > 0 && public > privateOffset {
		return Allocation{}, &wetwire.ConfigError{
			Field:  "public_subnets",
			Reason: fmt.Sprintf("%d public subnets overrun the private band at offset %d", public, privateOffset),
		}
	}

	var out Allocation
	for i := 0; i < public; i++ {
		b, err := a.Block(i)
		if err != nil {
			return Allocation{}, err
		}
		out.Public = append(out.Public, b)
	}
	for i := 0; i < private; i++ {
		b, err := a.Block(privateOffset + i)
		if err != nil {
			return Allocation{}, err
		}
		out.Private = append(out.Private, b)
	}
	return out, nil
}

func (a *Allocator) capacityError(requested, span int) *wetwire.CapacityError {
	return &wetwire.CapacityError{
		Parent:       a.parent.String(),
		PrefixLength: a.prefixLength,
		Requested:    requested,
		Span:         span,
		Available:    a.Capacity(),
	}
}

// Overlapping returns the first pair of overlapping blocks, if any.
func Overlapping(blocks []netip.Prefix) (netip.Prefix, netip.Prefix, bool) {
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[i].Overlaps(blocks[j]) {
				return blocks[i], blocks[j], true
			}
		}
	}
	return netip.Prefix{}, netip.Prefix{}, false
}
