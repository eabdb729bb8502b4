// Package topology derives a VPC network layout from a NetworkConfig: subnets
// and their zones, per-tier route tables, network ACLs and security groups.
//
// Each builder takes plain records and returns new ones; Synthesize threads
// them together and returns a Network, the arena every later stage reads.
package topology

import (
	"fmt"
	"regexp"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/cidr"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,62}$`)

// NetworkConfig is the input of one synthesis pass.
type NetworkConfig struct {
	// Name prefixes export names and Name tags.
	Name string
	// CIDR is the VPC block, e.g. 10.10.0.0/16.
	CIDR string
	// AvailabilityZones is the ordered candidate list.
	AvailabilityZones []string
	// AZCount limits the zones used to the first AZCount candidates.
	// Zero uses every candidate.
	AZCount int

	PublicSubnets  int
	PrivateSubnets int

	// SubnetPrefixLength defaults to 24.
	SubnetPrefixLength int
	// PrivateOffset is the first block offset of the private tier. Defaults to 10.
	PrivateOffset int

	// NATGateway places one NAT gateway in the first public subnet and
	// routes the private tier through it.
	NATGateway bool

	// Tags are added to every taggable resource.
	Tags map[string]string
}

// WithDefaults fills unset sizing fields.
func (c NetworkConfig) WithDefaults() NetworkConfig {
	if c.SubnetPrefixLength == 0 {
		c.SubnetPrefixLength = cidr.DefaultPrefixLength
	}
	if c.PrivateOffset == 0 {
		c.PrivateOffset = cidr.DefaultPrivateOffset
	}
	return c
}

// Validate checks everything that can be checked without allocating.
func (c NetworkConfig) Validate() error {
	if !namePattern.MatchString(c.Name) {
		return &wetwire.ConfigError{Field: "name", Reason: fmt.Sprintf("%q must start with a letter and contain only letters, digits and dashes", c.Name)}
	}
	if c.CIDR == "" {
		return &wetwire.ConfigError{Field: "cidr", Reason: "required"}
	}
	if c.PublicSubnets < 0 {
		return &wetwire.ConfigError{Field: "public_subnets", Reason: "must not be negative"}
	}
	if c.PrivateSubnets < 0 {
		return &wetwire.ConfigError{Field: "private_subnets", Reason: "must not be negative"}
	}
	if c.PublicSubnets+c.PrivateSubnets == 0 {
		return &wetwire.ConfigError{Field: "subnets", Reason: "zero subnets requested"}
	}
	if _, err := c.Zones(); err != nil {
		return err
	}
	if c.NATGateway && c.PublicSubnets == 0 {
		return &wetwire.ConfigError{Field: "nat_gateway", Reason: "a NAT gateway needs at least one public subnet"}
	}
	return nil
}

// Zones returns the availability zones subnets rotate over.
func (c NetworkConfig) Zones() ([]string, error) {
	if len(c.AvailabilityZones) == 0 {
		return nil, &wetwire.ConfigError{Field: "availability_zones", Reason: "empty availability zone list"}
	}
	seen := make(map[string]bool, len(c.AvailabilityZones))
	for _, az := range c.AvailabilityZones {
		if az == "" {
			return nil, &wetwire.ConfigError{Field: "availability_zones", Reason: "empty zone name"}
		}
		if seen[az] {
			return nil, &wetwire.ConfigError{Field: "availability_zones", Reason: fmt.Sprintf("duplicate zone %s", az)}
		}
		seen[az] = true
	}
	switch {
	case c.AZCount < 0:
		return nil, &wetwire.ConfigError{Field: "az_count", Reason: "must not be negative"}
	case c.AZCount == 0:
		return c.AvailabilityZones, nil
	case c.AZCount > len(c.AvailabilityZones):
		return nil, &wetwire.ConfigError{Field: "az_count", Reason: fmt.Sprintf("%d zones requested, %d candidates", c.AZCount, len(c.AvailabilityZones))}
	default:
		return c.AvailabilityZones[:c.AZCount], nil
	}
}
