// Package azs discovers the availability zones of a region through the EC2
// API, for configurations that do not list zones explicitly.
package azs

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2API is the slice of the EC2 client discovery needs.
type EC2API interface {
	DescribeAvailabilityZones(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error)
}

// Client discovers zones through an EC2API.
type Client struct {
	api EC2API
}

// NewClient wraps api, a live EC2 client or a test double.
func NewClient(api EC2API) *Client {
	return &Client{api: api}
}

// LoadConfig loads an AWS config with optional profile and region overrides.
func LoadConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewFromConfig builds a Client on a real EC2 client.
func NewFromConfig(cfg aws.Config) *Client {
	return NewClient(awsec2.NewFromConfig(cfg))
}

// Available returns the names of the region's available, opted-in
// availability zones sorted by name. Local and wavelength zones are
// excluded; subnets of a VPC network only rotate over regular zones.
func (c *Client) Available(ctx context.Context) ([]string, error) {
	out, err := c.api.DescribeAvailabilityZones(ctx, &awsec2.DescribeAvailabilityZonesInput{
		Filters: []types.Filter{
			{Name: aws.String("state"), Values: []string{string(types.AvailabilityZoneStateAvailable)}},
			{Name: aws.String("zone-type"), Values: []string{"availability-zone"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeAvailabilityZones: %w", err)
	}

	var zones []string
	for _, z := range out.AvailabilityZones {
		if z.State != types.AvailabilityZoneStateAvailable {
			continue
		}
		if z.OptInStatus == types.AvailabilityZoneOptInStatusNotOptedIn {
			continue
		}
		if name := aws.ToString(z.ZoneName); name != "" {
			zones = append(zones, name)
		}
	}
	sort.Strings(zones)

	if len(zones) == 0 {
		return nil, fmt.Errorf("no available zones returned")
	}
	return zones, nil
}

// Discover loads AWS configuration and lists the available zones.
func Discover(ctx context.Context, profile, region string) ([]string, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg).Available(ctx)
}
