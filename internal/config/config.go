// Package config loads wetwire-network.yaml into typed configuration and
// converts it into the inputs of each synthesis stage.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-network-go/internal/stacks"
	"github.com/lex00/wetwire-network-go/internal/topology"
)

// DefaultName is the config file looked up in the working directory.
const DefaultName = "wetwire-network"

// DefaultFile is DefaultName with its extension.
const DefaultFile = DefaultName + ".yaml"

// EnvPrefix prefixes environment overrides: WETWIRE_NETWORK_NETWORK_CIDR.
const EnvPrefix = "WETWIRE_NETWORK"

// Config is the whole configuration file.
type Config struct {
	Network   Network   `mapstructure:"network" yaml:"network"`
	Endpoints Endpoints `mapstructure:"endpoints" yaml:"endpoints"`
	FlowLogs  FlowLogs  `mapstructure:"flow_logs" yaml:"flow_logs"`
	Cluster   Cluster   `mapstructure:"cluster" yaml:"cluster"`
	Secret    Secret    `mapstructure:"secret" yaml:"secret"`
	Discovery Discovery `mapstructure:"discovery" yaml:"discovery"`
}

// Network configures the VPC and its subnets.
type Network struct {
	Name               string            `mapstructure:"name" yaml:"name"`
	CIDR               string            `mapstructure:"cidr" yaml:"cidr"`
	AvailabilityZones  []string          `mapstructure:"availability_zones" yaml:"availability_zones,omitempty"`
	AZCount            int               `mapstructure:"az_count" yaml:"az_count"`
	PublicSubnets      int               `mapstructure:"public_subnets" yaml:"public_subnets"`
	PrivateSubnets     int               `mapstructure:"private_subnets" yaml:"private_subnets"`
	SubnetPrefixLength int               `mapstructure:"subnet_prefix_length" yaml:"subnet_prefix_length"`
	PrivateOffset      int               `mapstructure:"private_offset" yaml:"private_offset"`
	NATGateway         bool              `mapstructure:"nat_gateway" yaml:"nat_gateway"`
	Tags               map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// Endpoints toggles the VPC endpoints stack.
type Endpoints struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	S3      bool `mapstructure:"s3" yaml:"s3"`
	ECR     bool `mapstructure:"ecr" yaml:"ecr"`
}

// FlowLogs configures the flow logs stack.
type FlowLogs struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
	TrafficType   string `mapstructure:"traffic_type" yaml:"traffic_type"`
}

// Cluster configures the EKS cluster stack.
type Cluster struct {
	Enabled           bool      `mapstructure:"enabled" yaml:"enabled"`
	Version           string    `mapstructure:"version" yaml:"version"`
	MastersRolePolicy string    `mapstructure:"masters_role_policy" yaml:"masters_role_policy"`
	Nodegroup         Nodegroup `mapstructure:"nodegroup" yaml:"nodegroup"`
	Addons            []Addon   `mapstructure:"addons" yaml:"addons,omitempty"`
}

// Nodegroup sizes the managed nodegroup.
type Nodegroup struct {
	InstanceType string            `mapstructure:"instance_type" yaml:"instance_type"`
	Min          int               `mapstructure:"min" yaml:"min"`
	Max          int               `mapstructure:"max" yaml:"max"`
	Desired      int               `mapstructure:"desired" yaml:"desired"`
	DiskSize     int               `mapstructure:"disk_size" yaml:"disk_size"`
	AMIType      string            `mapstructure:"ami_type" yaml:"ami_type"`
	CapacityType string            `mapstructure:"capacity_type" yaml:"capacity_type"`
	Labels       map[string]string `mapstructure:"labels" yaml:"labels,omitempty"`
}

// Addon is one managed cluster addon.
type Addon struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version,omitempty"`
}

// Secret configures the generated secret stack.
type Secret struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Name     string `mapstructure:"name" yaml:"name,omitempty"`
	Username string `mapstructure:"username" yaml:"username"`
}

// Discovery looks availability zones up through the EC2 API when the
// network lists none.
type Discovery struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Region  string `mapstructure:"region" yaml:"region,omitempty"`
	Profile string `mapstructure:"profile" yaml:"profile,omitempty"`
}

// Default returns the configuration used for keys a file leaves unset.
func Default() *Config {
	cluster := stacks.DefaultClusterConfig()
	cfg := &Config{
		Network: Network{
			Name:               "network",
			CIDR:               "10.10.0.0/16",
			PublicSubnets:      2,
			PrivateSubnets:     2,
			SubnetPrefixLength: 24,
			PrivateOffset:      10,
			NATGateway:         true,
		},
		Endpoints: Endpoints{S3: true, ECR: true},
		FlowLogs:  FlowLogs{RetentionDays: 7, TrafficType: "ALL"},
		Cluster: Cluster{
			Version:           cluster.Version,
			MastersRolePolicy: string(cluster.MastersRolePolicy),
			Nodegroup: Nodegroup{
				InstanceType: cluster.Nodegroup.InstanceType,
				Min:          cluster.Nodegroup.Min,
				Max:          cluster.Nodegroup.Max,
				Desired:      cluster.Nodegroup.Desired,
				DiskSize:     cluster.Nodegroup.DiskSize,
				AMIType:      cluster.Nodegroup.AMIType,
				CapacityType: cluster.Nodegroup.CapacityType,
			},
		},
	}
	for _, a := range cluster.Addons {
		cfg.Cluster.Addons = append(cfg.Cluster.Addons, Addon{Name: a.Name, Version: a.Version})
	}
	return cfg
}

// Sample is the configuration init writes.
func Sample() *Config {
	cfg := Default()
	cfg.Network.Name = "demo"
	cfg.Network.AvailabilityZones = []string{"us-east-1a", "us-east-1b"}
	cfg.Network.Tags = map[string]string{"Project": "demo"}
	cfg.Endpoints.Enabled = true
	cfg.FlowLogs.Enabled = true
	cfg.Secret = Secret{Username: "admin"}
	cfg.Discovery.Region = "us-east-1"
	return cfg
}

// Load reads path, or DefaultFile in the working directory when path is
// empty. A missing default file is not an error: defaults apply. Environment
// variables prefixed with EnvPrefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// A listed addon set replaces the defaults rather than merging by index.
	if v.IsSet("cluster.addons") {
		cfg.Cluster.Addons = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		if err := restoreMapKeys(used, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	defaults := map[string]any{
		"network.name":                    cfg.Network.Name,
		"network.cidr":                    cfg.Network.CIDR,
		"network.az_count":                cfg.Network.AZCount,
		"network.public_subnets":          cfg.Network.PublicSubnets,
		"network.private_subnets":         cfg.Network.PrivateSubnets,
		"network.subnet_prefix_length":    cfg.Network.SubnetPrefixLength,
		"network.private_offset":          cfg.Network.PrivateOffset,
		"network.nat_gateway":             cfg.Network.NATGateway,
		"endpoints.enabled":               cfg.Endpoints.Enabled,
		"endpoints.s3":                    cfg.Endpoints.S3,
		"endpoints.ecr":                   cfg.Endpoints.ECR,
		"flow_logs.enabled":               cfg.FlowLogs.Enabled,
		"flow_logs.retention_days":        cfg.FlowLogs.RetentionDays,
		"flow_logs.traffic_type":          cfg.FlowLogs.TrafficType,
		"cluster.enabled":                 cfg.Cluster.Enabled,
		"cluster.version":                 cfg.Cluster.Version,
		"cluster.masters_role_policy":     cfg.Cluster.MastersRolePolicy,
		"cluster.nodegroup.instance_type": cfg.Cluster.Nodegroup.InstanceType,
		"cluster.nodegroup.min":           cfg.Cluster.Nodegroup.Min,
		"cluster.nodegroup.max":           cfg.Cluster.Nodegroup.Max,
		"cluster.nodegroup.desired":       cfg.Cluster.Nodegroup.Desired,
		"cluster.nodegroup.disk_size":     cfg.Cluster.Nodegroup.DiskSize,
		"cluster.nodegroup.ami_type":      cfg.Cluster.Nodegroup.AMIType,
		"cluster.nodegroup.capacity_type": cfg.Cluster.Nodegroup.CapacityType,
		"secret.enabled":                  cfg.Secret.Enabled,
		"secret.name":                     cfg.Secret.Name,
		"secret.username":                 cfg.Secret.Username,
		"discovery.enabled":               cfg.Discovery.Enabled,
		"discovery.region":                cfg.Discovery.Region,
		"discovery.profile":               cfg.Discovery.Profile,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// restoreMapKeys re-reads tags and labels from the file. Viper folds map keys
// to lower case, and AWS tag keys are case sensitive.
func restoreMapKeys(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var raw struct {
		Network struct {
			Tags map[string]string `yaml:"tags"`
		} `yaml:"network"`
		Cluster struct {
			Nodegroup struct {
				Labels map[string]string `yaml:"labels"`
			} `yaml:"nodegroup"`
		} `yaml:"cluster"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if raw.Network.Tags != nil {
		cfg.Network.Tags = raw.Network.Tags
	}
	if raw.Cluster.Nodegroup.Labels != nil {
		cfg.Cluster.Nodegroup.Labels = raw.Cluster.Nodegroup.Labels
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteSample writes Sample to path, refusing to overwrite unless force.
func WriteSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Marshal(Sample())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Topology returns the network synthesis input.
func (c *Config) Topology() topology.NetworkConfig {
	n := c.Network
	return topology.NetworkConfig{
		Name:               n.Name,
		CIDR:               n.CIDR,
		AvailabilityZones:  n.AvailabilityZones,
		AZCount:            n.AZCount,
		PublicSubnets:      n.PublicSubnets,
		PrivateSubnets:     n.PrivateSubnets,
		SubnetPrefixLength: n.SubnetPrefixLength,
		PrivateOffset:      n.PrivateOffset,
		NATGateway:         n.NATGateway,
		Tags:               n.Tags,
	}
}

func (c *Config) EndpointsStack() stacks.EndpointsConfig {
	return stacks.EndpointsConfig{S3: c.Endpoints.S3, ECR: c.Endpoints.ECR}
}

func (c *Config) FlowLogsStack() stacks.FlowLogsConfig {
	return stacks.FlowLogsConfig{RetentionDays: c.FlowLogs.RetentionDays, TrafficType: c.FlowLogs.TrafficType}
}

func (c *Config) ClusterStack() stacks.ClusterConfig {
	ng := c.Cluster.Nodegroup
	cfg := stacks.ClusterConfig{
		Version:           c.Cluster.Version,
		MastersRolePolicy: stacks.MastersRolePolicy(c.Cluster.MastersRolePolicy),
		Nodegroup: stacks.NodegroupConfig{
			InstanceType: ng.InstanceType,
			Min:          ng.Min,
			Max:          ng.Max,
			Desired:      ng.Desired,
			DiskSize:     ng.DiskSize,
			AMIType:      ng.AMIType,
			CapacityType: ng.CapacityType,
			Labels:       ng.Labels,
		},
	}
	for _, a := range c.Cluster.Addons {
		cfg.Addons = append(cfg.Addons, stacks.Addon{Name: a.Name, Version: a.Version})
	}
	return cfg
}

func (c *Config) SecretStack() stacks.SecretConfig {
	return stacks.SecretConfig{Name: c.Secret.Name, Username: c.Secret.Username}
}
