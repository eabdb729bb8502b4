// Package synth runs one synthesis pass: the network stack and every enabled
// downstream stack, each rendered as a template.
package synth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/azs"
	"github.com/lex00/wetwire-network-go/internal/config"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/stacks"
	"github.com/lex00/wetwire-network-go/internal/template"
	"github.com/lex00/wetwire-network-go/internal/topology"
)

// DiscoverFunc lists availability zones for a profile and region.
type DiscoverFunc func(ctx context.Context, profile, region string) ([]string, error)

// Stack is one synthesized stack.
type Stack struct {
	Name     string
	Graph    *graph.Graph
	Template *wetwire.Template
}

// Result is everything one pass produced. Stacks are in build order and the
// network stack is always first.
type Result struct {
	Network *topology.Network
	Exports emit.Exports
	Stacks  []Stack
}

// Stack returns the named stack.
func (r *Result) Stack(name string) (Stack, bool) {
	for _, s := range r.Stacks {
		if s.Name == name {
			return s, true
		}
	}
	return Stack{}, false
}

// Names returns the stack names in build order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Stacks))
	for _, s := range r.Stacks {
		names = append(names, s.Name)
	}
	return names
}

// Synthesizer runs synthesis passes. It holds no state between passes.
type Synthesizer struct {
	logger   *zap.Logger
	discover DiscoverFunc
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithDiscover replaces live EC2 zone discovery.
func WithDiscover(fn DiscoverFunc) Option {
	return func(s *Synthesizer) { s.discover = fn }
}

// New returns a Synthesizer logging to logger; nil discards logs.
func New(logger *zap.Logger, opts ...Option) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synthesizer{logger: logger, discover: azs.Discover}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run synthesizes every enabled stack. Nothing is returned on error.
func (s *Synthesizer) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	netCfg := cfg.Topology()
	if len(netCfg.AvailabilityZones) == 0 && cfg.Discovery.Enabled {
		zones, err := s.discover(ctx, cfg.Discovery.Profile, cfg.Discovery.Region)
		if err != nil {
			return nil, fmt.Errorf("discovering availability zones: %w", err)
		}
		s.logger.Info("discovered availability zones",
			zap.String("region", cfg.Discovery.Region),
			zap.Strings("azs", zones))
		netCfg.AvailabilityZones = zones
	}

	n, err := topology.Synthesize(netCfg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("network synthesized",
		zap.String("cidr", n.VPC.CIDR.String()),
		zap.Strings("azs", n.Zones),
		zap.Int("subnets", len(n.Subnets)),
		zap.Bool("nat", n.NATGateway != nil))

	emitted, err := emit.Emit(n)
	if err != nil {
		return nil, err
	}

	res := &Result{Network: n, Exports: emitted.Exports}
	if err := s.add(res, stacks.Network, emitted.Graph); err != nil {
		return nil, err
	}

	x := emitted.Exports
	builds := []struct {
		name    string
		enabled bool
		build   func() (*graph.Graph, error)
	}{
		{stacks.Endpoints, cfg.Endpoints.Enabled, func() (*graph.Graph, error) { return stacks.BuildEndpoints(x, cfg.EndpointsStack()) }},
		{stacks.FlowLogs, cfg.FlowLogs.Enabled, func() (*graph.Graph, error) { return stacks.BuildFlowLogs(x, cfg.FlowLogsStack()) }},
		{stacks.Cluster, cfg.Cluster.Enabled, func() (*graph.Graph, error) { return stacks.BuildCluster(x, cfg.ClusterStack()) }},
		{stacks.Secret, cfg.Secret.Enabled, func() (*graph.Graph, error) { return stacks.BuildSecret(x, cfg.SecretStack()) }},
	}
	for _, b := range builds {
		if !b.enabled {
			s.logger.Debug("stack disabled", zap.String("stack", b.name))
			continue
		}
		g, err := b.build()
		if err != nil {
			return nil, err
		}
		if err := s.add(res, b.name, g); err != nil {
			return nil, err
		}
	}

	s.logger.Info("synthesis complete",
		zap.String("network", n.Config.Name),
		zap.Strings("stacks", res.Names()))
	return res, nil
}

func (s *Synthesizer) add(res *Result, name string, g *graph.Graph) error {
	tmpl, err := template.Build(g)
	if err != nil {
		return fmt.Errorf("building %s template: %w", name, err)
	}
	res.Stacks = append(res.Stacks, Stack{Name: name, Graph: g, Template: tmpl})
	s.logger.Info("stack synthesized",
		zap.String("stack", name),
		zap.Int("resources", g.Len()),
		zap.Int("outputs", len(tmpl.Outputs)),
		zap.Int("imports", len(g.Imports())))
	return nil
}
