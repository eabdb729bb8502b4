// Package stacks builds the stacks that sit on top of a network: VPC
// endpoints, flow logs, an EKS cluster and an application secret.
//
// Every builder reads the network only through emit.Exports, so a stack
// imports published ids and never references a network logical id directly.
package stacks

import (
	"fmt"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Stack names, in build order.
const (
	Network   = "network"
	Endpoints = "endpoints"
	FlowLogs  = "flowlogs"
	Cluster   = "cluster"
	Secret    = "secret"
)

// Names lists every stack name in build order.
var Names = []string{Network, Endpoints, FlowLogs, Cluster, Secret}

// builder accumulates one stack's nodes and stops at the first error.
type builder struct {
	g       *graph.Graph
	exports emit.Exports
	err     error
}

func newBuilder(description string, x emit.Exports) *builder {
	return &builder{g: graph.New(description), exports: x}
}

func (b *builder) add(id string, kind graph.Kind, props map[string]any, dependsOn ...string) {
	if b.err != nil {
		return
	}
	b.err = b.g.Add(graph.Node{ID: id, Kind: kind, Properties: props, DependsOn: dependsOn})
}

func (b *builder) output(name, description string, value any) {
	if b.err != nil {
		return
	}
	b.err = b.g.AddOutput(name, wetwire.Output{
		Description: description,
		Value:       value,
		Export:      &wetwire.Export{Name: emit.ExportName(b.exports.Network, name)},
	})
}

// finish validates the graph. No graph escapes on error.
func (b *builder) finish(stack string) (*graph.Graph, error) {
	if b.err != nil {
		return nil, fmt.Errorf("building %s stack: %w", stack, b.err)
	}
	if err := b.g.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s stack: %w", stack, err)
	}
	return b.g, nil
}

func (b *builder) name(suffix string) string {
	return b.exports.Network + "-" + suffix
}

func (b *builder) nameTag(suffix string) []any {
	return []any{intrinsics.Tag{Key: "Name", Value: b.name(suffix)}}
}

func requireTier(stack string, x emit.Exports, tier topology.Tier) error {
	if !x.HasTier(tier) {
		return &wetwire.ConfigError{
			Field:  stack,
			Reason: fmt.Sprintf("network %s publishes no %s subnets", x.Network, tier),
		}
	}
	return nil
}
