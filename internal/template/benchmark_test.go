package template

import (
	"fmt"
	"testing"

	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/internal/topology"
)

var benchSizes = []int{4, 32, 128}

func benchGraph(b *testing.B, private int) *graph.Graph {
	b.Helper()
	n, err := topology.Synthesize(topology.NetworkConfig{
		Name:              "bench",
		CIDR:              "10.0.0.0/16",
		AvailabilityZones: []string{"us-east-1a", "us-east-1b", "us-east-1c"},
		PublicSubnets:     2,
		PrivateSubnets:    private,
		NATGateway:        true,
	})
	if err != nil {
		b.Fatal(err)
	}
	res, err := emit.Emit(n)
	if err != nil {
		b.Fatal(err)
	}
	return res.Graph
}

// BenchmarkSynthesize benchmarks topology synthesis and emission with a
// growing private tier.
func BenchmarkSynthesize(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("private_%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				benchGraph(b, size)
			}
		})
	}
}

// BenchmarkBuild benchmarks graph to template conversion.
func BenchmarkBuild(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("private_%d", size), func(b *testing.B) {
			g := benchGraph(b, size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Build(g); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkToJSON benchmarks JSON serialization.
func BenchmarkToJSON(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("private_%d", size), func(b *testing.B) {
			tmpl, err := Build(benchGraph(b, size))
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToJSON(tmpl); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkToYAML benchmarks YAML serialization.
func BenchmarkToYAML(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("private_%d", size), func(b *testing.B) {
			tmpl, err := Build(benchGraph(b, size))
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToYAML(tmpl); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
