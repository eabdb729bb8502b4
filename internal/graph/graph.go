// Package graph holds the resource graph handed to the provisioning engine:
// logical id → (kind, properties, dependencies), plus stack outputs.
//
// Dependencies are never declared by hand. They are read from the Ref,
// GetAtt and Sub intrinsics inside a node's properties, plus an explicit
// DependsOn list for ordering constraints that carry no reference.
package graph

import (
	"fmt"
	"sort"

	wetwire "github.com/lex00/wetwire-network-go"
)

// Node is one declared resource.
type Node struct {
	ID         string
	Kind       Kind
	Properties map[string]any
	DependsOn  []string

	refs    []Reference
	imports []string
}

// References returns the references found in the node's properties.
func (n Node) References() []Reference {
	return append([]Reference(nil), n.refs...)
}

// Imports returns the export names the node imports.
func (n Node) Imports() []string {
	return append([]string(nil), n.imports...)
}

// Graph is a set of nodes keyed by logical id. A Graph is built by a single
// synthesis pass and is not safe for concurrent mutation.
type Graph struct {
	description string
	nodes       map[string]*Node
	order       []string
	externals   map[string]bool
	outputs     map[string]wetwire.Output
	outputRefs  map[string][]Reference
}

// New returns an empty graph.
func New(description string) *Graph {
	return &Graph{
		description: description,
		nodes:       make(map[string]*Node),
		externals:   make(map[string]bool),
		outputs:     make(map[string]wetwire.Output),
		outputRefs:  make(map[string][]Reference),
	}
}

// Description returns the stack description.
func (g *Graph) Description() string {
	return g.description
}

// Add inserts a node and records the references in its properties.
func (g *Graph) Add(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("node of kind %s has no logical id", n.Kind)
	}
	if n.Kind == "" {
		return fmt.Errorf("node %s has no kind", n.ID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return &wetwire.DependencyError{To: n.ID, Reason: "duplicate logical id"}
	}

	refs, imports, err := collect(n.Properties)
	if err != nil {
		return fmt.Errorf("node %s: %w", n.ID, err)
	}
	n.refs = refs
	n.imports = imports
	n.DependsOn = sortedUnique(n.DependsOn)

	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// DeclareExternal marks id as defined outside the graph, such as a template
// parameter. References to it resolve without a node.
func (g *Graph) DeclareExternal(id string) {
	g.externals[id] = true
}

// IsExternal reports whether id was declared external.
func (g *Graph) IsExternal(id string) bool {
	return g.externals[id]
}

// Externals returns the declared external ids, sorted.
func (g *Graph) Externals() []string {
	out := make([]string, 0, len(g.externals))
	for id := range g.externals {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AddOutput publishes a stack output.
func (g *Graph) AddOutput(name string, out wetwire.Output) error {
	if _, exists := g.outputs[name]; exists {
		return fmt.Errorf("duplicate output %s", name)
	}
	refs, _, err := collect(out.Value)
	if err != nil {
		return fmt.Errorf("output %s: %w", name, err)
	}
	g.outputs[name] = out
	g.outputRefs[name] = refs
	return nil
}

// Outputs returns a copy of the stack outputs.
func (g *Graph) Outputs() map[string]wetwire.Output {
	out := make(map[string]wetwire.Output, len(g.outputs))
	for k, v := range g.outputs {
		out[k] = v
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether a node with id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// IDs returns every logical id, sorted.
func (g *Graph) IDs() []string {
	ids := append([]string(nil), g.order...)
	sort.Strings(ids)
	return ids
}

// Imports returns every export name imported by any node, sorted.
func (g *Graph) Imports() []string {
	set := make(map[string]bool)
	for _, n := range g.nodes {
		for _, name := range n.imports {
			set[name] = true
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns the node ids id depends on, through references or
// DependsOn, sorted. Externals are not included.
func (g *Graph) Dependencies(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var deps []string
	for _, r := range n.refs {
		if _, isNode := g.nodes[r.To]; isNode {
			deps = append(deps, r.To)
		}
	}
	for _, d := range n.DependsOn {
		if _, isNode := g.nodes[d]; isNode {
			deps = append(deps, d)
		}
	}
	return sortedUnique(deps)
}

// Validate checks that every reference resolves and the graph is acyclic.
func (g *Graph) Validate() error {
	_, err := g.Order()
	return err
}

// Order returns the logical ids in dependency order: every node appears after
// everything it depends on. Ties are broken alphabetically, so the order is
// stable across runs.
func (g *Graph) Order() ([]string, error) {
	if err := g.checkReferences(); err != nil {
		return nil, err
	}

	dependents := make(map[string][]string)
	inDegree := make(map[string]int)
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for id := range g.nodes {
		for _, dep := range g.Dependencies(id) {
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var queue []string
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, g.findCycle()
	}
	return result, nil
}

func (g *Graph) checkReferences() error {
	for _, id := range g.IDs() {
		n := g.nodes[id]
		for _, r := range n.refs {
			if !g.resolves(r.To) {
				return &wetwire.DependencyError{From: id, To: r.To}
			}
		}
		for _, d := range n.DependsOn {
			if _, ok := g.nodes[d]; !ok {
				return &wetwire.DependencyError{From: id, To: d, Reason: "DependsOn target not in graph"}
			}
		}
	}

	names := make([]string, 0, len(g.outputRefs))
	for name := range g.outputRefs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, r := range g.outputRefs[name] {
			if !g.resolves(r.To) {
				return &wetwire.DependencyError{From: "Outputs." + name, To: r.To}
			}
		}
	}
	return nil
}

func (g *Graph) resolves(id string) bool {
	if _, ok := g.nodes[id]; ok {
		return true
	}
	return g.externals[id]
}

// findCycle reports one cycle as a path that starts and ends on the same id.
func (g *Graph) findCycle() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int)
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = onPath
		stack = append(stack, id)
		for _, dep := range g.Dependencies(id) {
			switch state[dep] {
			case onPath:
				for i, s := range stack {
					if s == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.IDs() {
		if state[id] == unvisited && visit(id) {
			return &wetwire.CycleError{Path: cycle}
		}
	}
	return &wetwire.CycleError{}
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	set := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !set[s] {
			set[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
