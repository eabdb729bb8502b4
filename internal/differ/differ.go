// Package differ provides semantic comparison of CloudFormation templates.
//
// Two synthesis passes over the same configuration must compare equal; the
// diff command uses this to show what a configuration change does.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-network-go"
)

// outputType is the DiffEntry type of an output, so outputs sort and print
// beside resources.
const outputType = "Output"

// Options configures the differ.
type Options struct {
	// IgnoreOrder treats lists, DependsOn included, as sets.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// Compare reports resources and outputs added in next, removed from prev, and
// changed between the two. Entries are sorted by name.
func Compare(prev, next *wetwire.Template, opts Options) (*Result, error) {
	if prev == nil || next == nil {
		return nil, fmt.Errorf("compare: nil template")
	}
	result := &Result{}
	d := &result.Diff

	added, removed, common := partition(prev.Resources, next.Resources)
	for _, name := range added {
		d.Added = append(d.Added, wetwire.DiffEntry{Resource: name, Type: next.Resources[name].Type})
	}
	for _, name := range removed {
		d.Removed = append(d.Removed, wetwire.DiffEntry{Resource: name, Type: prev.Resources[name].Type})
	}
	for _, name := range common {
		before := prev.Resources[name]
		if changes := compareResources(before, next.Resources[name], opts); len(changes) > 0 {
			d.Modified = append(d.Modified, wetwire.DiffEntry{Resource: name, Type: before.Type, Changes: changes})
		}
	}

	added, removed, common = partition(prev.Outputs, next.Outputs)
	for _, name := range added {
		d.Added = append(d.Added, wetwire.DiffEntry{Resource: "Outputs." + name, Type: outputType})
	}
	for _, name := range removed {
		d.Removed = append(d.Removed, wetwire.DiffEntry{Resource: "Outputs." + name, Type: outputType})
	}
	for _, name := range common {
		if changes := compareOutputs(prev.Outputs[name], next.Outputs[name], opts); len(changes) > 0 {
			d.Modified = append(d.Modified, wetwire.DiffEntry{Resource: "Outputs." + name, Type: outputType, Changes: changes})
		}
	}

	for _, entries := range [][]wetwire.DiffEntry{d.Added, d.Removed, d.Modified} {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Resource < entries[j].Resource })
	}

	result.Summary = wetwire.DiffSummary{
		Added:    len(d.Added),
		Removed:  len(d.Removed),
		Modified: len(d.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified
	return result, nil
}

// partition splits the keys of two maps into sorted added, removed and
// common sets.
func partition[V any](prev, next map[string]V) (added, removed, common []string) {
	for k := range next {
		if _, ok := prev[k]; ok {
			common = append(common, k)
		} else {
			added = append(added, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(common)
	return added, removed, common
}

func compareResources(prev, next wetwire.ResourceDef, opts Options) []string {
	var changes []string
	if prev.Type != next.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", prev.Type, next.Type))
	}
	changes = append(changes, compareProperties("", prev.Properties, next.Properties, opts)...)

	before, after := prev.DependsOn, next.DependsOn
	if opts.IgnoreOrder {
		before, after = sortedCopy(before), sortedCopy(after)
	}
	if !equalStringSlices(before, after) {
		changes = append(changes, "DependsOn changed")
	}
	return changes
}

func compareOutputs(prev, next wetwire.Output, opts Options) []string {
	var changes []string
	if !equalValues(prev.Value, next.Value, opts) {
		changes = append(changes, "Value modified")
	}
	if exportName(prev) != exportName(next) {
		changes = append(changes, fmt.Sprintf("Export changed: %q → %q", exportName(prev), exportName(next)))
	}
	return changes
}

// compareProperties reports "<path> added", "<path> removed" and
// "<path> modified" for property paths. Nested objects are walked so a
// change names the innermost differing key; intrinsic calls and lists are
// compared whole.
func compareProperties(prefix string, prev, next map[string]any, opts Options) []string {
	var changes []string
	added, removed, common := partition(prev, next)
	for _, k := range added {
		changes = append(changes, join(prefix, k)+" added")
	}
	for _, k := range removed {
		changes = append(changes, join(prefix, k)+" removed")
	}
	for _, k := range common {
		a, b := prev[k], next[k]
		am, aok := a.(map[string]any)
		bm, bok := b.(map[string]any)
		if aok && bok && !isIntrinsic(am) && !isIntrinsic(bm) {
			changes = append(changes, compareProperties(join(prefix, k), am, bm, opts)...)
			continue
		}
		if !equalValues(a, b, opts) {
			changes = append(changes, join(prefix, k)+" modified")
		}
	}
	sort.Strings(changes)
	return changes
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isIntrinsic reports whether m is a single-key Ref or Fn:: call.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

func equalValues(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a, b = canonical(a), canonical(b)
	}
	return reflect.DeepEqual(a, b)
}

// canonical sorts every list in v by the JSON encoding of its elements.
func canonical(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = canonical(elem)
		}
		sort.SliceStable(out, func(i, j int) bool { return jsonKey(out[i]) < jsonKey(out[j]) })
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = canonical(elem)
		}
		return out
	default:
		return v
	}
}

func jsonKey(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func exportName(o wetwire.Output) string {
	if o.Export == nil {
		return ""
	}
	return o.Export.Name
}

// equalStringSlices treats nil and empty as equal.
func equalStringSlices(a, b []string) bool {
	return slices.Equal(a, b)
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	sort.Strings(out)
	return out
}

// CompareFiles loads two template files and compares them.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}
	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}
	return Compare(t1, t2, opts)
}

// LoadTemplate reads a JSON or YAML template. Values come back as JSON data
// either way, so a template compares equal to its own YAML rendering.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t wetwire.Template
	if err := json.Unmarshal(data, &t); err == nil {
		return &t, nil
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}

	// YAML decodes integers as int where JSON yields float64.
	data, err = json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	var normalized wetwire.Template
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return &normalized, nil
}
