package graph

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lex00/wetwire-network-go/intrinsics"
)

// Reference is one edge found in a value: a Ref, a GetAtt or a Sub variable.
type Reference struct {
	To string
	// Attribute is set for GetAtt references.
	Attribute string
}

var subVariable = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// Normalize converts a value built from intrinsics and Go types into plain
// JSON data (maps, slices, strings, numbers, booleans).
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scan collects references and imported export names from normalized data.
func scan(v any, refs map[Reference]bool, imports map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if handled := scanIntrinsic(val, refs, imports); handled {
				return
			}
		}
		for _, child := range val {
			scan(child, refs, imports)
		}
	case []any:
		for _, child := range val {
			scan(child, refs, imports)
		}
	}
}

func scanIntrinsic(m map[string]any, refs map[Reference]bool, imports map[string]bool) bool {
	for key, arg := range m {
		switch key {
		case "Ref":
			if name, ok := arg.(string); ok && !intrinsics.IsPseudo(name) {
				refs[Reference{To: name}] = true
			}
			return true
		case "Fn::GetAtt":
			switch a := arg.(type) {
			case []any:
				if len(a) == 2 {
					name, _ := a[0].(string)
					attr, _ := a[1].(string)
					refs[Reference{To: name, Attribute: attr}] = true
				}
			case string:
				name, attr, _ := strings.Cut(a, ".")
				refs[Reference{To: name, Attribute: attr}] = true
			}
			return true
		case "Fn::Sub":
			switch a := arg.(type) {
			case string:
				scanSub(a, nil, refs)
			case []any:
				if len(a) == 2 {
					s, _ := a[0].(string)
					vars, _ := a[1].(map[string]any)
					scanSub(s, vars, refs)
					scan(a[1], refs, imports)
				}
			}
			return true
		case "Fn::ImportValue":
			if name, ok := arg.(string); ok {
				imports[name] = true
				return true
			}
			scan(arg, refs, imports)
			return true
		}
	}
	return false
}

func scanSub(s string, locals map[string]any, refs map[Reference]bool) {
	for _, m := range subVariable.FindAllStringSubmatch(s, -1) {
		name, attr, _ := strings.Cut(m[1], ".")
		if intrinsics.IsPseudo(name) {
			continue
		}
		if _, local := locals[name]; local {
			continue
		}
		refs[Reference{To: name, Attribute: attr}] = true
	}
}

// References returns the references in v, sorted by target then attribute.
func References(v any) ([]Reference, error) {
	refs, _, err := collect(v)
	return refs, err
}

func collect(v any) ([]Reference, []string, error) {
	norm, err := Normalize(v)
	if err != nil {
		return nil, nil, fmt.Errorf("normalizing value: %w", err)
	}
	refSet := make(map[Reference]bool)
	importSet := make(map[string]bool)
	scan(norm, refSet, importSet)

	refs := make([]Reference, 0, len(refSet))
	for r := range refSet {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].To != refs[j].To {
			return refs[i].To < refs[j].To
		}
		return refs[i].Attribute < refs[j].Attribute
	})

	imports := make([]string, 0, len(importSet))
	for name := range importSet {
		imports = append(imports, name)
	}
	sort.Strings(imports)
	return refs, imports, nil
}
