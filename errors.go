package wetwire_network

import (
	"fmt"
	"strings"
)

// ConfigError reports invalid or missing input. It is raised before any
// graph construction starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// CapacityError reports an allocation that does not fit the parent address
// space. Allocation never truncates.
type CapacityError struct {
	Parent       string
	PrefixLength int
	// Requested is the number of child blocks asked for.
	Requested int
	// Span is how many blocks from the start of the parent the allocation
	// reaches, counting the reserved offset band. Zero means Requested.
	Span      int
	Available int
}

func (e *CapacityError) Error() string {
	if e.Span > e.Requested {
		return fmt.Sprintf("%s cannot hold %d /%d blocks spanning %d block offsets (capacity %d)",
			e.Parent, e.Requested, e.PrefixLength, e.Span, e.Available)
	}
	return fmt.Sprintf("%s cannot hold %d /%d blocks (capacity %d)",
		e.Parent, e.Requested, e.PrefixLength, e.Available)
}

// DependencyError reports a reference to a logical id that is neither in the
// graph nor declared external.
type DependencyError struct {
	From   string
	To     string
	Reason string
}

func (e *DependencyError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "unresolved reference"
	}
	if e.From == "" {
		return fmt.Sprintf("%s: %s", reason, e.To)
	}
	return fmt.Sprintf("%s: %s -> %s", reason, e.From, e.To)
}

// CycleError reports a reference cycle. Path starts and ends at the same id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return "circular dependency detected:\n  " + strings.Join(e.Path, "\n    → ")
}
