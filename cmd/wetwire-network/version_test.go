package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	version := getVersion()

	if version == "" {
		t.Error("getVersion() returned empty string")
	}

	// Tests run without ldflags or a module version, so "dev" is expected.
	if version != "dev" && !strings.HasPrefix(version, "v") {
		t.Errorf("getVersion() = %q, want 'dev' or 'vX.Y.Z'", version)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "wetwire-network ") {
		t.Errorf("output = %q, want prefix 'wetwire-network '", out.String())
	}
}
