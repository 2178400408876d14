package tool

import (
	"context"
	"strings"
	"testing"
)

func TestSysInfo_ReportsHostFacts(t *testing.T) {
	entries, err := NewSysProvider().Tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}

	v, err := entries["system_info"].Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	out := v.(string)
	for _, want := range []string{"Hostname:", "OS:", "CPUs:", "PID:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info missing %q:\n%s", want, out)
		}
	}
}

func TestSysInfo_UsesLegacyEntries(t *testing.T) {
	entries, _ := NewSysProvider().Tools()
	for name, e := range entries {
		if e.Meta != nil {
			t.Fatalf("%s should be a bare-callable entry", name)
		}
		if e.Handler == nil {
			t.Fatalf("%s has no handler", name)
		}
	}
}

func TestSysInfo_Uptime(t *testing.T) {
	entries, _ := NewSysProvider().Tools()
	v, err := entries["system_uptime"].Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if v.(string) == "" {
		t.Fatal("empty uptime")
	}
}
