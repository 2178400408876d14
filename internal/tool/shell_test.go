package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"toolhost/internal/domain"
)

func shellTools(t *testing.T) map[string]domain.ToolEntry {
	t.Helper()
	entries, err := NewShellProvider(ShellConfig{WorkingDir: t.TempDir()}).Tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	return entries
}

func TestShell_RunCapturesOutput(t *testing.T) {
	entries := shellTools(t)

	v, err := entries["shell_run"].Handler(context.Background(), map[string]any{
		"command": "echo hello",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(v.(string)) != "hello" {
		t.Fatalf("unexpected output %q", v)
	}
}

func TestShell_RunRequiresCommand(t *testing.T) {
	entries := shellTools(t)

	_, err := entries["shell_run"].Handler(context.Background(), nil)
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parameter error, got %v", err)
	}
}

func TestShell_FailingCommandReportsOutput(t *testing.T) {
	entries := shellTools(t)

	_, err := entries["shell_run"].Handler(context.Background(), map[string]any{
		"command": "echo oops >&2; exit 3",
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestShell_TimeoutArgEnforced(t *testing.T) {
	entries := shellTools(t)

	_, err := entries["shell_run"].Handler(context.Background(), map[string]any{
		"command": "sleep 5",
		"timeout": 1.0, // JSON numbers arrive as float64
	})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestShell_EnvFiltering(t *testing.T) {
	t.Setenv("TOOLHOST_SHELL_TEST", "42")
	entries := shellTools(t)
	ctx := context.Background()

	v, err := entries["shell_env"].Handler(ctx, map[string]any{"prefix": "TOOLHOST_SHELL_TEST"})
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if v != "TOOLHOST_SHELL_TEST=42" {
		t.Fatalf("unexpected env output %q", v)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncate(long, 10)
	if !strings.HasPrefix(got, "xxxxxxxxxx") || !strings.Contains(got, "truncated") {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Fatal("short output must pass through")
	}
}
