package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"toolhost/internal/domain"
)

func writeManifest(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestManifest_LoadsDeclaredTools(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "greet.yaml", `
name: greet
description: Greet someone by name.
category: demo
cacheable: false
command: echo "hello $TOOL_ARG_WHO"
args: [who]
required: [who]
`)

	entries, err := NewManifestProvider(dir, discard()).Tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	entry, ok := entries["greet"]
	if !ok {
		t.Fatalf("greet not loaded, got %d entries", len(entries))
	}
	if entry.Meta.Description != "Greet someone by name." || entry.Meta.Category != "demo" {
		t.Fatalf("metadata not carried: %+v", entry.Meta)
	}
	if entry.Meta.Cacheable == nil || *entry.Meta.Cacheable {
		t.Fatal("cacheable: false not carried")
	}
}

func TestManifest_RunPassesArgsAsEnv(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "greet.yaml", `
name: greet
command: echo "hello $TOOL_ARG_WHO"
args: [who]
required: [who]
`)

	entries, _ := NewManifestProvider(dir, discard()).Tools()
	v, err := entries["greet"].Handler(context.Background(), map[string]any{"who": "world"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v != "hello world" {
		t.Fatalf("unexpected output %q", v)
	}
}

func TestManifest_RequiredArgEnforced(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "greet.yaml", `
name: greet
command: echo hi
args: [who]
required: [who]
`)

	entries, _ := NewManifestProvider(dir, discard()).Tools()
	_, err := entries["greet"].Handler(context.Background(), nil)
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parameter error, got %v", err)
	}
}

func TestManifest_NameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "uptime.yml", `command: echo up`)

	entries, _ := NewManifestProvider(dir, discard()).Tools()
	if _, ok := entries["uptime"]; !ok {
		t.Fatalf("filename-derived name missing: %v", entries)
	}
}

func TestManifest_BadFilesSkipped(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "broken.yaml", "::: not yaml :::")
	writeManifest(t, dir, "nocmd.yaml", `name: nocmd`)
	writeManifest(t, dir, "good.yaml", `command: echo ok`)
	writeManifest(t, dir, "ignored.txt", "not a manifest")

	entries, err := NewManifestProvider(dir, discard()).Tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the good manifest, got %v", entries)
	}
}

func TestManifest_MissingDirIsEmpty(t *testing.T) {
	p := NewManifestProvider(filepath.Join(t.TempDir(), "nope"), discard())
	entries, err := p.Tools()
	if err != nil {
		t.Fatalf("missing dir must not error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no tools, got %v", entries)
	}
}

func TestManifest_EachToolKeepsItsOwnCommand(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.yaml", `command: echo alpha`)
	writeManifest(t, dir, "b.yaml", `command: echo beta`)

	entries, _ := NewManifestProvider(dir, discard()).Tools()
	ctx := context.Background()

	va, err := entries["a"].Handler(ctx, nil)
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	vb, err := entries["b"].Handler(ctx, nil)
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if va != "alpha" || vb != "beta" {
		t.Fatalf("handlers crossed: %q %q", va, vb)
	}
}
