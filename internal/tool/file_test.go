package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolhost/internal/domain"
)

func fileTools(t *testing.T) (map[string]domain.ToolEntry, string) {
	t.Helper()
	ws := t.TempDir()
	entries, err := NewFileProvider(ws).Tools()
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	return entries, ws
}

func TestFile_WriteThenRead(t *testing.T) {
	entries, _ := fileTools(t)
	ctx := context.Background()

	if _, err := entries["file_write"].Handler(ctx, map[string]any{
		"path":    "notes/a.txt",
		"content": "hello",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := entries["file_read"].Handler(ctx, map[string]any{"path": "notes/a.txt"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != "hello" {
		t.Fatalf("read back %q", v)
	}
}

func TestFile_AppendCreatesAndExtends(t *testing.T) {
	entries, _ := fileTools(t)
	ctx := context.Background()

	entries["file_append"].Handler(ctx, map[string]any{"path": "log.txt", "content": "one\n"})
	entries["file_append"].Handler(ctx, map[string]any{"path": "log.txt", "content": "two\n"})

	v, err := entries["file_read"].Handler(ctx, map[string]any{"path": "log.txt"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != "one\ntwo\n" {
		t.Fatalf("append result %q", v)
	}
}

func TestFile_TraversalRejected(t *testing.T) {
	entries, _ := fileTools(t)

	_, err := entries["file_read"].Handler(context.Background(), map[string]any{
		"path": "../../etc/passwd",
	})
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parameter error for traversal, got %v", err)
	}
}

func TestFile_MissingPathIsParamError(t *testing.T) {
	entries, _ := fileTools(t)

	_, err := entries["file_read"].Handler(context.Background(), nil)
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parameter error, got %v", err)
	}
}

func TestFile_WriteRequiresContent(t *testing.T) {
	entries, _ := fileTools(t)

	_, err := entries["file_write"].Handler(context.Background(), map[string]any{"path": "a.txt"})
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected parameter error for missing content, got %v", err)
	}
}

func TestFile_DeleteRemoves(t *testing.T) {
	entries, ws := fileTools(t)
	ctx := context.Background()

	target := filepath.Join(ws, "gone.txt")
	os.WriteFile(target, []byte("x"), 0o644)

	if _, err := entries["file_delete"].Handler(ctx, map[string]any{"path": "gone.txt"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("file still present after delete")
	}
}

func TestFile_ListDefaultsToWorkspaceRoot(t *testing.T) {
	entries, ws := fileTools(t)
	os.WriteFile(filepath.Join(ws, "visible.txt"), []byte("x"), 0o644)

	v, err := entries["file_list"].Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(v.(string), "visible.txt") {
		t.Fatalf("listing missed the file: %q", v)
	}
}

func TestFile_Info(t *testing.T) {
	entries, ws := fileTools(t)
	os.WriteFile(filepath.Join(ws, "info.txt"), []byte("12345"), 0o644)

	v, err := entries["file_info"].Handler(context.Background(), map[string]any{"path": "info.txt"})
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	m := v.(map[string]any)
	if m["size"] != int64(5) || m["is_dir"] != false {
		t.Fatalf("unexpected info: %v", m)
	}
}
