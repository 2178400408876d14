package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolhost/internal/domain"
)

// FileProvider exposes workspace-rooted file operations.
type FileProvider struct {
	workspace string
}

func NewFileProvider(workspace string) *FileProvider {
	return &FileProvider{workspace: workspace}
}

func (p *FileProvider) Name() string { return "file" }

// resolvePath resolves a path relative to the workspace and prevents traversal.
func (p *FileProvider) resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if !filepath.IsAbs(path) && p.workspace != "" {
		path = filepath.Join(p.workspace, path)
	}
	resolved, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if p.workspace != "" {
		wsAbs, err := filepath.Abs(p.workspace)
		if err != nil {
			return "", fmt.Errorf("resolve workspace: %w", err)
		}
		if !strings.HasPrefix(resolved, wsAbs+string(filepath.Separator)) && resolved != wsAbs {
			return "", domain.BadArg("path", fmt.Sprintf("%q is outside workspace %q", resolved, wsAbs))
		}
	}
	return resolved, nil
}

func (p *FileProvider) Tools() (map[string]domain.ToolEntry, error) {
	return map[string]domain.ToolEntry{
		"file_read": {
			Handler: p.read,
			Meta: &domain.Metadata{
				Description: "Read the contents of a file. Path is relative to workspace or absolute.",
				Category:    "files",
				InputSchema: Schema(map[string]Param{
					"path": {Type: "string", Description: "File path to read"},
				}, []string{"path"}),
			},
		},
		"file_write": {
			Handler: p.write,
			Meta: &domain.Metadata{
				Description: "Write content to a file, creating parent directories as needed. Overwrites.",
				Category:    "files",
				Cacheable:   cacheableFlag(false),
				InputSchema: Schema(map[string]Param{
					"path":    {Type: "string", Description: "File path to write"},
					"content": {Type: "string", Description: "Content to write"},
				}, []string{"path", "content"}),
			},
		},
		"file_append": {
			Handler: p.appendTo,
			Meta: &domain.Metadata{
				Description: "Append content to a file, creating it if absent.",
				Category:    "files",
				Cacheable:   cacheableFlag(false),
				InputSchema: Schema(map[string]Param{
					"path":    {Type: "string", Description: "File path to append to"},
					"content": {Type: "string", Description: "Content to append"},
				}, []string{"path", "content"}),
			},
		},
		"file_delete": {
			Handler: p.remove,
			Meta: &domain.Metadata{
				Description: "Delete a file inside the workspace.",
				Category:    "files",
				Cacheable:   cacheableFlag(false),
				InputSchema: Schema(map[string]Param{
					"path": {Type: "string", Description: "File path to delete"},
				}, []string{"path"}),
			},
		},
		"file_list": {
			Handler: p.list,
			Meta: &domain.Metadata{
				Description: "List files and directories at the given path. Use '.' for the workspace root.",
				Category:    "files",
				CacheTTL:    2,
				InputSchema: Schema(map[string]Param{
					"path": {Type: "string", Description: "Directory path to list"},
				}, nil),
			},
		},
		"file_info": {
			Handler: p.info,
			Meta: &domain.Metadata{
				Description: "Get size, mode, and modification time for a file or directory.",
				Category:    "files",
				CacheTTL:    2,
				InputSchema: Schema(map[string]Param{
					"path": {Type: "string", Description: "Path to inspect"},
				}, []string{"path"}),
			},
		},
	}, nil
}

func (p *FileProvider) read(ctx context.Context, args map[string]any) (any, error) {
	path, err := RequireString(args, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (p *FileProvider) write(ctx context.Context, args map[string]any) (any, error) {
	path, err := RequireString(args, "path")
	if err != nil {
		return nil, err
	}
	if _, ok := args["content"]; !ok {
		return nil, domain.MissingArg("content")
	}
	content := ArgString(args, "content")
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), resolved), nil
}

func (p *FileProvider) appendTo(ctx context.Context, args map[string]any) (any, error) {
	path, err := RequireString(args, "path")
	if err != nil {
		return nil, err
	}
	content := ArgString(args, "content")
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	return fmt.Sprintf("Appended %d bytes to %s", len(content), resolved), nil
}

func (p *FileProvider) remove(ctx context.Context, args map[string]any) (any, error) {
	path, err := RequireString(args, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(resolved); err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}
	return "Deleted " + resolved, nil
}

func (p *FileProvider) list(ctx context.Context, args map[string]any) (any, error) {
	path := ArgString(args, "path")
	if path == "" {
		path = "."
	}
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("list dir: %w", err)
	}
	var lines []string
	for _, e := range entries {
		info, err := e.Info()
		size := ""
		if err == nil && info != nil && !e.IsDir() {
			size = fmt.Sprintf(" %d", info.Size())
		}
		lines = append(lines, e.Name()+size)
	}
	return strings.Join(lines, "\n"), nil
}

func (p *FileProvider) info(ctx context.Context, args map[string]any) (any, error) {
	path, err := RequireString(args, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := p.resolvePath(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	return map[string]any{
		"path":     resolved,
		"size":     fi.Size(),
		"mode":     fi.Mode().String(),
		"modified": fi.ModTime(),
		"is_dir":   fi.IsDir(),
	}, nil
}

var _ domain.Provider = (*FileProvider)(nil)
