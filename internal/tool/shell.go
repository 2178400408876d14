package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"toolhost/internal/domain"
)

const (
	defaultShellTimeout   = 30
	defaultMaxOutputBytes = 65536
)

// ShellProvider runs commands through sh -c with a handler-enforced timeout;
// the dispatcher imposes no additional wait of its own.
type ShellProvider struct {
	workingDir     string
	timeoutSeconds int
	maxOutputBytes int
}

type ShellConfig struct {
	WorkingDir     string
	TimeoutSeconds int
	MaxOutputBytes int
}

func NewShellProvider(cfg ShellConfig) *ShellProvider {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultShellTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &ShellProvider{
		workingDir:     cfg.WorkingDir,
		timeoutSeconds: cfg.TimeoutSeconds,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (p *ShellProvider) Name() string { return "shell" }

func (p *ShellProvider) Tools() (map[string]domain.ToolEntry, error) {
	return map[string]domain.ToolEntry{
		"shell_run": {
			Handler: p.run,
			Meta: &domain.Metadata{
				Description: "Execute a shell command. Returns combined stdout and stderr.",
				Category:    "shell",
				Cacheable:   cacheableFlag(false),
				InputSchema: Schema(map[string]Param{
					"command": {Type: "string", Description: "The shell command to execute (e.g. 'ls -la', 'git status')"},
					"timeout": {Type: "number", Description: "Optional timeout in seconds"},
				}, []string{"command"}),
			},
		},
		"shell_env": {
			Handler: p.env,
			Meta: &domain.Metadata{
				Description: "Show environment variables visible to executed commands, optionally filtered by prefix.",
				Category:    "shell",
				CacheTTL:    30,
				InputSchema: Schema(map[string]Param{
					"prefix": {Type: "string", Description: "Only variables whose name starts with this prefix"},
				}, nil),
			},
		},
	}, nil
}

func (p *ShellProvider) run(ctx context.Context, args map[string]any) (any, error) {
	command, err := RequireString(args, "command")
	if err != nil {
		return nil, err
	}
	command = strings.TrimSpace(command)

	dir := p.workingDir
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	timeout := time.Duration(p.timeoutSeconds) * time.Second
	if secs := ArgInt(args, "timeout", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// sh -c for reliable handling of pipes, redirects, and quoting.
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = absDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("command timed out or cancelled")
		}
		return nil, fmt.Errorf("exit: %w: %s", err, truncate(string(output), p.maxOutputBytes))
	}
	return truncate(string(output), p.maxOutputBytes), nil
}

func (p *ShellProvider) env(ctx context.Context, args map[string]any) (any, error) {
	prefix := ArgString(args, "prefix")
	var vars []string
	for _, kv := range os.Environ() {
		if prefix == "" || strings.HasPrefix(kv, prefix) {
			vars = append(vars, kv)
		}
	}
	sort.Strings(vars)
	return strings.Join(vars, "\n"), nil
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max] + "\n... (output truncated)"
	}
	return s
}

var _ domain.Provider = (*ShellProvider)(nil)
