package tool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"toolhost/internal/domain"
)

// ManifestTool is one YAML-declared, shell-backed tool. Arguments are passed
// to the command as TOOL_ARG_<NAME> environment variables.
type ManifestTool struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Cacheable   *bool    `yaml:"cacheable"`
	CacheTTL    float64  `yaml:"cache_ttl"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args"`     // declared argument names
	Required    []string `yaml:"required"` // subset of Args
	Timeout     int      `yaml:"timeout"`  // seconds, default 30
}

// ManifestProvider loads tool manifests from a directory of YAML files.
// A missing directory is not an error; bad files are skipped with a warning.
type ManifestProvider struct {
	dir    string
	logger *slog.Logger
}

func NewManifestProvider(dir string, logger *slog.Logger) *ManifestProvider {
	return &ManifestProvider{dir: dir, logger: logger}
}

func (p *ManifestProvider) Name() string { return "manifest" }

func (p *ManifestProvider) Tools() (map[string]domain.ToolEntry, error) {
	entries := make(map[string]domain.ToolEntry)
	if p.dir == "" {
		return entries, nil
	}
	if _, err := os.Stat(p.dir); os.IsNotExist(err) {
		p.logger.Debug("manifest directory does not exist, skipping", "dir", p.dir)
		return entries, nil
	}

	files, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir: %w", err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(p.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("cannot read manifest", "path", path, "err", err)
			continue
		}
		var m ManifestTool
		if err := yaml.Unmarshal(data, &m); err != nil {
			p.logger.Warn("cannot parse manifest", "path", path, "err", err)
			continue
		}
		if m.Name == "" {
			m.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if m.Command == "" {
			p.logger.Warn("manifest has no command, skipping", "path", path)
			continue
		}

		entries[m.Name] = newManifestEntry(m)
		p.logger.Info("loaded tool manifest", "name", m.Name, "path", path)
	}
	return entries, nil
}

// newManifestEntry builds the entry for one manifest. The manifest is passed
// by value so each handler closes over its own copy, not a shared loop
// variable.
func newManifestEntry(m ManifestTool) domain.ToolEntry {
	props := make(map[string]Param, len(m.Args))
	for _, a := range m.Args {
		props[a] = Param{Type: "string", Description: "Manifest argument " + a}
	}
	return domain.ToolEntry{
		Handler: m.run,
		Meta: &domain.Metadata{
			Description: m.Description,
			Category:    nonEmpty(m.Category, "manifest"),
			Cacheable:   m.Cacheable,
			CacheTTL:    m.CacheTTL,
			InputSchema: Schema(props, m.Required),
		},
	}
}

func (m ManifestTool) run(ctx context.Context, args map[string]any) (any, error) {
	for _, req := range m.Required {
		if ArgString(args, req) == "" {
			return nil, domain.MissingArg(req)
		}
	}

	timeout := time.Duration(m.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", m.Command)
	cmd.Env = append(os.Environ(), manifestEnv(m.Args, args)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("manifest tool %s timed out", m.Name)
		}
		return nil, fmt.Errorf("manifest tool %s: %w: %s", m.Name, err, output)
	}
	return strings.TrimRight(string(output), "\n"), nil
}

func manifestEnv(declared []string, args map[string]any) []string {
	sorted := append([]string(nil), declared...)
	sort.Strings(sorted)
	var env []string
	for _, a := range sorted {
		env = append(env, fmt.Sprintf("TOOL_ARG_%s=%s", strings.ToUpper(a), ArgString(args, a)))
	}
	return env
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var _ domain.Provider = (*ManifestProvider)(nil)
