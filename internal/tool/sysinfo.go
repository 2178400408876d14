package tool

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"toolhost/internal/domain"
)

// SysProvider reports host and process information. It deliberately uses the
// legacy bare-callable form (no metadata) so the registry's synthesized
// defaults stay exercised by a real provider.
type SysProvider struct {
	startTime time.Time
}

func NewSysProvider() *SysProvider {
	return &SysProvider{startTime: time.Now()}
}

func (p *SysProvider) Name() string { return "system" }

func (p *SysProvider) Tools() (map[string]domain.ToolEntry, error) {
	return map[string]domain.ToolEntry{
		"system_info":   {Handler: p.info},
		"system_uptime": {Handler: p.uptime},
	}, nil
}

func (p *SysProvider) info(ctx context.Context, args map[string]any) (any, error) {
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := []string{
		"=== System Information ===",
		fmt.Sprintf("Hostname: %s", hostname),
		fmt.Sprintf("OS: %s/%s", runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("CPUs: %d", runtime.NumCPU()),
		fmt.Sprintf("Go: %s", runtime.Version()),
		fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()),
		fmt.Sprintf("Heap: %.1f MB", float64(mem.HeapAlloc)/(1024*1024)),
		fmt.Sprintf("Working dir: %s", cwd),
		fmt.Sprintf("PID: %d", os.Getpid()),
	}
	return strings.Join(info, "\n"), nil
}

func (p *SysProvider) uptime(ctx context.Context, args map[string]any) (any, error) {
	return time.Since(p.startTime).Round(time.Second).String(), nil
}

var _ domain.Provider = (*SysProvider)(nil)
