package tool

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"toolhost/internal/domain"
)

const captureTimeout = 45 * time.Second

// ScreenProvider renders pages in headless Chrome and captures screenshots.
// Disabled by default; flipping it on requires Chrome on the host.
type ScreenProvider struct {
	enabled   bool
	outputDir string
}

func NewScreenProvider(enabled bool, outputDir string) *ScreenProvider {
	return &ScreenProvider{enabled: enabled, outputDir: outputDir}
}

func (p *ScreenProvider) Name() string { return "screen" }

func (p *ScreenProvider) Tools() (map[string]domain.ToolEntry, error) {
	return map[string]domain.ToolEntry{
		"screen_capture": {
			Handler: p.capture,
			Meta: &domain.Metadata{
				Description: "Render a URL in headless Chrome and capture a full-page PNG screenshot. Returns the saved file path and base64 image data.",
				Category:    "visual",
				Cacheable:   cacheableFlag(false),
				InputSchema: Schema(map[string]Param{
					"url":     {Type: "string", Description: "URL to render and capture"},
					"quality": {Type: "number", Description: "Screenshot quality 1-100 (default 90)"},
				}, []string{"url"}),
			},
		},
	}, nil
}

func (p *ScreenProvider) capture(ctx context.Context, args map[string]any) (any, error) {
	if !p.enabled {
		return "Screen capture is disabled. Enable it in config: tools.screen.enabled = true", nil
	}
	url, err := RequireString(args, "url")
	if err != nil {
		return nil, err
	}
	quality := ArgInt(args, "quality", 90)
	if quality < 1 || quality > 100 {
		return nil, domain.BadArg("quality", "must be between 1 and 100")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, captureTimeout)
	defer timeoutCancel()

	var buf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&buf, quality),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(p.outputDir, fmt.Sprintf("capture_%d.png", time.Now().UnixMilli()))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return nil, fmt.Errorf("save screenshot: %w", err)
	}

	return map[string]any{
		"path":       path,
		"bytes":      len(buf),
		"image_b64":  base64.StdEncoding.EncodeToString(buf),
		"source_url": url,
	}, nil
}

var _ domain.Provider = (*ScreenProvider)(nil)
