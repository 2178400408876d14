package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"toolhost/internal/cache"
	"toolhost/internal/channel"
	"toolhost/internal/config"
	"toolhost/internal/dispatch"
	"toolhost/internal/domain"
	"toolhost/internal/memory"
	"toolhost/internal/metrics"
	"toolhost/internal/tool"
)

const serverName = "toolhost"

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "toolhost",
		Short: "toolhost: a tool-invocation server",
		Long:  "toolhost discovers capability providers, exposes their tools over JSON-RPC, and routes every call through a cached, measured dispatch pipeline.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.toolhost/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	out := os.Stderr
	if cfg.General.LogFile != "" {
		if f, err := os.OpenFile(cfg.General.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			out = f
		} else {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		}
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// server bundles everything a transport needs.
type server struct {
	store    *memory.SQLiteStore
	cache    *cache.Tiered
	registry *tool.Registry
	handler  *channel.RPCHandler
}

// buildServer wires the invocation pipeline: store, cache, providers,
// registry, dispatcher, metrics.
func buildServer(cfg *config.Config) (*server, error) {
	if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	store, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	var tiered *cache.Tiered
	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.DefaultTTLSeconds * float64(time.Second))
		tiered = cache.NewTiered(store, ttl, logger)
	}

	registry := tool.NewRegistry(logger)
	registry.RegisterAll(providers(cfg, store))

	agg := metrics.NewAggregator()
	dispatcher := dispatch.New(registry, tiered, agg, logger)

	return &server{
		store:    store,
		cache:    tiered,
		registry: registry,
		handler: &channel.RPCHandler{
			Dispatcher: dispatcher,
			Registry:   registry,
			Agg:        agg,
			Logger:     logger,
			ServerName: serverName,
			Version:    version,
			StartedAt:  time.Now(),
		},
	}, nil
}

// providers assembles the capability providers registered at startup.
func providers(cfg *config.Config, store *memory.SQLiteStore) []domain.Provider {
	return []domain.Provider{
		tool.NewFileProvider(cfg.General.Workspace),
		tool.NewShellProvider(tool.ShellConfig{
			WorkingDir:     cfg.General.Workspace,
			TimeoutSeconds: cfg.Tools.Shell.Timeout,
			MaxOutputBytes: cfg.Tools.Shell.MaxOutputBytes,
		}),
		tool.NewWebProvider(),
		tool.NewScreenProvider(cfg.Tools.Screen.Enabled, cfg.Tools.Screen.OutputDir),
		tool.NewSysProvider(),
		tool.NewMemoryProvider(store),
		tool.NewSessionProvider(store),
		tool.NewManifestProvider(cfg.Tools.ManifestDir, logger),
	}
}

// shutdown drains the cache into the store and closes it.
func (s *server) shutdown() {
	if s.cache != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.cache.Flush(drainCtx)
		cancel()
	}
	if err := s.store.Close(); err != nil {
		logger.Warn("store close failed", "err", err)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "workspace", cfg.General.Workspace)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC over stdin/stdout (MCP mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}
			defer srv.shutdown()

			stdio := channel.NewStdio(srv.handler, os.Stdout, logger)
			return stdio.Serve(ctx, os.Stdin)
		},
	}
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Serve JSON-RPC over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}
			defer srv.shutdown()

			gw := channel.NewGateway(channel.GatewayConfig{
				Host:    cfg.API.Host,
				Port:    cfg.API.Port,
				APIKey:  cfg.API.APIKey,
				Handler: srv.handler,
				Logger:  logger,
			})
			return gw.Start(ctx)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server configuration and tool inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}

			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}
			defer srv.shutdown()

			for category, count := range srv.registry.Summary() {
				logger.Info("tools", "category", category, "count", count)
			}
			logger.Info("status", "total_tools", srv.registry.Count(), "cache_enabled", cfg.Cache.Enabled)
			return nil
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}
			defer srv.shutdown()

			data, _ := json.MarshalIndent(srv.registry.Definitions(), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. cache.defaultTtlSeconds)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. cache.defaultTtlSeconds 10)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
