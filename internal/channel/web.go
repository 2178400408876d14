package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"toolhost/internal/metrics"
)

const gatewayMaxBodySize = 1 << 20 // 1MB

// Gateway exposes the JSON-RPC handler over HTTP: POST /rpc for calls,
// GET /metrics for Prometheus scrapes, plus health and tool listing.
type Gateway struct {
	host    string
	port    int
	apiKey  string
	handler *RPCHandler
	logger  *slog.Logger
	server  *http.Server
}

type GatewayConfig struct {
	Host    string
	Port    int
	APIKey  string
	Handler *RPCHandler
	Logger  *slog.Logger
}

func NewGateway(cfg GatewayConfig) *Gateway {
	return &Gateway{
		host:    cfg.Host,
		port:    cfg.Port,
		apiKey:  cfg.APIKey,
		handler: cfg.Handler,
		logger:  cfg.Logger,
	}
}

func (g *Gateway) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", g.auth(g.handleRPC))
	mux.HandleFunc("GET /v1/tools", g.auth(g.handleTools))
	mux.HandleFunc("GET /ws", g.auth(g.handleWS))
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())
	mux.HandleFunc("GET /healthz", g.handleHealth)

	addr := fmt.Sprintf("%s:%d", g.host, g.port)
	g.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second, // long-running tools
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g.logger.Info("gateway started", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		g.server.Shutdown(shutdownCtx)
	}()

	if err := g.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// auth enforces bearer-token access when an API key is configured.
func (g *Gateway) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.apiKey != "" {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != g.apiKey {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid API key"})
				return
			}
		}
		next(w, r)
	}
}

func (g *Gateway) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, gatewayMaxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
		return
	}

	var req rpcRequest
	w.Header().Set("Content-Type", "application/json")
	if err := json.Unmarshal(body, &req); err != nil {
		json.NewEncoder(w).Encode(errResponse(nil, codeParseError, "Parse error", nil))
		return
	}
	json.NewEncoder(w).Encode(g.handler.Handle(r.Context(), req))
}

func (g *Gateway) handleTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tools": g.handler.Registry.Definitions()})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "operational",
		"tools":   g.handler.Registry.Count(),
		"metrics": g.handler.Agg.Snapshot(),
	})
}
