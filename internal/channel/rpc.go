// Package channel carries JSON-RPC 2.0 requests from a transport (stdio,
// HTTP, WebSocket) to the dispatcher. Each tools/call maps 1:1 onto a single
// Invoke; the transports share one request handler.
package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"toolhost/internal/dispatch"
	"toolhost/internal/domain"
	"toolhost/internal/metrics"
	"toolhost/internal/tool"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

func okResponse(id, result any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errResponse(id any, code int, message string, data any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}}
}

// RPCHandler resolves JSON-RPC methods against the invocation pipeline.
type RPCHandler struct {
	Dispatcher *dispatch.Dispatcher
	Registry   *tool.Registry
	Agg        *metrics.Aggregator
	Logger     *slog.Logger
	ServerName string
	Version    string
	StartedAt  time.Time
}

// Handle resolves one request to one response.
func (h *RPCHandler) Handle(ctx context.Context, req rpcRequest) rpcResponse {
	switch req.Method {
	case "initialize":
		return okResponse(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}, "logging": map[string]any{}},
			"serverInfo":      map[string]any{"name": h.ServerName, "version": h.Version},
		})

	case "tools/list":
		return okResponse(req.ID, map[string]any{"tools": h.Registry.Definitions()})

	case "tools/call":
		return h.handleCall(ctx, req)

	case "server/info":
		return okResponse(req.ID, map[string]any{
			"name":           h.ServerName,
			"version":        h.Version,
			"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
			"tool_count":     h.Registry.Count(),
			"tools":          h.Registry.Names(),
			"metrics":        h.Agg.Snapshot(),
		})

	case "server/health":
		return okResponse(req.ID, map[string]any{"status": "operational", "tools": h.Registry.Count()})

	case "metrics/snapshot":
		return okResponse(req.ID, h.Agg.Snapshot())

	default:
		return errResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method, nil)
	}
}

func (h *RPCHandler) handleCall(ctx context.Context, req rpcRequest) rpcResponse {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error(), nil)
		}
	}
	if params.Name == "" {
		return errResponse(req.ID, codeInvalidParams, "missing tool name", nil)
	}

	result := h.Dispatcher.Invoke(ctx, params.Name, params.Arguments)
	if result.Ok() {
		return okResponse(req.ID, result)
	}
	return errResponse(req.ID, errorCode(result.Err.Kind), result.Err.Message, result)
}

// errorCode maps envelope failure kinds onto JSON-RPC error codes.
func errorCode(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrNotFound:
		return codeMethodNotFound
	case domain.ErrParameter:
		return codeInvalidParams
	default:
		return codeServerError
	}
}
