package channel

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"toolhost/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // gateway binds to localhost by default
	},
}

// handleWS carries the same JSON-RPC frames over a WebSocket connection.
// Each frame is handled on its own goroutine; a per-connection mutex keeps
// concurrent responses from interleaving on the wire.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.ActiveConns.Inc()
	defer metrics.ActiveConns.Dec()
	g.logger.Info("websocket client connected", "remote", conn.RemoteAddr())

	var writeMu sync.Mutex
	send := func(resp rpcResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			g.logger.Warn("websocket write failed", "err", err)
		}
	}

	var wg sync.WaitGroup
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req rpcRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			send(errResponse(nil, codeParseError, "Parse error", nil))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			send(g.handler.Handle(r.Context(), req))
		}()
	}
	wg.Wait()
	g.logger.Info("websocket client disconnected", "remote", conn.RemoteAddr())
}
