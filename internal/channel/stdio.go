package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

const maxLineBytes = 4 * 1024 * 1024

// Stdio speaks line-delimited JSON-RPC on a reader/writer pair, stdin and
// stdout in practice. Each request runs on its own goroutine; writes are
// serialized so concurrent responses never interleave.
type Stdio struct {
	handler *RPCHandler
	logger  *slog.Logger

	writeMu sync.Mutex
	out     io.Writer
}

func NewStdio(handler *RPCHandler, out io.Writer, logger *slog.Logger) *Stdio {
	return &Stdio{handler: handler, logger: logger, out: out}
}

// Serve reads requests until EOF or context cancellation. Malformed JSON
// yields a -32700 response; nothing terminates the loop but input running
// out.
func (s *Stdio) Serve(ctx context.Context, in io.Reader) error {
	s.logger.Info("stdio transport started")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var wg sync.WaitGroup
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("invalid JSON received", "err", err)
			s.write(errResponse(nil, codeParseError, "Parse error", nil))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.write(s.handler.Handle(ctx, req))
		}()
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return err
	}
	s.logger.Info("stdio transport closed")
	return nil
}

func (s *Stdio) write(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("cannot marshal response", "err", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(append(data, '\n'))
}
