// Package mcp defines the narrow interface the --mcp flag drives. The
// full Model Context Protocol JSON-RPC server is an external
// collaborator; this package only keeps the CLI flag's contract honest.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Server serves one MCP session over r/w until the session ends or an
// unrecoverable read error occurs.
type Server interface {
	Serve(r io.Reader, w io.Writer) error
}

// rpcError is a minimal JSON-RPC 2.0 error envelope.
type rpcError struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Error   rpcErrBody  `json:"error"`
}

type rpcErrBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UnsupportedStub reads exactly one line of stdin and responds with a
// JSON-RPC error naming MCP as unsupported in this build, then returns.
// It exists so `--mcp` fails honestly instead of silently doing nothing.
type UnsupportedStub struct{}

func (UnsupportedStub) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	var id interface{}
	if scanner.Scan() {
		var req struct {
			ID interface{} `json:"id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err == nil {
			id = req.ID
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading mcp request: %w", err)
	}

	resp := rpcError{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErrBody{Code: -32601, Message: "MCP is not supported in this build"},
	}
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}
