package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer exposes the gateway as a Model Context Protocol server. Each
// catalog entry is registered with its JSON schema; handlers delegate to
// Dispatch, so the protocol boundary only ever sees text.
func (g *Gateway) MCPServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "abra-mcp-server",
		Version: version,
	}, nil)

	for _, def := range g.Definitions() {
		srv.AddTool(
			&mcp.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: def.Parameters,
			},
			g.makeHandler(def.Name),
		)
	}
	return srv
}

func (g *Gateway) makeHandler(toolName string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return textResult(fmt.Sprintf("invalid arguments: %v", err), true), nil
			}
		}
		if args == nil {
			args = make(map[string]any)
		}

		text, isErr := g.Dispatch(ctx, toolName, args)
		return textResult(text, isErr), nil
	}
}

func textResult(text string, isErr bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isErr,
	}
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled or
// the peer disconnects.
func (g *Gateway) ServeStdio(ctx context.Context, version string) error {
	g.logger.Info("serving MCP over stdio")
	return g.MCPServer(version).Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the MCP server over streamable HTTP at /mcp, alongside
// /healthz and, when a collector is attached, /metrics.
func (g *Gateway) HTTPHandler(version string) http.Handler {
	srv := g.MCPServer(version)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return srv
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/", mcpHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if g.collector != nil {
		mux.Handle("/metrics", g.collector.Handler())
		return g.countRequests(mux)
	}
	return mux
}

// countRequests counts served HTTP requests by status class.
func (g *Gateway) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		labels := fmt.Sprintf("class=%q", fmt.Sprintf("%dxx", rec.status/100))
		g.collector.Counter("abramcp_http_requests_total", "Served HTTP requests", labels).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
