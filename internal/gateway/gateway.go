// Package gateway is the dispatch boundary: it receives (tool name, argument
// map) pairs, runs the matching catalog entry and converts every outcome,
// including classified API errors, into a textual result. Nothing below this
// boundary escapes as a raw fault.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"abramcp/internal/abra"
	"abramcp/internal/audit"
	"abramcp/internal/domain"
	"abramcp/internal/metrics"
	"abramcp/internal/tool"
)

// Gateway dispatches tool calls against the operation catalog.
type Gateway struct {
	registry  *tool.Registry
	logger    *slog.Logger
	audit     *audit.Store       // optional
	collector *metrics.Collector // optional
}

// Option configures optional gateway collaborators.
type Option func(*Gateway)

// WithAudit records every dispatch in the given store.
func WithAudit(store *audit.Store) Option {
	return func(g *Gateway) { g.audit = store }
}

// WithMetrics counts dispatches per tool and outcome.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Gateway) { g.collector = c }
}

func New(registry *tool.Registry, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Definitions exposes the catalog schemas for discovery.
func (g *Gateway) Definitions() []domain.ToolDefinition {
	return g.registry.Definitions()
}

// Dispatch runs one tool call and always returns text. isError reports
// whether the text describes a failure rather than a result payload.
func (g *Gateway) Dispatch(ctx context.Context, name string, args map[string]any) (text string, isError bool) {
	start := time.Now()

	t := g.registry.Get(name)
	if t == nil {
		g.count(name, "unknown")
		g.logger.Warn("unknown tool requested", "name", name)
		return fmt.Sprintf("Unknown tool: %s", name), true
	}

	out, err := t.Execute(ctx, args)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		g.count(name, "ok")
		g.record(name, args, true, "", elapsed)
		return out, false
	case isClassified(err):
		g.count(name, "error")
		g.record(name, args, false, err.Error(), elapsed)
		g.logger.Error("tool call failed", "tool", name, "error", err)
		return fmt.Sprintf("Error: %v", err), true
	default:
		g.count(name, "error")
		g.record(name, args, false, err.Error(), elapsed)
		g.logger.Error("unexpected tool failure", "tool", name, "error", err)
		return fmt.Sprintf("Unexpected error: %v", err), true
	}
}

func isClassified(err error) bool {
	var ae *abra.Error
	return errors.As(err, &ae)
}

func (g *Gateway) count(name, outcome string) {
	if g.collector == nil {
		return
	}
	labels := fmt.Sprintf("tool=%q,outcome=%q", name, outcome)
	g.collector.Counter("abramcp_dispatch_total", "Dispatched tool calls", labels).Inc()
}

func (g *Gateway) record(name string, args map[string]any, ok bool, detail string, elapsed time.Duration) {
	if g.audit == nil {
		return
	}
	// The audit trail must not fail the call; use a fresh context so a
	// cancelled request still gets logged.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.audit.Record(ctx, audit.Invocation{
		Tool:     name,
		Args:     args,
		OK:       ok,
		Detail:   detail,
		Duration: elapsed,
	}); err != nil {
		g.logger.Warn("audit record failed", "tool", name, "error", err)
	}
}
