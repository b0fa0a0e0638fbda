package gateway

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"abramcp/internal/abra"
	"abramcp/internal/audit"
	"abramcp/internal/domain"
	"abramcp/internal/metrics"
	"abramcp/internal/tool"
)

type stubTool struct {
	name   string
	result string
	err    error
	calls  int
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub: " + s.name }
func (s *stubTool) Parameters() map[string]any { return tool.ToolParameters(nil, nil) }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	s.calls++
	return s.result, s.err
}

var _ domain.Tool = (*stubTool)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGateway(t *testing.T, tools []domain.Tool, opts ...Option) *Gateway {
	t.Helper()
	reg := tool.NewRegistry(testLogger())
	for _, tl := range tools {
		reg.Register(tl)
	}
	return New(reg, testLogger(), opts...)
}

func TestDispatch_UnknownTool(t *testing.T) {
	probe := &stubTool{name: "known"}
	g := testGateway(t, []domain.Tool{probe})

	text, isErr := g.Dispatch(context.Background(), "unknown_op", map[string]any{})
	if !isErr {
		t.Error("unknown tool should be flagged as error text")
	}
	if !strings.Contains(text, "Unknown tool: unknown_op") {
		t.Errorf("text = %q", text)
	}
	if probe.calls != 0 {
		t.Error("no tool may execute for an unknown name")
	}
}

func TestDispatch_Success(t *testing.T) {
	g := testGateway(t, []domain.Tool{&stubTool{name: "ok_tool", result: `{"count": 0}`}})

	text, isErr := g.Dispatch(context.Background(), "ok_tool", nil)
	if isErr {
		t.Errorf("unexpected error text: %q", text)
	}
	if text != `{"count": 0}` {
		t.Errorf("text = %q", text)
	}
}

func TestDispatch_ClassifiedError(t *testing.T) {
	apiErr := &abra.Error{Kind: abra.KindNotFound, Status: 404, Message: "/Demo/invoices/X"}
	g := testGateway(t, []domain.Tool{&stubTool{name: "failing", err: apiErr}})

	text, isErr := g.Dispatch(context.Background(), "failing", nil)
	if !isErr {
		t.Error("classified failure should be flagged")
	}
	if !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "resource not found") {
		t.Errorf("text = %q", text)
	}
}

func TestDispatch_UnexpectedError(t *testing.T) {
	g := testGateway(t, []domain.Tool{&stubTool{name: "broken", err: errors.New("nil map write")}})

	text, isErr := g.Dispatch(context.Background(), "broken", nil)
	if !isErr {
		t.Error("unexpected failure should be flagged")
	}
	if !strings.HasPrefix(text, "Unexpected error: ") {
		t.Errorf("text = %q", text)
	}
}

func TestDispatch_RecordsAudit(t *testing.T) {
	store, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"), testLogger())
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}
	defer store.Close()

	g := testGateway(t, []domain.Tool{
		&stubTool{name: "good", result: "ok"},
		&stubTool{name: "bad", err: &abra.Error{Kind: abra.KindAuth, Status: 401}},
	}, WithAudit(store))

	g.Dispatch(context.Background(), "good", map[string]any{"search": "acme"})
	g.Dispatch(context.Background(), "bad", nil)

	recent, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(recent))
	}
	if recent[0].Tool != "bad" || recent[0].OK {
		t.Errorf("recent[0] = %+v", recent[0])
	}
	if recent[1].Tool != "good" || !recent[1].OK {
		t.Errorf("recent[1] = %+v", recent[1])
	}
}

func TestDispatch_CountsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	g := testGateway(t, []domain.Tool{&stubTool{name: "counted", result: "ok"}}, WithMetrics(collector))

	g.Dispatch(context.Background(), "counted", nil)
	g.Dispatch(context.Background(), "counted", nil)
	g.Dispatch(context.Background(), "nope", nil)

	out := collector.Render()
	if !strings.Contains(out, `abramcp_dispatch_total{tool="counted",outcome="ok"} 2`) {
		t.Errorf("missing ok counter:\n%s", out)
	}
	if !strings.Contains(out, `abramcp_dispatch_total{tool="nope",outcome="unknown"} 1`) {
		t.Errorf("missing unknown counter:\n%s", out)
	}
}

func TestDefinitions(t *testing.T) {
	g := testGateway(t, []domain.Tool{&stubTool{name: "a"}, &stubTool{name: "b"}})
	defs := g.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
}
