package tool

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"abramcp/internal/domain"
)

// stubTool is a minimal tool for testing the registry.
type stubTool struct {
	name   string
	result string
	err    error
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub: " + s.name }
func (s *stubTool) Parameters() map[string]any { return ToolParameters(nil, nil) }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.result, s.err
}

var _ domain.Tool = (*stubTool)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "test_tool", result: "ok"})

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("expected to find registered tool")
	}
	if got.Name() != "test_tool" {
		t.Fatalf("expected 'test_tool', got %q", got.Name())
	}
	if reg.Get("nonexistent") != nil {
		t.Fatal("expected nil for unknown tool")
	}
}

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "echo", result: "hello"})

	result, err := reg.Execute(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "hello" {
		t.Fatalf("expected 'hello', got %q", result)
	}

	if _, err := reg.Execute(context.Background(), "missing", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "tool1"})
	reg.Register(&stubTool{name: "tool2"})

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	for _, d := range defs {
		if d.Parameters["type"] != "object" {
			t.Errorf("definition %s missing schema type", d.Name)
		}
	}
}

func TestArgsString(t *testing.T) {
	args := map[string]any{"s": "text", "n": float64(7), "nil": nil}
	if got := ArgsString(args, "s"); got != "text" {
		t.Errorf("s = %q", got)
	}
	if got := ArgsString(args, "n"); got != "7" {
		t.Errorf("n = %q", got)
	}
	if got := ArgsString(args, "nil"); got != "" {
		t.Errorf("nil = %q", got)
	}
	if got := ArgsString(nil, "x"); got != "" {
		t.Errorf("nil args = %q", got)
	}
}

func TestArgsInt(t *testing.T) {
	args := map[string]any{"f": float64(10), "i": 3, "zero": float64(0)}
	if got := ArgsInt(args, "f", 50); got != 10 {
		t.Errorf("f = %d", got)
	}
	if got := ArgsInt(args, "i", 50); got != 3 {
		t.Errorf("i = %d", got)
	}
	if got := ArgsInt(args, "zero", 50); got != 0 {
		t.Errorf("zero must be preserved, got %d", got)
	}
	if got := ArgsInt(args, "missing", 50); got != 50 {
		t.Errorf("missing = %d, want default", got)
	}
}

func TestHasArg(t *testing.T) {
	args := map[string]any{"zero": float64(0), "nil": nil}
	if !HasArg(args, "zero") {
		t.Error("zero value should count as present")
	}
	if HasArg(args, "nil") {
		t.Error("nil value should count as absent")
	}
	if HasArg(args, "missing") {
		t.Error("missing key should count as absent")
	}
}
