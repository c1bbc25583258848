package observability

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestShutdownManager_RunsInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, io.Discard), nil, 0)

	var order []string
	sm.Register(func(context.Context) error { order = append(order, "db"); return nil })
	sm.Register(func(context.Context) error { order = append(order, "cache"); return nil })

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Join(order, ",") != "cache,db" {
		t.Errorf("Unexpected order %v", order)
	}
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, io.Discard), nil, 0)
	first := errors.New("first")
	sm.Register(func(context.Context) error { return first })
	sm.Register(func(context.Context) error { return nil })

	err := sm.Shutdown(context.Background())
	if !errors.Is(err, first) {
		t.Errorf("Expected joined error to contain first, got %v", err)
	}
}

func TestRecoverPanic(t *testing.T) {
	var buf strings.Builder
	logger := NewLogger(ErrorLevel, &buf)

	func() {
		defer RecoverPanic(logger, "test")
		panic("boom")
	}()

	if !strings.Contains(buf.String(), "PANIC recovered") {
		t.Errorf("Expected panic to be logged, got %q", buf.String())
	}
	if PanicError(nil) != nil {
		t.Error("PanicError(nil) should be nil")
	}
	if PanicError("x") == nil {
		t.Error("PanicError should wrap non-nil values")
	}
}

func TestInitOTel_Disabled(t *testing.T) {
	providers, err := InitOTel(context.Background(), OTelConfig{}, NewLogger(ErrorLevel, io.Discard))
	if err != nil || providers != nil {
		t.Errorf("Expected nil providers when disabled, got %v, %v", providers, err)
	}
	if err := ShutdownOTel(context.Background(), nil, NewLogger(ErrorLevel, io.Discard)); err != nil {
		t.Error(err)
	}
}

func TestInitOTel_RequiresEndpoint(t *testing.T) {
	_, err := InitOTel(context.Background(), OTelConfig{Enabled: true}, NewLogger(ErrorLevel, io.Discard))
	if err == nil {
		t.Error("Expected error without endpoint")
	}
}
