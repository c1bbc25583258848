package observability

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)

	providers, err := InitOTel(context.Background(), OTelConfig{}, logger)
	if err != nil {
		t.Fatalf("InitOTel() error = %v", err)
	}
	if providers != nil {
		t.Errorf("InitOTel() = %v, want nil providers", providers)
	}
	if err := ShutdownOTel(context.Background(), providers, logger); err != nil {
		t.Errorf("ShutdownOTel(nil) error = %v", err)
	}
}

func TestInitOTel_MissingEndpoint(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)

	_, err := InitOTel(context.Background(), OTelConfig{Enabled: true}, logger)
	if err == nil || !strings.Contains(err.Error(), "endpoint is required") {
		t.Errorf("InitOTel() error = %v, want endpoint error", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 0, want: "AlwaysOnSampler"},
		{ratio: 1, want: "AlwaysOnSampler"},
		{ratio: 2, want: "AlwaysOnSampler"},
		{ratio: 0.25, want: "ParentBased{root:TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		got := sampler(tt.ratio).Description()
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tt.ratio, got, tt.want)
		}
	}
}
