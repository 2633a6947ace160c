package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_Gating(t *testing.T) {
	t.Parallel()

	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01},
		SpanID:  trace.SpanID{0x01},
	}))

	tests := []struct {
		name     string
		ctx      context.Context
		spanName string
		wantSpan bool
	}{
		{name: "handler with parent", ctx: parent, spanName: "httpapi.Handler.GetTeam", wantSpan: true},
		{name: "handler without parent", ctx: context.Background(), spanName: "httpapi.Handler.GetTeam", wantSpan: false},
		{name: "helper", ctx: parent, spanName: "httpapi.writeJSON", wantSpan: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, span := startSpan(tt.ctx, tt.spanName)
			defer span.End()

			if created := got != tt.ctx; created != tt.wantSpan {
				t.Fatalf("startSpan(%q) created span = %v, want %v", tt.spanName, created, tt.wantSpan)
			}
			if !tt.wantSpan && span != passthrough {
				t.Fatalf("startSpan(%q) did not hand back the passthrough span", tt.spanName)
			}
		})
	}
}
