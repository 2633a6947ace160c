package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// handlerSpanPrefix gates span creation to the request handlers. Helper
// functions such as writeJSON still call startSpan but ride along on the
// caller's span instead of opening one of their own.
const handlerSpanPrefix = "httpapi.Handler."

var (
	tracer = otel.Tracer("github.com/soniCaH/kcvv-data/internal/interfaces/httpapi")

	// passthrough is the non-recording span handed back when no span is
	// created, so callers can defer span.End() unconditionally.
	passthrough = trace.SpanFromContext(context.Background())
)

// startSpan opens a handler span under the request's server span. Without a
// valid parent, as on routes the tracing middleware skips like /healthz, it
// returns the context untouched so no orphan root spans appear.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, handlerSpanPrefix) {
		return ctx, passthrough
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, passthrough
	}
	return tracer.Start(ctx, name)
}
