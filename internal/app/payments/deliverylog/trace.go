package deliverylog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the trace and span ids of the active span in
// ctx, or empty strings when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}

	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the trace of ctx.
func NewEntry(ctx context.Context, requestID, kind, gatewayID, outcome, detail string, receivedAt time.Time) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		RequestID:  requestID,
		Kind:       kind,
		GatewayID:  gatewayID,
		Outcome:    outcome,
		Detail:     detail,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		ReceivedAt: receivedAt.UTC(),
	}
}
