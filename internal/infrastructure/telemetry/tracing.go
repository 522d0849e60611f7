package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans opened by the application services.
const TracerName = "wms-backend"

// StartSpan opens a span named {service}.{method} on the global tracer, with
// optional leading attributes given as alternating key, value pairs. The
// caller ends the span.
//
//	ctx, span := telemetry.StartSpan(ctx, "allocation", "allocate",
//	    "order_id", orderID.String())
//	defer span.End()
func StartSpan(ctx context.Context, service, method string, keyValues ...interface{}) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if attrs := toAttributes(keyValues); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return tracer.Start(ctx, service+"."+method, opts...)
}

// SetAttributes adds alternating key, value pairs to the span. Non-string
// keys are skipped.
func SetAttributes(span trace.Span, keyValues ...interface{}) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// AddEvent records a timestamped annotation on the span, such as the moment
// a lot was reserved or a shortfall was detected.
func AddEvent(span trace.Span, name string, keyValues ...interface{}) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(keyValues)...))
}

// RecordError marks the span failed and attaches the error. Nil errors are
// ignored so it can sit on the single return path of a service method.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace id of the span in ctx, or "" without one.
func GetTraceID(ctx context.Context) string {
	tid := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !tid.IsValid() {
		return ""
	}
	return tid.String()
}

func toAttributes(keyValues []interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
