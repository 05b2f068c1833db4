package otelhelper

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey carries the public error code of a failed call, e.g. "FORBIDDEN".
const ErrorCodeKey = "fuzzie.error.code"

// coder is implemented by errors that expose a public code.
type coder interface {
	ErrorCode() string
}

// SetError records err on span and marks it failed. A nil err leaves span unchanged.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	var c coder
	if errors.As(err, &c) && c.ErrorCode() != "" {
		attrs = append(attrs, attribute.String(ErrorCodeKey, c.ErrorCode()))
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}
