package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestLogAttrsFromTraceparent(t *testing.T) {
	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := Propagator().Extract(context.Background(), propagation.HeaderCarrier(header))

	require.Equal(t, []any{"trace_id", "4bf92f3577b34da6a3ce929d0e0e4736", "span_id", "00f067aa0ba902b7"}, LogAttrs(ctx))
}

func TestLogAttrsWithoutSpan(t *testing.T) {
	require.Nil(t, LogAttrs(context.Background()))
}
