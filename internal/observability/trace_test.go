package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span", attribute.String("k", "v"))
	if ctx == nil || span == nil {
		t.Fatalf("StartSpan: want ctx and span")
	}
	EndSpan(span, errors.New("boom"))
}

func TestInitOTelDisabledReturnsNil(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	if shutdown := InitOTel(context.Background(), nil, OtelConfig{ServiceName: "x"}); shutdown != nil {
		t.Fatalf("InitOTel: want nil shutdown when disabled")
	}
}

func TestOtelSampleRatio(t *testing.T) {
	for raw, want := range map[string]float64{"": 0.1, "abc": 0.1, "0.5": 0.5, "7": 1, "-2": 0} {
		t.Setenv("OTEL_SAMPLER_RATIO", raw)
		if got := otelSampleRatio(); got != want {
			t.Fatalf("otelSampleRatio(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=secret, broken ,x=")
	got := otelHeaders()
	if len(got) != 1 || got["api-key"] != "secret" {
		t.Fatalf("otelHeaders: got=%v", got)
	}
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if got := otelHeaders(); got != nil {
		t.Fatalf("otelHeaders empty: want nil got=%v", got)
	}
}
