package tracing

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestInitWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, zaptest.NewLogger(t), "rent-vs-buy-test", "test", "")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := Tracer("test").Start(ctx, "unit")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span after Init")
	}
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitNilLogger(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, "svc", "v", "")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	_ = shutdown(context.Background())
}
