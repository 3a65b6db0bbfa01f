package backend

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(10, -1)
	if l.global.Burst() != 5 {
		t.Errorf("expected default burst 5, got %d", l.global.Burst())
	}
}

func TestLimiter_NilIsUnlimited(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background(), payload.EntityContact); err != nil {
		t.Errorf("nil limiter should not block: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, payload.EntityContact); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, payload.EntityEmail); err == nil {
		t.Error("expected second call to be throttled by the shared bucket")
	}
}

func TestLimiter_EntityRate(t *testing.T) {
	l := NewLimiter(1000, 10)
	l.SetEntityRate(payload.EntityContribution, 1, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, payload.EntityContribution); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, payload.EntityContribution); err == nil {
		t.Error("expected entity rate to throttle")
	}
	if err := l.Wait(context.Background(), payload.EntityEmail); err != nil {
		t.Errorf("other entities should pass: %v", err)
	}
}

func TestLimiterFor_PerEntityFromConfig(t *testing.T) {
	l := LimiterFor(model.RateLimitingConfig{
		RequestsPerSecond: 1000,
		BurstSize:         1,
		PerEntity:         map[string]float64{"contribution": 1},
	})

	if err := l.Wait(context.Background(), payload.EntityContribution); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, payload.EntityContribution); err == nil {
		t.Error("expected per-entity rate from config to throttle")
	}
}
