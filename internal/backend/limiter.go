package backend

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

// Limiter throttles backend calls. Every call passes the shared bucket;
// entities with their own rate additionally pass theirs.
type Limiter struct {
	global   *rate.Limiter
	entities map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewLimiter creates a limiter allowing requestsPerSecond with the given burst
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		global:   rate.NewLimiter(limit, burst),
		entities: make(map[string]*rate.Limiter),
	}
}

// LimiterFor builds the limiter described by cfg, including per-entity rates.
// Entity names match case-insensitively.
func LimiterFor(cfg model.RateLimitingConfig) *Limiter {
	l := NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for entity, rps := range cfg.PerEntity {
		l.SetEntityRate(payload.Entity(entity), rps, 0)
	}
	return l
}

// Wait blocks until a call against entity may proceed
func (l *Limiter) Wait(ctx context.Context, entity payload.Entity) error {
	if l == nil {
		return nil
	}
	if err := l.global.Wait(ctx); err != nil {
		return err
	}

	l.mu.RLock()
	el := l.entities[strings.ToLower(string(entity))]
	l.mu.RUnlock()

	if el != nil {
		return el.Wait(ctx)
	}
	return nil
}

// SetEntityRate applies an additional rate to one entity. burst 0 reuses
// the global burst.
func (l *Limiter) SetEntityRate(entity payload.Entity, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.global.Burst()
	}
	l.entities[strings.ToLower(string(entity))] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
