package llm

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"docintake/internal/port"
)

// Limiter throttles outbound calls per provider name.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a Limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until provider may make another call or ctx is done.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	return l.getLimiter(provider).Wait(ctx)
}

func (l *Limiter) getLimiter(provider string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[provider]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[provider] = limiter
	return limiter
}

type throttled struct {
	next     port.FieldExtractor
	limiter  *Limiter
	provider string
}

// Throttle wraps next so every call first waits on limiter. A nil limiter
// returns next unchanged.
func Throttle(next port.FieldExtractor, limiter *Limiter, provider string) port.FieldExtractor {
	if limiter == nil {
		return next
	}
	return &throttled{next: next, limiter: limiter, provider: provider}
}

func (t *throttled) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	if err := t.limiter.Wait(ctx, t.provider); err != nil {
		return nil, err
	}
	return t.next.Extract(ctx, input)
}
