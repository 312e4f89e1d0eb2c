package llm

import (
	"context"
	"time"

	"github.com/ppiankov/claimcheck/internal/worker"
)

// Paced wraps a Provider so that every call first clears a shared rate
// limiter and then waits a fixed inter-call delay.
type Paced struct {
	Provider
	limiter *worker.Limiter
	delay   time.Duration
}

// NewPaced wraps p. A nil limiter disables rate limiting; delay may be zero.
func NewPaced(p Provider, limiter *worker.Limiter, delay time.Duration) *Paced {
	return &Paced{Provider: p, limiter: limiter, delay: delay}
}

// Chat waits for clearance and then delegates to the wrapped provider
func (p *Paced) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.WaitKeyWithDelay(ctx, "llm:"+p.Name(), p.delay); err != nil {
			return nil, err
		}
	} else if err := worker.Sleep(ctx, p.delay); err != nil {
		return nil, err
	}

	return p.Provider.Chat(ctx, req)
}
