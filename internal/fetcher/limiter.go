package fetcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostGate serializes and paces fetches to one host
type hostGate struct {
	slot chan struct{} // one fetch in flight
	// Holds the single token of the next fetch. It is rebuilt empty whenever
	// a fetch ends, so the token only returns delay after that end.
	limiter *rate.Limiter
}

// HostLimiter enforces politeness per host: at most one fetch in flight and
// an idle pause of at least delay between the end of one fetch and the start
// of the next.
type HostLimiter struct {
	delay time.Duration
	mu    sync.Mutex
	// Map: host -> gate
	hosts map[string]*hostGate
}

// NewHostLimiter creates a limiter pausing delay between fetches to a host
func NewHostLimiter(delay time.Duration) *HostLimiter {
	if delay < 0 {
		delay = 0
	}
	return &HostLimiter{
		delay: delay,
		hosts: make(map[string]*hostGate),
	}
}

// Acquire blocks until a fetch to host may start. The returned release must
// be called once the fetch has finished; the pause starts from that call.
func (hl *HostLimiter) Acquire(ctx context.Context, host string) (func(), error) {
	gate := hl.gate(strings.ToLower(host))

	select {
	case gate.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The limiter is only touched while the slot is held
	if err := gate.limiter.Wait(ctx); err != nil {
		<-gate.slot
		return nil, err
	}

	release := func() {
		gate.limiter = hl.pausedLimiter(time.Now())
		<-gate.slot
	}
	return release, nil
}

// Count returns the number of hosts fetched from so far
func (hl *HostLimiter) Count() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.hosts)
}

func (hl *HostLimiter) gate(host string) *hostGate {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if gate, exists := hl.hosts[host]; exists {
		return gate
	}

	gate := &hostGate{
		slot:    make(chan struct{}, 1),
		limiter: hl.newLimiter(),
	}
	hl.hosts[host] = gate
	return gate
}

// newLimiter returns a limiter whose token is available immediately
func (hl *HostLimiter) newLimiter() *rate.Limiter {
	if hl.delay == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(hl.delay), 1)
}

// pausedLimiter returns a limiter whose token was spent at end
func (hl *HostLimiter) pausedLimiter(end time.Time) *rate.Limiter {
	l := hl.newLimiter()
	l.AllowN(end, 1)
	return l
}
