// Package fetcher turns page identifiers into raw document text. The crawler
// only sees the Fetcher interface; the colly-backed implementation talks to
// the configured site and Polite wraps any Fetcher with per-host pacing.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyPage is returned for an empty page identifier
	ErrEmptyPage = errors.New("empty page identifier")
	// ErrStatus is returned when the server answers with a non-success status
	ErrStatus = errors.New("unexpected response status")
)

// Fetcher retrieves the raw text of a page
type Fetcher interface {
	Fetch(ctx context.Context, page string) (string, error)
}

// Func adapts a plain function to the Fetcher interface
type Func func(ctx context.Context, page string) (string, error)

// Fetch calls f
func (f Func) Fetch(ctx context.Context, page string) (string, error) {
	return f(ctx, page)
}

// Polite wraps a Fetcher so that fetches to the same host never overlap and
// each one starts at least the configured delay after the previous one ended.
type Polite struct {
	next    Fetcher
	baseURL string
	limiter *HostLimiter
}

// NewPolite wraps next; baseURL decides the host of relative page paths
func NewPolite(next Fetcher, baseURL string, delay time.Duration) *Polite {
	return &Polite{
		next:    next,
		baseURL: baseURL,
		limiter: NewHostLimiter(delay),
	}
}

// Fetch waits for the page's host to be free, then delegates
func (p *Polite) Fetch(ctx context.Context, page string) (string, error) {
	host, err := ExtractDomain(page)
	if err != nil || host == "" {
		host, _ = ExtractDomain(p.baseURL)
	}

	release, err := p.limiter.Acquire(ctx, host)
	if err != nil {
		return "", err
	}
	defer release()

	logrus.Debugf("Fetching %s (host=%s)", page, host)
	return p.next.Fetch(ctx, page)
}

// Hosts returns the number of distinct hosts fetched from
func (p *Polite) Hosts() int {
	return p.limiter.Count()
}
