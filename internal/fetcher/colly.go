package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// Options configures the colly-backed fetcher
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	Parallelism   int
	RespectRobots bool
}

// CollyFetcher downloads pages from the configured site with a colly collector
type CollyFetcher struct {
	baseURL   string
	collector *colly.Collector
}

// NewCollyFetcher creates a fetcher rooted at opts.BaseURL
func NewCollyFetcher(opts Options) (*CollyFetcher, error) {
	if _, err := ResolveURL(opts.BaseURL, "/"); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}

	collectorOpts := []colly.CollectorOption{
		// The crawler decides what to revisit; candidates are fetched
		// once for scoring and again when explored
		colly.AllowURLRevisit(),
	}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}

	c := colly.NewCollector(collectorOpts...)
	c.IgnoreRobotsTxt = !opts.RespectRobots
	c.SetRequestTimeout(opts.Timeout)

	// Limit parallelism
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: opts.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	return &CollyFetcher{baseURL: opts.BaseURL, collector: c}, nil
}

// Fetch downloads page and returns its body as text
func (f *CollyFetcher) Fetch(ctx context.Context, page string) (string, error) {
	target, err := ResolveURL(f.baseURL, page)
	if err != nil {
		return "", err
	}

	// A clone shares the transport and limits but has its own callbacks
	c := f.collector.Clone()
	c.Context = ctx
	// Error statuses reach OnResponse and are reported as ErrStatus
	c.ParseHTTPErrorResponse = true

	var body []byte
	var status int
	received := false
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
		received = true
	})

	if err := c.Visit(target); err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	if !received {
		return "", fmt.Errorf("fetch %s: no response", target)
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("fetch %s: %w: %d", target, ErrStatus, status)
	}

	return string(body), nil
}
