package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/fetcher"
	"github.com/alvmarrod/wiki-weaver/internal/memory"
	"github.com/alvmarrod/wiki-weaver/internal/metrics"
	"github.com/alvmarrod/wiki-weaver/internal/output"
	"github.com/alvmarrod/wiki-weaver/internal/pqueue"
	"github.com/alvmarrod/wiki-weaver/internal/scanner"
	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Mode names the traversal strategy of a crawl
type Mode string

const (
	ModeBFSAll      Mode = "bfs-all"
	ModeBFSFiltered Mode = "bfs-filtered"
	ModeFocused     Mode = "focused"
)

// Options configures a crawl
type Options struct {
	Seed     string
	MaxPages int
	Topics   []string
	Focused  bool
	Workers  int // concurrent relevance fetches per page
	FailFast bool
}

// Mode returns the traversal strategy selected by the options
func (o Options) Mode() Mode {
	switch {
	case o.Focused:
		return ModeFocused
	case len(o.Topics) > 0:
		return ModeBFSFiltered
	default:
		return ModeBFSAll
	}
}

// ErrStaleResult is returned when persisting a result of an earlier crawl
var ErrStaleResult = errors.New("result does not belong to the latest crawl")

// Recorder receives crawl progress events. *metrics.Tracker implements it.
// Scoring events arrive from several goroutines at once.
type Recorder interface {
	Begin(runID, mode, seed string, maxPages int)
	NodeDiscovered()
	NodeExplored()
	EdgeEmitted()
	FetchDone(kind metrics.FetchKind, d time.Duration, err error)
	RelevanceScored(score int)
}

type nopRecorder struct{}

func (nopRecorder) Begin(string, string, string, int) {}
func (nopRecorder) NodeDiscovered() {}
func (nopRecorder) NodeExplored() {}
func (nopRecorder) EdgeEmitted() {}
func (nopRecorder) FetchDone(metrics.FetchKind, time.Duration, error) {}
func (nopRecorder) RelevanceScored(int) {}

// Result is the outcome of a completed crawl
type Result struct {
	RunID      string
	Mode       Mode
	PageCount  int
	Edges      []storage.Edge
	Nodes      []storage.Node
	StartedAt  time.Time
	FinishedAt time.Time
}

// Crawler orchestrates a single crawl from a seed page
type Crawler struct {
	opts    Options
	fetcher fetcher.Fetcher
	rec     Recorder
	runID   string

	graph    *memory.Graph
	edges    []storage.Edge
	dequeued int
}

// New creates a crawler. A nil recorder disables progress reporting.
func New(opts Options, f fetcher.Fetcher, rec Recorder) *Crawler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Crawler{
		opts:    opts,
		fetcher: f,
		rec:     rec,
	}
}

// RunID returns the identifier of the latest crawl, empty before the first
func (c *Crawler) RunID() string {
	return c.runID
}

// Run crawls and writes the result to sink once the crawl has completed.
// Nothing is written if the crawl fails or is cancelled.
func (c *Crawler) Run(ctx context.Context, sink output.Sink) (*Result, error) {
	res, err := c.Crawl(ctx)
	if err != nil {
		return nil, err
	}

	if err := sink.WriteGraph(res.PageCount, res.Edges); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	return res, nil
}

// Crawl traverses the link graph from the seed until the frontier is empty.
// Every call is a new run with its own identifier.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	mode := c.opts.Mode()
	c.runID = uuid.New().String()
	c.rec.Begin(c.runID, string(mode), c.opts.Seed, c.opts.MaxPages)

	res := &Result{
		RunID:     c.runID,
		Mode:      mode,
		StartedAt: time.Now(),
	}

	c.graph = memory.NewGraph(c.opts.MaxPages)
	c.edges = nil
	c.dequeued = 0

	if c.opts.MaxPages <= 0 || c.opts.Seed == "" {
		logrus.Warnf("Nothing to crawl (seed=%q, max pages=%d)", c.opts.Seed, c.opts.MaxPages)
		res.FinishedAt = time.Now()
		return res, nil
	}

	logrus.Infof("Starting %s crawl of %s (run=%s, max pages=%d, topics=%v)",
		mode, c.opts.Seed, c.runID, c.opts.MaxPages, c.opts.Topics)

	if created, _ := c.graph.Admit(c.opts.Seed); created {
		c.rec.NodeDiscovered()
	}

	var err error
	if mode == ModeFocused {
		err = c.crawlFocused(ctx)
	} else {
		err = c.crawlBFS(ctx)
	}
	if err != nil {
		return nil, err
	}

	res.PageCount = c.graph.Len()
	res.Edges = c.edges
	res.Nodes = c.graph.Nodes()
	res.FinishedAt = time.Now()

	logrus.Infof("Crawl complete: %d pages, %d edges in %v",
		res.PageCount, len(res.Edges), res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

// Persist stores the latest completed crawl: the run row, every node and the
// edge list
func (c *Crawler) Persist(store *storage.Storage, res *Result) error {
	if res.RunID != c.runID {
		return fmt.Errorf("persist run %s: %w", res.RunID, ErrStaleResult)
	}

	run := storage.Run{
		RunID:      res.RunID,
		Seed:       c.opts.Seed,
		Mode:       string(res.Mode),
		Topics:     c.opts.Topics,
		MaxPages:   c.opts.MaxPages,
		PageCount:  res.PageCount,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}

	if err := store.CreateRun(run); err != nil {
		return err
	}
	if err := c.graph.Flush(store, res.RunID); err != nil {
		return fmt.Errorf("failed to flush nodes: %w", err)
	}
	if err := store.SaveEdges(res.RunID, res.Edges); err != nil {
		return err
	}
	return store.FinishRun(run)
}

// crawlBFS visits pages in discovery order. Links to pages that are already
// known are enqueued again so every link between discovered pages yields an
// edge when dequeued.
func (c *Crawler) crawlBFS(ctx context.Context) error {
	queue := NewQueue()
	queue.Push(frontierEntry{Page: c.opts.Seed})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, ok := queue.Pop()
		if !ok {
			return nil
		}
		c.dequeued++
		logrus.Debugf("Dequeued %s (%d queued)", entry.Page, queue.Size())

		if entry.HasParent {
			c.emit(entry.Parent, entry.Page)
		}

		links, err := c.explore(ctx, entry.Page)
		if err != nil {
			return err
		}
		if links == nil {
			continue
		}

		known := c.admit(entry.Page, links)
		if len(c.opts.Topics) > 0 {
			if err := c.scoreCandidates(ctx, known); err != nil {
				return err
			}
		}

		for _, link := range known {
			if len(c.opts.Topics) > 0 && c.graph.Relevance(link) <= 0 {
				continue
			}
			queue.Push(frontierEntry{Page: link, Parent: entry.Page, HasParent: true})
		}
	}
}

// crawlFocused always visits the most relevant queued page next and emits a
// single edge per page, from the first page found linking to it.
func (c *Crawler) crawlFocused(ctx context.Context) error {
	frontier := pqueue.New()
	frontier.Add(c.opts.Seed, 0)

	for !frontier.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, _ := frontier.ExtractMax()
		c.dequeued++

		if parent, ok := c.graph.TakeFirstIncoming(page); ok {
			c.emit(parent, page)
		}

		links, err := c.explore(ctx, page)
		if err != nil {
			return err
		}
		if links == nil {
			continue
		}

		var candidates []string
		for _, link := range c.admit(page, links) {
			if c.graph.Explored(link) || c.graph.Failed(link) || frontier.Contains(link) {
				continue
			}
			candidates = append(candidates, link)
		}

		if len(c.opts.Topics) > 0 {
			if err := c.scoreCandidates(ctx, candidates); err != nil {
				return err
			}
		}

		for _, link := range candidates {
			priority := 0
			if len(c.opts.Topics) > 0 {
				priority = c.graph.Relevance(link)
				if priority <= 0 {
					continue
				}
			}
			// A page linked twice from the same document is queued once
			if !frontier.Contains(link) {
				frontier.Add(link, priority)
			}
		}
	}

	return nil
}

// explore fetches page and returns its links. It returns nil links when the
// page was already explored, has failed before, or fails now under the
// tolerant policy.
func (c *Crawler) explore(ctx context.Context, page string) ([]string, error) {
	if c.graph.Explored(page) || c.graph.Failed(page) {
		return nil, nil
	}

	doc, err := c.fetch(ctx, metrics.FetchExplore, page)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if c.opts.FailFast {
			return nil, fmt.Errorf("failed to fetch %s: %w", page, err)
		}
		logrus.Warnf("Failed to fetch %s, leaving it unexplored: %v", page, err)
		c.graph.MarkFailed(page)
		return nil, nil
	}

	c.graph.MarkExplored(page)
	c.rec.NodeExplored()

	links := scanner.ExtractLinks(doc)
	logrus.Debugf("Explored %s: %d links", page, len(links))
	if links == nil {
		links = []string{}
	}
	return links, nil
}

// admit adds the links of page to the discovered set while budget remains
// and returns, in link order, those that are discovered after admission.
func (c *Crawler) admit(page string, links []string) []string {
	known := make([]string, 0, len(links))
	for _, link := range links {
		created, ok := c.graph.Admit(link)
		if created {
			c.rec.NodeDiscovered()
			logrus.Debugf("Discovered %s (%d/%d)", link, c.graph.Len(), c.opts.MaxPages)
		}
		if !ok {
			continue
		}
		c.graph.AddIncoming(link, page)
		known = append(known, link)
	}
	return known
}

// scoreCandidates computes the relevance of every page in pages that has
// none cached yet. Fetches run concurrently, bounded by Options.Workers.
func (c *Crawler) scoreCandidates(ctx context.Context, pages []string) error {
	seen := make(map[string]bool, len(pages))
	var pending []string
	for _, page := range pages {
		if seen[page] || c.graph.Relevance(page) != storage.RelevanceUnknown {
			continue
		}
		seen[page] = true
		pending = append(pending, page)
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for _, page := range pending {
		g.Go(func() error {
			doc, err := c.fetch(gctx, metrics.FetchScore, page)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if c.opts.FailFast {
					return fmt.Errorf("failed to score %s: %w", page, err)
				}
				logrus.Warnf("Failed to score %s, treating it as irrelevant: %v", page, err)
				c.graph.SetRelevance(page, storage.RelevanceIrrelevant)
				return nil
			}

			score := c.graph.SetRelevance(page, scanner.Relevance(doc, c.opts.Topics))
			c.rec.RelevanceScored(score)
			logrus.Debugf("Relevance of %s: %d", page, score)
			return nil
		})
	}

	return g.Wait()
}

func (c *Crawler) fetch(ctx context.Context, kind metrics.FetchKind, page string) (string, error) {
	start := time.Now()
	doc, err := c.fetcher.Fetch(ctx, page)
	c.rec.FetchDone(kind, time.Since(start), err)
	return doc, err
}

func (c *Crawler) emit(parent, child string) {
	c.edges = append(c.edges, storage.Edge{
		Seq:    c.dequeued,
		Parent: parent,
		Child:  child,
	})
	c.rec.EdgeEmitted()
	logrus.Debugf("Edge: %s -> %s", parent, child)
}
