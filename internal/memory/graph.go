package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/sirupsen/logrus"
)

// entry is the crawl state of one discovered page
type entry struct {
	node        storage.Node
	incoming    []string // parents in discovery order
	edgeEmitted bool
}

// Graph holds the discovered pages of a crawl in memory.
// The number of pages it admits never exceeds its budget.
type Graph struct {
	nodes  map[string]*entry
	order  []string // pages in admission order
	budget int
	mu     sync.RWMutex
}

// NewGraph creates an empty graph admitting at most budget pages
func NewGraph(budget int) *Graph {
	if budget < 0 {
		budget = 0
	}
	return &Graph{
		nodes:  make(map[string]*entry),
		budget: budget,
	}
}

// Admit adds page to the discovered set if it is new and budget remains.
// created reports whether this call added it; known reports whether the page
// is in the set after the call.
func (g *Graph) Admit(page string) (created, known bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[page]; exists {
		return false, true
	}
	if len(g.nodes) >= g.budget {
		return false, false
	}

	g.order = append(g.order, page)
	g.nodes[page] = &entry{
		node: storage.Node{
			Page:      page,
			Seq:       len(g.order),
			Relevancy: storage.RelevanceUnknown,
		},
	}
	return true, true
}

// Len returns the number of discovered pages
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Explored reports whether page's outgoing links have been processed
func (g *Graph) Explored(page string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, exists := g.nodes[page]; exists {
		return e.node.Explored
	}
	return false
}

// MarkExplored flags page as explored; it never goes back
func (g *Graph) MarkExplored(page string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, exists := g.nodes[page]; exists {
		e.node.Explored = true
	}
}

// Failed reports whether fetching page has failed
func (g *Graph) Failed(page string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, exists := g.nodes[page]; exists {
		return e.node.Failed
	}
	return false
}

// MarkFailed flags page as permanently unexplored after a fetch failure
func (g *Graph) MarkFailed(page string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, exists := g.nodes[page]; exists {
		e.node.Failed = true
	}
}

// Relevance returns the cached relevance of page, or storage.RelevanceUnknown
func (g *Graph) Relevance(page string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, exists := g.nodes[page]; exists {
		return e.node.Relevancy
	}
	return storage.RelevanceUnknown
}

// SetRelevance caches score for page if none is cached yet and returns the
// value that ends up cached. Later writes never replace the first one.
func (g *Graph) SetRelevance(page string, score int) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, exists := g.nodes[page]
	if !exists {
		return storage.RelevanceUnknown
	}
	if e.node.Relevancy == storage.RelevanceUnknown {
		if score < 0 {
			score = storage.RelevanceIrrelevant
		}
		e.node.Relevancy = score
	}
	return e.node.Relevancy
}

// AddIncoming records parent as linking to page
func (g *Graph) AddIncoming(page, parent string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, exists := g.nodes[page]; exists {
		e.incoming = append(e.incoming, parent)
		e.node.InDegree++
	}
}

// TakeFirstIncoming returns the first recorded parent of page and discards
// the rest. It succeeds at most once per page.
func (g *Graph) TakeFirstIncoming(page string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, exists := g.nodes[page]
	if !exists || e.edgeEmitted || len(e.incoming) == 0 {
		return "", false
	}

	parent := e.incoming[0]
	e.incoming = nil
	e.edgeEmitted = true
	return parent, true
}

// Nodes returns a snapshot of every discovered page in admission order
func (g *Graph) Nodes() []storage.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]storage.Node, 0, len(g.order))
	for _, page := range g.order {
		nodes = append(nodes, g.nodes[page].node)
	}
	return nodes
}

// Flush writes all in-memory nodes of a run to SQLite storage
func (g *Graph) Flush(store *storage.Storage, runID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	startTime := time.Now()
	logrus.Info("Starting flush to database...")

	nodesWritten := 0
	var firstErr error

	for _, page := range g.order {
		node := g.nodes[page].node
		if err := store.UpsertNode(runID, node); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("flush node %s: %w", page, err)
			}
			logrus.Warnf("Failed to flush node %s: %v", page, err)
			continue
		}
		nodesWritten++
	}

	duration := time.Since(startTime)
	logrus.Infof("Flush complete: %d nodes written in %v", nodesWritten, duration)

	return firstErr
}
