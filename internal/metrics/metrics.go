package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/storage"
)

// FetchKind tells why a page was fetched
type FetchKind int

const (
	// FetchExplore fetches a dequeued page to extract its links
	FetchExplore FetchKind = iota
	// FetchScore fetches a candidate page to compute its relevance
	FetchScore
)

func (k FetchKind) String() string {
	if k == FetchScore {
		return "score"
	}
	return "explore"
}

// Tracker collects the statistics of one crawl. It is safe for concurrent
// use, relevance fetches report from several goroutines.
type Tracker struct {
	mu   sync.Mutex
	data storage.Metrics
}

// NewTracker creates a tracker with its clock started
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{StartTime: time.Now()},
	}
}

// Begin resets the tracker for a new crawl
func (t *Tracker) Begin(runID, mode, seed string, maxPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = storage.Metrics{
		RunID:     runID,
		Mode:      mode,
		Seed:      seed,
		MaxPages:  maxPages,
		StartTime: time.Now(),
	}
}

// NodeDiscovered counts a page admitted to the discovered set
func (t *Tracker) NodeDiscovered() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.NodesDiscovered++
}

// NodeExplored counts a page whose links were extracted
func (t *Tracker) NodeExplored() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.NodesExplored++
}

// EdgeEmitted counts an edge written to the output
func (t *Tracker) EdgeEmitted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.EdgesRecorded++
}

// FetchDone records the outcome and duration of one fetch
func (t *Tracker) FetchDone(kind FetchKind, d time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := &t.data.ExploreFetches
	if kind == FetchScore {
		stats = &t.data.ScoreFetches
	}

	if err != nil {
		stats.Failed++
	} else {
		stats.OK++
	}

	ms := d.Milliseconds()
	stats.TotalTimeMs += ms
	if ms > stats.MaxTimeMs {
		stats.MaxTimeMs = ms
	}
}

// RelevanceScored counts a computed relevance score
func (t *Tracker) RelevanceScored(score int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if score > 0 {
		t.data.RelevantPages++
	} else {
		t.data.IrrelevantPages++
	}
}

// Snapshot returns a copy of the current metrics with derived fields filled
func (t *Tracker) Snapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.derived()
}

// WriteToFile stamps the end time and reason and exports the metrics as JSON
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	snapshot := t.derived()
	t.mu.Unlock()

	jsonData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// LogProgress formats current metrics for periodic console updates
func (t *Tracker) LogProgress() string {
	m := t.Snapshot()

	line := fmt.Sprintf("Pages: %d/%d discovered (%d left), %d explored | Edges: %d | Fetches: %d ok, %d failed",
		m.NodesDiscovered, m.MaxPages, m.BudgetRemaining, m.NodesExplored, m.EdgesRecorded,
		m.ExploreFetches.OK, m.ExploreFetches.Failed)

	if scored := m.ScoreFetches.OK + m.ScoreFetches.Failed; scored > 0 {
		line += fmt.Sprintf(" | Scored: %d (%d relevant, %d failed)",
			scored, m.RelevantPages, m.ScoreFetches.Failed)
	}
	return line
}

// derived must be called with t.mu held
func (t *Tracker) derived() storage.Metrics {
	m := t.data

	m.BudgetRemaining = m.MaxPages - m.NodesDiscovered
	if m.BudgetRemaining < 0 {
		m.BudgetRemaining = 0
	}
	averageFetch(&m.ExploreFetches)
	averageFetch(&m.ScoreFetches)
	return m
}

func averageFetch(s *storage.FetchStats) {
	if n := s.OK + s.Failed; n > 0 {
		s.AvgTimeMs = s.TotalTimeMs / int64(n)
	}
}
