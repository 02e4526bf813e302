package storage

import "time"

// Relevance sentinel values stored on a Node
const (
	RelevanceUnknown    = -1
	RelevanceIrrelevant = 0
)

// Node represents a discovered page in the crawl graph
type Node struct {
	Page      string
	Seq       int // admission order, the seed is 1
	Explored  bool
	Failed    bool
	Relevancy int
	InDegree  int // incoming edges recorded while crawling
}

// Edge represents a directed link emitted by the crawl
type Edge struct {
	Seq    int // dequeue sequence number that produced the edge
	Parent string
	Child  string
}

// Run describes one crawl execution
type Run struct {
	RunID      string
	Seed       string
	Mode       string
	Topics     []string
	MaxPages   int
	PageCount  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// FetchStats summarizes the fetches made for one purpose
type FetchStats struct {
	OK          int   `json:"ok"`
	Failed      int   `json:"failed"`
	TotalTimeMs int64 `json:"total_time_ms"`
	AvgTimeMs   int64 `json:"avg_time_ms"`
	MaxTimeMs   int64 `json:"max_time_ms"`
}

// Metrics is the statistics dump of one crawl
type Metrics struct {
	RunID             string     `json:"run_id"`
	Mode              string     `json:"mode"`
	Seed              string     `json:"seed"`
	MaxPages          int        `json:"max_pages"`
	BudgetRemaining   int        `json:"budget_remaining"`
	NodesDiscovered   int        `json:"nodes_discovered"`
	NodesExplored     int        `json:"nodes_explored"`
	EdgesRecorded     int        `json:"edges_recorded"`
	ExploreFetches    FetchStats `json:"explore_fetches"`
	ScoreFetches      FetchStats `json:"score_fetches"`
	RelevantPages     int        `json:"relevant_pages"`
	IrrelevantPages   int        `json:"irrelevant_pages"`
	TerminationReason string     `json:"termination_reason"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
}
