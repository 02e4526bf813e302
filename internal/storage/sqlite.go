package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		mode TEXT NOT NULL,
		topics TEXT,
		max_pages INTEGER NOT NULL,
		page_count INTEGER DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		page TEXT NOT NULL,
		seq INTEGER NOT NULL,
		explored INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		relevancy INTEGER DEFAULT -1,
		in_degree INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, page)
	);

	CREATE TABLE IF NOT EXISTS edges (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		parent TEXT NOT NULL,
		child TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_run ON nodes(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_run_seq ON edges(run_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun records the start of a crawl
func (s *Storage) CreateRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, seed, mode, topics, max_pages, page_count, started_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, run.RunID, run.Seed, run.Mode, strings.Join(run.Topics, ","), run.MaxPages, run.StartedAt)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final page count and completion time of a crawl
func (s *Storage) FinishRun(run Run) error {
	_, err := s.db.Exec(`
		UPDATE runs SET page_count = ?, finished_at = ? WHERE run_id = ?
	`, run.PageCount, run.FinishedAt, run.RunID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id, returns nil if not found
func (s *Storage) GetRun(runID string) (*Run, error) {
	var run Run
	var topics string
	var finished sql.NullTime

	err := s.db.QueryRow(`
		SELECT run_id, seed, mode, topics, max_pages, page_count, started_at, finished_at
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(&run.RunID, &run.Seed, &run.Mode, &topics, &run.MaxPages, &run.PageCount, &run.StartedAt, &finished)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if topics != "" {
		run.Topics = strings.Split(topics, ",")
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}

	return &run, nil
}

// UpsertNode inserts a node for a run or refreshes its crawl state
func (s *Storage) UpsertNode(runID string, node Node) error {
	_, err := s.db.Exec(`
		INSERT INTO nodes (run_id, page, seq, explored, failed, relevancy, in_degree)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, page) DO UPDATE SET
			explored = EXCLUDED.explored,
			failed = EXCLUDED.failed,
			relevancy = EXCLUDED.relevancy,
			in_degree = EXCLUDED.in_degree
	`, runID, node.Page, node.Seq, node.Explored, node.Failed, node.Relevancy, node.InDegree)

	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}
	return nil
}

// GetNode retrieves a node of a run by page, returns nil if not found
func (s *Storage) GetNode(runID, page string) (*Node, error) {
	var node Node
	err := s.db.QueryRow(`
		SELECT page, seq, explored, failed, relevancy, in_degree
		FROM nodes
		WHERE run_id = ? AND page = ?
	`, runID, page).Scan(&node.Page, &node.Seq, &node.Explored, &node.Failed, &node.Relevancy, &node.InDegree)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return &node, nil
}

// SaveEdges writes the emitted edges of a run in a single transaction
func (s *Storage) SaveEdges(runID string, edges []Edge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin edge transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO edges (run_id, seq, parent, child) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer stmt.Close()

	for _, edge := range edges {
		if _, err := stmt.Exec(runID, edge.Seq, edge.Parent, edge.Child); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert edge %s -> %s: %w", edge.Parent, edge.Child, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edges: %w", err)
	}
	return nil
}

// LoadEdges returns the edges of a run in emission order
func (s *Storage) LoadEdges(runID string) ([]Edge, error) {
	rows, err := s.db.Query(`
		SELECT seq, parent, child
		FROM edges
		WHERE run_id = ?
		ORDER BY seq ASC, rowid ASC
	`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var edge Edge
		if err := rows.Scan(&edge.Seq, &edge.Parent, &edge.Child); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
