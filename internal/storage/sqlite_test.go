package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "crawl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStorage(t)

	started := time.Now().UTC().Truncate(time.Second)
	run := Run{
		RunID:     "run-1",
		Seed:      "/wiki/Cat",
		Mode:      "focused",
		Topics:    []string{"cat", "felidae"},
		MaxPages:  10,
		StartedAt: started,
	}
	require.NoError(t, store.CreateRun(run))

	run.PageCount = 7
	run.FinishedAt = started.Add(time.Minute)
	require.NoError(t, store.FinishRun(run))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/wiki/Cat", got.Seed)
	assert.Equal(t, "focused", got.Mode)
	assert.Equal(t, []string{"cat", "felidae"}, got.Topics)
	assert.Equal(t, 10, got.MaxPages)
	assert.Equal(t, 7, got.PageCount)
	assert.False(t, got.FinishedAt.IsZero())

	missing, err := store.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertNode(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateRun(Run{RunID: "r", Seed: "/wiki/A", Mode: "bfs", MaxPages: 3, StartedAt: time.Now()}))

	node := Node{Page: "/wiki/A", Seq: 1, Relevancy: RelevanceUnknown}
	require.NoError(t, store.UpsertNode("r", node))

	node.Explored = true
	node.Relevancy = 4
	node.InDegree = 2
	require.NoError(t, store.UpsertNode("r", node))

	got, err := store.GetNode("r", "/wiki/A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, node, *got)

	missing, err := store.GetNode("r", "/wiki/B")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEdgesRoundTripInOrder(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateRun(Run{RunID: "r", Seed: "/wiki/S", Mode: "bfs", MaxPages: 4, StartedAt: time.Now()}))

	edges := []Edge{
		{Seq: 2, Parent: "/wiki/S", Child: "/wiki/A"},
		{Seq: 3, Parent: "/wiki/S", Child: "/wiki/B"},
		{Seq: 4, Parent: "/wiki/A", Child: "/wiki/S"},
	}
	require.NoError(t, store.SaveEdges("r", edges))

	got, err := store.LoadEdges("r")
	require.NoError(t, err)
	assert.Equal(t, edges, got)

	other, err := store.LoadEdges("other")
	require.NoError(t, err)
	assert.Empty(t, other)
}
