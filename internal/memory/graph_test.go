package memory

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitRespectsBudget(t *testing.T) {
	g := NewGraph(2)

	created, known := g.Admit("/wiki/S")
	assert.True(t, created)
	assert.True(t, known)

	created, known = g.Admit("/wiki/A")
	assert.True(t, created)
	assert.True(t, known)

	created, known = g.Admit("/wiki/B")
	assert.False(t, created)
	assert.False(t, known)

	// Already discovered pages stay known once the budget is spent
	created, known = g.Admit("/wiki/S")
	assert.False(t, created)
	assert.True(t, known)

	assert.Equal(t, 2, g.Len())
}

func TestZeroBudgetAdmitsNothing(t *testing.T) {
	for _, budget := range []int{0, -5} {
		g := NewGraph(budget)
		_, known := g.Admit("/wiki/S")
		assert.False(t, known)
		assert.Zero(t, g.Len())
	}
}

func TestConcurrentAdmitNeverExceedsBudget(t *testing.T) {
	g := NewGraph(10)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				g.Admit(fmt.Sprintf("/wiki/P%d_%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 10, g.Len())
	assert.Len(t, g.Nodes(), 10)
}

func TestSetRelevanceIsComputeOnce(t *testing.T) {
	g := NewGraph(5)
	g.Admit("/wiki/A")

	assert.Equal(t, storage.RelevanceUnknown, g.Relevance("/wiki/A"))
	assert.Equal(t, 3, g.SetRelevance("/wiki/A", 3))
	assert.Equal(t, 3, g.SetRelevance("/wiki/A", 9))
	assert.Equal(t, 3, g.Relevance("/wiki/A"))

	assert.Equal(t, storage.RelevanceUnknown, g.SetRelevance("/wiki/Missing", 2))
}

func TestTakeFirstIncomingOnlyOnce(t *testing.T) {
	g := NewGraph(5)
	g.Admit("/wiki/C")

	_, ok := g.TakeFirstIncoming("/wiki/C")
	assert.False(t, ok)

	g.AddIncoming("/wiki/C", "/wiki/A")
	g.AddIncoming("/wiki/C", "/wiki/B")

	parent, ok := g.TakeFirstIncoming("/wiki/C")
	require.True(t, ok)
	assert.Equal(t, "/wiki/A", parent)

	g.AddIncoming("/wiki/C", "/wiki/D")
	_, ok = g.TakeFirstIncoming("/wiki/C")
	assert.False(t, ok)

	nodes := g.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, 3, nodes[0].InDegree)
}

func TestExploredAndFailedFlags(t *testing.T) {
	g := NewGraph(3)
	g.Admit("/wiki/A")

	assert.False(t, g.Explored("/wiki/A"))
	g.MarkExplored("/wiki/A")
	assert.True(t, g.Explored("/wiki/A"))

	assert.False(t, g.Failed("/wiki/A"))
	g.MarkFailed("/wiki/A")
	assert.True(t, g.Failed("/wiki/A"))

	// Unknown pages are ignored
	g.MarkExplored("/wiki/Z")
	assert.False(t, g.Explored("/wiki/Z"))
}

func TestNodesInAdmissionOrder(t *testing.T) {
	g := NewGraph(3)
	g.Admit("/wiki/S")
	g.Admit("/wiki/B")
	g.Admit("/wiki/A")

	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "/wiki/S", nodes[0].Page)
	assert.Equal(t, 1, nodes[0].Seq)
	assert.Equal(t, "/wiki/A", nodes[2].Page)
	assert.Equal(t, 3, nodes[2].Seq)
}

func TestFlush(t *testing.T) {
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CreateRun(storage.Run{RunID: "r", Seed: "/wiki/S", Mode: "bfs", MaxPages: 2, StartedAt: time.Now()}))

	g := NewGraph(2)
	g.Admit("/wiki/S")
	g.Admit("/wiki/A")
	g.MarkExplored("/wiki/S")
	g.SetRelevance("/wiki/A", 2)

	require.NoError(t, g.Flush(store, "r"))

	seed, err := store.GetNode("r", "/wiki/S")
	require.NoError(t, err)
	require.NotNil(t, seed)
	assert.True(t, seed.Explored)

	a, err := store.GetNode("r", "/wiki/A")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 2, a.Relevancy)
	assert.Equal(t, 2, a.Seq)
}
