package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	edges := []storage.Edge{
		{Seq: 3, Parent: "/wiki/S", Child: "/wiki/C"},
		{Seq: 1, Parent: "/wiki/S", Child: "/wiki/A"},
		{Seq: 2, Parent: "/wiki/S", Child: "/wiki/B"},
	}

	require.NoError(t, NewWriterSink(&buf).WriteGraph(4, edges))

	assert.Equal(t, "4\n/wiki/S /wiki/A\n/wiki/S /wiki/B\n/wiki/S /wiki/C\n", buf.String())
	// Input is left untouched
	assert.Equal(t, 3, edges[0].Seq)
}

func TestWriterSinkNoEdges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf).WriteGraph(0, nil))
	assert.Equal(t, "0\n", buf.String())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.txt")
	sink := NewFileSink(path)
	assert.Equal(t, path, sink.Path())

	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0644))
	require.NoError(t, sink.WriteGraph(2, []storage.Edge{{Seq: 1, Parent: "/wiki/S", Child: "/wiki/A"}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2\n/wiki/S /wiki/A\n", string(raw))
}

func TestFileSinkBadPath(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "missing", "graph.txt"))
	assert.Error(t, sink.WriteGraph(1, nil))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterSinkPropagatesErrors(t *testing.T) {
	err := NewWriterSink(failingWriter{}).WriteGraph(1, nil)
	assert.Error(t, err)
}
