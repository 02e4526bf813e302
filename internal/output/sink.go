// Package output writes a finished crawl as text: the discovered page count
// on the first line, then one "parent child" line per emitted edge.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alvmarrod/wiki-weaver/internal/storage"
)

// Stdout is the FileSink path that selects standard output
const Stdout = "-"

// Sink receives the result of a crawl once it has completed
type Sink interface {
	WriteGraph(pageCount int, edges []storage.Edge) error
}

// WriterSink writes the graph to an io.Writer
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteGraph writes the header and the edges in emission order
func (s *WriterSink) WriteGraph(pageCount int, edges []storage.Edge) error {
	return writeGraph(s.w, pageCount, edges)
}

// FileSink writes the graph to a file path, or to stdout for "-"
type FileSink struct {
	path string
}

// NewFileSink creates a sink for path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the destination of the sink
func (s *FileSink) Path() string {
	return s.path
}

// WriteGraph creates or truncates the file and writes the graph to it
func (s *FileSink) WriteGraph(pageCount int, edges []storage.Edge) error {
	if s.path == "" || s.path == Stdout {
		return writeGraph(os.Stdout, pageCount, edges)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := writeGraph(f, pageCount, edges); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func writeGraph(w io.Writer, pageCount int, edges []storage.Edge) error {
	ordered := make([]storage.Edge, len(edges))
	copy(ordered, edges)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Seq < ordered[j].Seq
	})

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", pageCount)
	for _, e := range ordered {
		fmt.Fprintf(bw, "%s %s\n", e.Parent, e.Child)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}
