package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alvmarrod/wiki-weaver/internal/config"
	"github.com/alvmarrod/wiki-weaver/internal/fetcher"
	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pages = map[string]string{
	"/wiki/S": `<p><a href="/wiki/A">A</a> <a href="/wiki/B">B</a></p>`,
	"/wiki/A": `<p>leaf</p>`,
	"/wiki/B": `<p>leaf</p>`,
}

func wikiFetcher(ctx context.Context, page string) (string, error) {
	if doc, ok := pages[page]; ok {
		return doc, nil
	}
	return "", errors.New("no such page")
}

func testConfig(t *testing.T, override func(*config.Config)) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadConfig("", func(c *config.Config) {
		c.Seed = "/wiki/S"
		c.MaxPages = 10
		c.OutputPath = filepath.Join(dir, "graph.txt")
		c.MetricsPath = filepath.Join(dir, "metrics.json")
		if override != nil {
			override(c)
		}
	})
	require.NoError(t, err)
	return cfg
}

func readMetrics(t *testing.T, path string) storage.Metrics {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m storage.Metrics
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestRunCrawlWritesGraphAndMetrics(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.DBPath = filepath.Join(filepath.Dir(c.OutputPath), "crawl.db")
	})

	require.NoError(t, runCrawl(context.Background(), cfg, fetcher.Func(wikiFetcher)))

	graph, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "3\n/wiki/S /wiki/A\n/wiki/S /wiki/B\n", string(graph))

	m := readMetrics(t, cfg.MetricsPath)
	assert.Equal(t, "completed", m.TerminationReason)
	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, "bfs-all", m.Mode)
	assert.Equal(t, "/wiki/S", m.Seed)
	assert.Equal(t, 3, m.NodesDiscovered)
	assert.Equal(t, 7, m.BudgetRemaining)
	assert.Equal(t, 3, m.ExploreFetches.OK)
	assert.Zero(t, m.ScoreFetches.OK)
	assert.Equal(t, 2, m.EdgesRecorded)

	_, err = os.Stat(cfg.DBPath)
	assert.NoError(t, err)
}

func TestRunCrawlCancelled(t *testing.T) {
	cfg := testConfig(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runCrawl(ctx, cfg, fetcher.Func(wikiFetcher))
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, "signal", readMetrics(t, cfg.MetricsPath).TerminationReason)
}

func TestRunCrawlFailFast(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Seed = "/wiki/Missing"
		c.FailFast = true
	})

	err := runCrawl(context.Background(), cfg, fetcher.Func(wikiFetcher))
	assert.Error(t, err)
	assert.Equal(t, "error", readMetrics(t, cfg.MetricsPath).TerminationReason)
}

func TestRootCmdRequiresSeed(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--metrics", filepath.Join(t.TempDir(), "m.json")})

	err := cmd.Execute()
	assert.ErrorIs(t, err, config.ErrMissingSeed)
}

func TestRootCmdRejectsBadFlags(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"/wiki/S", "--max-pages", "-1"})
	assert.ErrorIs(t, cmd.Execute(), config.ErrInvalidBudget)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wiki-weaver version")
}
