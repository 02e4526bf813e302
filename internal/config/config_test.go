package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"seed": "/wiki/Graph_theory"}`))
	require.NoError(t, err)

	assert.Equal(t, "/wiki/Graph_theory", cfg.Seed)
	assert.Equal(t, 100, cfg.MaxPages)
	assert.Empty(t, cfg.Topics)
	assert.False(t, cfg.Focused)
	assert.Equal(t, "https://en.wikipedia.org", cfg.BaseURL)
	assert.Equal(t, "graph.txt", cfg.OutputPath)
	assert.Equal(t, "metrics.json", cfg.MetricsPath)
	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, 150*time.Millisecond, cfg.PolitenessDelay())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `{"seed": "/wiki/A", "max_pages": 10, "topics": ["x"]}`)

	cfg, err := LoadConfig(path, func(c *Config) {
		c.MaxPages = 3
		c.Topics = []string{" graph ", "", "tree"}
		c.Focused = true
	})
	require.NoError(t, err)

	assert.Equal(t, "/wiki/A", cfg.Seed)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, []string{"graph", "tree"}, cfg.Topics)
	assert.True(t, cfg.Focused)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("", func(c *Config) { c.Seed = "Go (programming language)" })
	require.NoError(t, err)
	assert.Equal(t, "/wiki/Go_(programming_language)", cfg.Seed)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"missing seed", `{}`, ErrMissingSeed},
		{"negative budget", `{"seed": "/wiki/A", "max_pages": -1}`, ErrInvalidBudget},
		{"negative workers", `{"seed": "/wiki/A", "workers": -2}`, nil},
		{"short timeout", `{"seed": "/wiki/A", "request_timeout_ms": 10}`, nil},
		{"negative delay", `{"seed": "/wiki/A", "politeness_delay_ms": -5}`, nil},
		{"relative base", `{"seed": "/wiki/A", "base_url": "en.wikipedia.org"}`, nil},
		{"bad level", `{"seed": "/wiki/A", "log_level": "loud"}`, nil},
		{"unknown field", `{"seed": "/wiki/A", "max_depth": 3}`, nil},
		{"malformed", `{"seed": `, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNormalizePage(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"Cat":                   "/wiki/Cat",
		" Graph theory ":        "/wiki/Graph_theory",
		"/wiki/Dog":             "/wiki/Dog",
		"https://example.org/x": "https://example.org/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePage(in), in)
	}
}
