package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/version"
	"github.com/sirupsen/logrus"
)

var (
	// ErrMissingSeed is returned when no seed page is configured
	ErrMissingSeed = errors.New("seed is required")
	// ErrInvalidBudget is returned for a negative page budget
	ErrInvalidBudget = errors.New("max_pages must be >= 1")
)

// Config holds all runtime configuration parameters
type Config struct {
	Seed              string   `json:"seed"`
	MaxPages          int      `json:"max_pages"`
	Topics            []string `json:"topics"`
	Focused           bool     `json:"focused"`
	BaseURL           string   `json:"base_url"`
	OutputPath        string   `json:"output_path"`
	DBPath            string   `json:"db_path"`
	MetricsPath       string   `json:"metrics_path"`
	PolitenessDelayMs int      `json:"politeness_delay_ms"`
	RequestTimeoutMs  int      `json:"request_timeout_ms"`
	Workers           int      `json:"workers"`
	FailFast          bool     `json:"fail_fast"`
	UserAgent         string   `json:"user_agent"`
	IgnoreRobots      bool     `json:"ignore_robots"`
	LogLevel          string   `json:"log_level"`
	LogFile           string   `json:"log_file"`
}

// LoadConfig reads configuration from a JSON file, applies overrides (command
// line flags) on top, then fills defaults and validates. An empty path starts
// from an empty configuration.
func LoadConfig(path string, overrides ...func(*Config)) (*Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	for _, override := range overrides {
		override(&cfg)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	cfg.Seed = NormalizePage(cfg.Seed)
	cfg.Topics = cleanTopics(cfg.Topics)

	if cfg.MaxPages == 0 {
		cfg.MaxPages = 100
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://en.wikipedia.org"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "graph.txt"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.json"
	}
	if cfg.PolitenessDelayMs == 0 {
		cfg.PolitenessDelayMs = 150
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 10000
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.Seed == "" {
		return ErrMissingSeed
	}
	if cfg.MaxPages < 1 {
		return ErrInvalidBudget
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	if cfg.PolitenessDelayMs < 0 {
		return fmt.Errorf("politeness_delay_ms must be >= 0")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url is malformed: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// NormalizePage turns a bare article title into a site path, "Go" becomes
// "/wiki/Go". Paths and absolute URLs are returned unchanged.
func NormalizePage(page string) string {
	page = strings.TrimSpace(page)
	if page == "" || strings.HasPrefix(page, "/") || strings.Contains(page, "://") {
		return page
	}
	return "/wiki/" + strings.ReplaceAll(page, " ", "_")
}

// cleanTopics drops blank keywords and surrounding whitespace
func cleanTopics(topics []string) []string {
	cleaned := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			cleaned = append(cleaned, topic)
		}
	}
	return cleaned
}

// PolitenessDelay returns the minimum interval between fetches to one host
func (c *Config) PolitenessDelay() time.Duration {
	return time.Duration(c.PolitenessDelayMs) * time.Millisecond
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}
