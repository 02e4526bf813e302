package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alvmarrod/wiki-weaver/internal/config"
	"github.com/alvmarrod/wiki-weaver/internal/crawler"
	"github.com/alvmarrod/wiki-weaver/internal/fetcher"
	"github.com/alvmarrod/wiki-weaver/internal/metrics"
	"github.com/alvmarrod/wiki-weaver/internal/output"
	"github.com/alvmarrod/wiki-weaver/internal/storage"
	"github.com/alvmarrod/wiki-weaver/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const progressInterval = 10 * time.Second

// flags holds the command line values that may override the config file
type flags struct {
	configPath   string
	seed         string
	maxPages     int
	topics       []string
	focused      bool
	baseURL      string
	outputPath   string
	dbPath       string
	metricsPath  string
	delayMs      int
	timeoutMs    int
	workers      int
	failFast     bool
	userAgent    string
	ignoreRobots bool
	logLevel     string
	logFile      string
}

// NewRootCmd creates the root command of the crawler
func NewRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "crawler [seed]",
		Short: "Crawl the internal link graph of a wiki from a seed page",
		Long: `crawler walks the internal links of a MediaWiki site starting at a seed page
and writes the discovered graph: the page count on the first line, then one
"parent child" line per edge.

Without topics every link is followed breadth-first. With --topic the crawl
only follows pages mentioning every topic; --focused visits the most relevant
pages first.`,
		Version:       version.Get(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("seed", args[0]); err != nil {
					return err
				}
			}

			cfg, err := config.LoadConfig(f.configPath, f.override(cmd))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			closeLog := setupLogging(cfg)
			defer closeLog()

			logrus.Infof("Wiki Weaver %s starting...", version.Get())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collyFetcher, err := fetcher.NewCollyFetcher(fetcher.Options{
				BaseURL:       cfg.BaseURL,
				UserAgent:     cfg.UserAgent,
				Timeout:       cfg.RequestTimeout(),
				Parallelism:   cfg.Workers,
				RespectRobots: !cfg.IgnoreRobots,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize fetcher: %w", err)
			}

			polite := fetcher.NewPolite(collyFetcher, cfg.BaseURL, cfg.PolitenessDelay())
			err = runCrawl(ctx, cfg, polite)
			logrus.Debugf("Fetched from %d host(s)", polite.Hosts())
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a JSON config file")
	fs.StringVarP(&f.seed, "seed", "s", "", "Seed page, a /wiki/ path or an article title")
	fs.IntVarP(&f.maxPages, "max-pages", "n", 0, "Maximum number of pages to discover (default 100)")
	fs.StringSliceVarP(&f.topics, "topic", "t", nil, "Topic keyword a page must mention; repeat or comma-separate")
	fs.BoolVarP(&f.focused, "focused", "f", false, "Visit the most relevant pages first")
	fs.StringVar(&f.baseURL, "base-url", "", "Site the page paths are resolved against (default https://en.wikipedia.org)")
	fs.StringVarP(&f.outputPath, "output", "o", "", "Graph output file, - for stdout (default graph.txt)")
	fs.StringVar(&f.dbPath, "db", "", "SQLite database to persist the run into")
	fs.StringVar(&f.metricsPath, "metrics", "", "Metrics JSON output file (default metrics.json)")
	fs.IntVar(&f.delayMs, "delay-ms", 0, "Minimum delay between requests to the same host (default 150)")
	fs.IntVar(&f.timeoutMs, "timeout-ms", 0, "Request timeout (default 10000)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "Concurrent relevance fetches (default 1)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "Abort the crawl on the first fetch failure")
	fs.StringVar(&f.userAgent, "user-agent", "", "User-Agent header")
	fs.BoolVar(&f.ignoreRobots, "ignore-robots", false, "Do not honour robots.txt")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this rotated file")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// override copies every flag set on the command line into the config
func (f *flags) override(cmd *cobra.Command) func(*config.Config) {
	changed := cmd.Flags().Changed
	return func(cfg *config.Config) {
		if changed("seed") {
			cfg.Seed = f.seed
		}
		if changed("max-pages") {
			cfg.MaxPages = f.maxPages
		}
		if changed("topic") {
			cfg.Topics = f.topics
		}
		if changed("focused") {
			cfg.Focused = f.focused
		}
		if changed("base-url") {
			cfg.BaseURL = f.baseURL
		}
		if changed("output") {
			cfg.OutputPath = f.outputPath
		}
		if changed("db") {
			cfg.DBPath = f.dbPath
		}
		if changed("metrics") {
			cfg.MetricsPath = f.metricsPath
		}
		if changed("delay-ms") {
			cfg.PolitenessDelayMs = f.delayMs
		}
		if changed("timeout-ms") {
			cfg.RequestTimeoutMs = f.timeoutMs
		}
		if changed("workers") {
			cfg.Workers = f.workers
		}
		if changed("fail-fast") {
			cfg.FailFast = f.failFast
		}
		if changed("user-agent") {
			cfg.UserAgent = f.userAgent
		}
		if changed("ignore-robots") {
			cfg.IgnoreRobots = f.ignoreRobots
		}
		if changed("log-level") {
			cfg.LogLevel = f.logLevel
		}
		if changed("log-file") {
			cfg.LogFile = f.logFile
		}
	}
}

// runCrawl performs one crawl with f, writes the graph, persists the run when
// a database is configured, and always writes metrics.
func runCrawl(ctx context.Context, cfg *config.Config, f fetcher.Fetcher) error {
	logrus.Infof("Configuration loaded: seed=%s, max pages=%d, topics=%v, focused=%v, workers=%d",
		cfg.Seed, cfg.MaxPages, cfg.Topics, cfg.Focused, cfg.Workers)

	tracker := metrics.NewTracker()

	c := crawler.New(crawler.Options{
		Seed:     cfg.Seed,
		MaxPages: cfg.MaxPages,
		Topics:   cfg.Topics,
		Focused:  cfg.Focused,
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
	}, f, tracker)

	// Start progress logger
	stopProgress := make(chan struct{})
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	sink := output.NewFileSink(cfg.OutputPath)
	res, err := c.Run(ctx, sink)

	close(stopProgress)
	<-progressDone

	terminationReason := "completed"
	switch {
	case errors.Is(err, context.Canceled):
		terminationReason = "signal"
		logrus.Warn("Crawl interrupted, no graph written")
	case err != nil:
		terminationReason = "error"
		logrus.Errorf("Crawl failed: %v", err)
	default:
		logrus.Infof("Graph written to %s", sink.Path())
	}

	if err == nil && cfg.DBPath != "" {
		if perr := persist(cfg.DBPath, c, res); perr != nil {
			err = perr
			terminationReason = "error"
		}
	}

	// Final progress log
	logrus.Info("Final stats: " + tracker.LogProgress())

	if werr := tracker.WriteToFile(cfg.MetricsPath, terminationReason); werr != nil {
		logrus.Errorf("Failed to write metrics: %v", werr)
	} else {
		logrus.Infof("Metrics written to %s", cfg.MetricsPath)
	}

	return err
}

func persist(dbPath string, c *crawler.Crawler, res *crawler.Result) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := c.Persist(store, res); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	logrus.Infof("Run %s saved to %s", res.RunID, dbPath)
	return nil
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wiki-weaver version %s\n", version.Get())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit())
		},
	}
}
