package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreat42/Ecom-Crawler/internal/config"
	"github.com/dreat42/Ecom-Crawler/internal/database"
	intlog "github.com/dreat42/Ecom-Crawler/internal/log"
	"github.com/dreat42/Ecom-Crawler/internal/model"
	"github.com/dreat42/Ecom-Crawler/internal/pipeline"
	"github.com/dreat42/Ecom-Crawler/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [domain-or-url...]",
		Short: "Crawl e-commerce websites and discover product pages",
		Long: `Crawl performs a breadth-first crawl of each target website and
classifies every fetched page as a product page or not.

The crawl stays on the target's domain, respects robots.txt, and stops
at the configured depth and page budget. Discovered product URLs are
printed in the report and saved to the local database for later
comparison.

Examples:
  # Crawl a single shop
  ecomcrawler crawl shop.example.com

  # Crawl multiple shops concurrently
  ecomcrawler crawl shop1.example.com shop2.example.com shop3.example.com

  # Limit the crawl to depth 2 and 100 pages
  ecomcrawler crawl -d 2 -p 100 shop.example.com

  # Output a JSON report to a file
  ecomcrawler crawl --json -o report.json shop.example.com

  # Use a custom configuration file with per-site settings
  ecomcrawler crawl -c myconfig.yaml shop.example.com

Configuration file (.ecomcrawler) example:
  sites:
    shop.example.com:
      productPatterns:
        - "/artikel/"
      cookie: "session=abc123"
      depth: 4`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth from the seed URL (0 fetches only the seed)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per domain")
	cmd.Flags().IntP("workers", "w", config.DefaultConcurrency,
		"Number of concurrent fetch workers per domain")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same host")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")
	cmd.Flags().Bool("render", false,
		"Enable headless-browser fallback for client-side rendered pages")
	cmd.Flags().Bool("ignore-robots", false,
		"Skip robots.txt checks")
	cmd.Flags().String("proxy", "",
		"HTTP(S) proxy URL for all requests")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of domains crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ecomcrawler in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-db", false,
		"Do not persist crawl results to the local database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential sanitization
	verbose := getVerboseFlag(cmd)
	logger := intlog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Render, err = cmd.Flags().GetBool("render")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreRobots, err = cmd.Flags().GetBool("ignore-robots")
	if err != nil {
		return nil, err
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}

	// Save to the database in the XDG data directory unless disabled
	cfg.SaveToDB = !noDB
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (target domains or URLs)
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl for all configured targets.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"max_depth", cfg.MaxDepth,
		"max_pages", cfg.MaxPages,
		"batch_size", cfg.BatchSize,
		"save_to_db", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	startTime := time.Now()
	if len(cfg.Targets) > 1 {
		fmt.Printf("Starting crawl of %d targets (concurrency: %d)...\n\n",
			len(cfg.Targets), cfg.BatchSize)
	} else {
		fmt.Printf("Crawling %s...\n\n", cfg.Targets[0])
	}

	// The pipelines crawl and persist; report output happens in the
	// callback so concurrent crawls never interleave their reports.
	bp := pipeline.NewBatchProcessor(
		func(target string) *pipeline.Pipeline {
			return pipeline.DefaultPipeline(cfg, target, db, nil, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	var failed int
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(rep *model.CrawlReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if len(cfg.Targets) > 1 {
			fmt.Printf("[%d/%d] %s: %s (%d products)\n",
				index+1, len(cfg.Targets), rep.Domain, rep.State, len(rep.ProductURLs))
		}
		if rep.State == model.StateFailed {
			failed++
		}

		if err := outputReport(cfg, rep); err != nil {
			logger.Error("report output failed", "domain", rep.Domain, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nCrawl finished in %s\n", elapsed.Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed == len(cfg.Targets) {
		return errors.New("all targets failed")
	}
	return nil
}

// outputReport writes the crawl report in the requested format.
func outputReport(cfg *config.Config, rep *model.CrawlReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Append so multi-target crawls collect all reports in one file.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(rep)
	return err
}
