// Package main provides the command-line interface for the Mailsift email
// discovery and validation tool.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vnykmshr/mailsift/internal/batch"
	"github.com/vnykmshr/mailsift/internal/config"
	"github.com/vnykmshr/mailsift/internal/crawler"
	"github.com/vnykmshr/mailsift/internal/domain"
	"github.com/vnykmshr/mailsift/internal/reporter"
	"github.com/vnykmshr/mailsift/internal/store"
	"github.com/vnykmshr/mailsift/internal/validator"
)

const version = "1.0.0"

func main() {
	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	var (
		configPath    = flag.String("config", "", "Path to configuration file (JSON)")
		seedURL       = flag.String("url", "", "Seed URL to scrape for email addresses")
		urlsFile      = flag.String("urls-file", "", "File with one seed URL per line")
		address       = flag.String("address", "", "Single email address to validate")
		addressesFile = flag.String("addresses-file", "", "File with one email address per line")
		mode          = flag.String("mode", "complete", "Validation mode: format, quick or complete")
		resumeID      = flag.String("resume", "", "Resume a stored job by ID")
		listJobs      = flag.Bool("jobs", false, "List stored jobs and exit")
		batchSize     = flag.Int("batch-size", 0, "Items processed per batch slice")
		concurrency   = flag.Int("concurrency", 0, "Number of concurrent workers")
		rate          = flag.Float64("rate", 0, "Bulk pacing limit in items per second")
		dbPath        = flag.String("db", "", "SQLite database path for resumable jobs")
		outputFile    = flag.String("output", "", "Output file for results (JSON); a CSV is written alongside")
		noSMTP        = flag.Bool("no-smtp", false, "Disable SMTP mailbox probing")
		verbose       = flag.Bool("verbose", false, "Verbose logging")
		showVersion   = flag.Bool("version", false, "Show version information")
		showHelp      = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Mailsift v%s\n", version)
		return
	}

	if *showHelp {
		showHelpMessage()
		return
	}

	cfg, err := loadConfiguration(*configPath, &configOptions{
		batchSize:   *batchSize,
		concurrency: *concurrency,
		rate:        *rate,
		dbPath:      *dbPath,
		outputFile:  *outputFile,
		noSMTP:      *noSMTP,
		verbose:     *verbose,
	})
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	crawlCfg, err := config.ParseCrawl(cfg)
	if err != nil {
		log.Fatalf("Invalid crawl configuration: %v", err)
	}
	pipelineCfg, err := config.ParsePipeline(cfg)
	if err != nil {
		log.Fatalf("Invalid pipeline configuration: %v", err)
	}

	var jobStore *store.SQLiteStore
	if cfg.DatabasePath != "" {
		jobStore, err = store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open job store: %v", err)
		}
		defer func() {
			_ = jobStore.Close()
		}()
	}

	if *listJobs {
		if jobStore == nil {
			log.Fatal("Listing jobs requires -db")
		}
		printJobList(jobStore)
		return
	}

	siteCrawler := crawler.New(crawlCfg, crawler.NewPerHostLimiter(crawlCfg.HostInterval), logger)
	pipeline := validator.NewPipeline(pipelineCfg, logger)

	progress := func(done, total int, currentItem string) {
		fmt.Fprintf(os.Stderr, "Progress: %d/%d (last: %s)\n", done, total, currentItem)
	}

	var storeIface domain.JobStore
	if jobStore != nil {
		storeIface = jobStore
	}
	coordinator := batch.New(batch.Config{
		Concurrency:  cfg.Concurrency,
		BulkRate:     cfg.BulkRate,
		MaxURLs:      cfg.MaxURLs,
		MaxAddresses: cfg.MaxAddresses,
	}, siteCrawler, pipeline, storeIface, progress, logger)

	job, err := buildJob(coordinator, jobStore, &jobOptions{
		seedURL:       *seedURL,
		urlsFile:      *urlsFile,
		address:       *address,
		addressesFile: *addressesFile,
		mode:          *mode,
		resumeID:      *resumeID,
		batchSize:     cfg.BatchSize,
	})
	if err != nil {
		log.Fatalf("Failed to set up job: %v", err)
	}

	// Ctrl-C pauses the job; with -db the snapshot can be resumed later.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting job",
		"job_id", job.ID,
		"kind", job.Kind,
		"mode", job.Mode,
		"items", len(job.Items),
		"batch_size", job.BatchSize,
		"concurrency", cfg.Concurrency)

	if err := coordinator.RunToCompletion(ctx, job); err != nil && ctx.Err() == nil {
		log.Fatalf("Job failed: %v", err)
	}
	if job.Status == domain.JobPaused {
		logger.Info("Job paused", "job_id", job.ID, "done", job.Done(), "total", job.Total())
		if jobStore == nil {
			logger.Warn("No -db given, paused progress is lost")
		}
	}

	rep := reporter.New(job)
	rep.PrintSummary()

	if cfg.OutputFile != "" {
		if err := rep.GenerateJSON(cfg.OutputFile); err != nil {
			log.Fatalf("Failed to save results: %v", err)
		}
		logger.Info("Results saved", "file", cfg.OutputFile)

		csvFile := strings.TrimSuffix(cfg.OutputFile, filepath.Ext(cfg.OutputFile)) + ".csv"
		if err := rep.GenerateCSV(csvFile); err != nil {
			logger.Error("Failed to generate CSV export", "error", err)
		} else {
			logger.Info("CSV export generated", "file", csvFile)
		}
	}
}

type configOptions struct {
	dbPath      string
	outputFile  string
	rate        float64
	batchSize   int
	concurrency int
	noSMTP      bool
	verbose     bool
}

func loadConfiguration(configPath string, opts *configOptions) (*domain.Config, error) {
	loader := config.NewLoader()

	var cfg *domain.Config

	if configPath != "" {
		loadedCfg, err := loader.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loadedCfg
	} else {
		defaultCfg := domain.DefaultConfig()
		cfg = &defaultCfg
	}

	// Override with CLI flags (if provided)
	if opts.batchSize != 0 {
		cfg.BatchSize = opts.batchSize
	}
	if opts.concurrency != 0 {
		cfg.Concurrency = opts.concurrency
	}
	if opts.rate != 0 {
		cfg.BulkRate = opts.rate
	}
	if opts.dbPath != "" {
		cfg.DatabasePath = opts.dbPath
	}
	if opts.outputFile != "" {
		cfg.OutputFile = opts.outputFile
	}
	if opts.noSMTP {
		cfg.SMTPEnabled = false
	}
	cfg.Verbose = opts.verbose

	cfg = loader.MergeWithDefaults(cfg)

	return cfg, nil
}

type jobOptions struct {
	seedURL       string
	urlsFile      string
	address       string
	addressesFile string
	mode          string
	resumeID      string
	batchSize     int
}

func buildJob(coordinator *batch.Coordinator, jobStore *store.SQLiteStore, opts *jobOptions) (*domain.BatchJob, error) {
	if opts.resumeID != "" {
		if jobStore == nil {
			return nil, fmt.Errorf("resuming requires -db")
		}
		return coordinator.Resume(context.Background(), opts.resumeID)
	}

	urls, err := collectItems(opts.seedURL, opts.urlsFile)
	if err != nil {
		return nil, err
	}
	addresses, err := collectItems(opts.address, opts.addressesFile)
	if err != nil {
		return nil, err
	}

	switch {
	case len(urls) > 0 && len(addresses) > 0:
		return nil, fmt.Errorf("give either URLs or addresses, not both")
	case len(urls) > 0:
		return coordinator.NewJob(domain.JobScrape, "", urls, opts.batchSize)
	case len(addresses) > 0:
		validationMode, err := domain.ParseValidationMode(opts.mode)
		if err != nil {
			return nil, err
		}
		return coordinator.NewJob(domain.JobValidate, validationMode, addresses, opts.batchSize)
	}
	return nil, fmt.Errorf("nothing to do: give -url, -urls-file, -address or -addresses-file")
}

// collectItems merges a single flag value with the lines of an optional
// file. Blank lines and #-comments in the file are skipped.
func collectItems(single, file string) ([]string, error) {
	var items []string
	if single != "" {
		items = append(items, single)
	}
	if file == "" {
		return items, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", file, err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return items, nil
}

func printJobList(jobStore *store.SQLiteStore) {
	summaries, err := jobStore.ListJobs(context.Background())
	if err != nil {
		log.Fatalf("Failed to list jobs: %v", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No stored jobs.")
		return
	}
	fmt.Printf("%-38s %-9s %-9s %-10s %-6s %s\n", "ID", "KIND", "MODE", "STATUS", "DONE", "UPDATED")
	for _, s := range summaries {
		fmt.Printf("%-38s %-9s %-9s %-10s %-6d %s\n",
			s.ID, s.Kind, s.Mode, s.Status, s.Done, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func showHelpMessage() {
	fmt.Println(`Mailsift - Email Discovery and Validation Tool

USAGE:
    mailsift [OPTIONS]

OPTIONS:
    -config string
        Path to configuration file (JSON format)
    -url string
        Seed URL to scrape for email addresses
    -urls-file string
        File with one seed URL per line (max 50)
    -address string
        Single email address to validate
    -addresses-file string
        File with one email address per line (max 1000)
    -mode string
        Validation mode: format, quick or complete (default: complete)
    -resume string
        Resume a stored job by ID (requires -db)
    -jobs
        List stored jobs and exit (requires -db)
    -batch-size int
        Items processed per batch slice (default: 50)
    -concurrency int
        Number of concurrent workers (default: 4)
    -rate float
        Bulk pacing limit in items per second (default: 5.0)
    -db string
        SQLite database path for resumable jobs
    -output string
        Output file for results (JSON); a CSV is written alongside
    -no-smtp
        Disable SMTP mailbox probing
    -verbose
        Enable verbose logging
    -version
        Show version information
    -help
        Show this help message

EXAMPLES:
    # Scrape one site for email addresses
    mailsift -url https://acme.io

    # Scrape many sites with results persisted
    mailsift -urls-file seeds.txt -db mailsift.db -output results.json

    # Validate a single address end to end
    mailsift -address sales@acme.io

    # Validate a list without SMTP probing
    mailsift -addresses-file leads.txt -mode quick -output verdicts.json

    # Resume an interrupted job
    mailsift -resume 2f6c33de-... -db mailsift.db

CONFIGURATION FILE EXAMPLE:
    {
      "concurrency": 4,
      "request_timeout": "10s",
      "dns_timeout": "5s",
      "dns_resolver": "8.8.8.8:53",
      "smtp_timeout": "10s",
      "smtp_enabled": true,
      "host_interval": "2s",
      "bulk_rate": 5.0,
      "max_contact_pages": 3,
      "batch_size": 50,
      "user_agent": "Mailsift/1.0",
      "respect_robots": true,
      "database_path": "mailsift.db",
      "output_file": "results.json"
    }

DOCUMENTATION:
    Full documentation: https://github.com/vnykmshr/mailsift
    Report issues: https://github.com/vnykmshr/mailsift/issues

VERSION:
    Mailsift v` + version)
}
