package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/config"
	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/observability"
	"github.com/jonathan/sales-intel/internal/pdfx"
	"github.com/jonathan/sales-intel/internal/pipeline"
	"github.com/jonathan/sales-intel/internal/scrape"
	"github.com/jonathan/sales-intel/internal/search"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
)

// commonFlags are the flags shared by every subcommand: config file, data
// locations and credentials. CLI flags override config file values, which
// override environment variables.
type commonFlags struct {
	configPath string
	dataDir    string
	apiKey     string
	dbURL      string
	verbose    bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Root directory for persisted artifacts (default: data)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&f.dbURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var; file store when unset)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed stage information")
}

// resolve merges config file, flag overrides, environment and defaults into
// one validated configuration.
func (f *commonFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if f.verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", f.configPath)
		}
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.dbURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// contextFlags configure source aggregation for stages that consume company
// context.
type contextFlags struct {
	maxChars   int
	includeCRM bool
	includePDF bool
}

func (f *contextFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxChars, "max-chars", 0, "Context character budget, minimum 500 (default: 15000)")
	cmd.Flags().BoolVar(&f.includeCRM, "include-crm", true, "Include CRM data summary in the context")
	cmd.Flags().BoolVar(&f.includePDF, "include-pdf", true, "Include PDF document text in the context")
}

// app bundles the wired collaborators for one command invocation
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   store.Store
	client  llm.Client
	scraper *scrape.Controller
	orch    *pipeline.Orchestrator
	printer *observability.Printer

	pgStore *store.PGStore
}

// newLogger builds the CLI logger. Verbose mode logs at debug level to
// stderr; otherwise only warnings and errors surface.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// newStore selects the artifact store: Postgres when a database URL is
// configured, flat files otherwise.
func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, *store.PGStore, error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPGStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pg, pg, nil
	}
	fs, err := store.NewFileStore(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, err
	}
	return fs, nil, nil
}

// newApp wires the full pipeline stack. Search and scraping are optional:
// when no search credentials are configured the web loader can still serve
// previously scraped data from the store.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s environment variable or --api-key flag is required", config.EnvGeminiKey)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, err
	}

	st, pg, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		client:  client,
		printer: observability.NewPrinter(os.Stdout),
		pgStore: pg,
	}

	a.scraper = newScrapeController(ctx, cfg, st, logger)

	crmLoader := crm.NewLoader(cfg.CRMDir, logger)
	pdfLoader := pdfx.NewLoader(cfg.DocumentsDir, logger)
	agg := sources.NewAggregator(st, a.scraper, crmLoader, pdfLoader, logger)
	gen := generators.New(client, st, logger)
	a.orch = pipeline.New(gen, agg, st, crmLoader, logger)

	return a, nil
}

// newScrapeController builds the search plus scrape stack, or returns nil
// when the configured search provider has no credentials.
func newScrapeController(ctx context.Context, cfg config.Config, st store.Store, logger *zap.Logger) *scrape.Controller {
	provider := search.Provider(cfg.SearchProvider)
	creds := search.Config{
		GoogleAPIKey:     cfg.GoogleCSEKey,
		GoogleCSEID:      cfg.GoogleCSEID,
		PerplexityAPIKey: cfg.PerplexityAPIKey,
	}
	if provider == search.ProviderPerplexity && creds.PerplexityAPIKey == "" {
		logger.Warn("perplexity search not configured, live scraping disabled")
		return nil
	}
	if provider != search.ProviderPerplexity && (creds.GoogleAPIKey == "" || creds.GoogleCSEID == "") {
		logger.Warn("google search not configured, live scraping disabled")
		return nil
	}

	searcher, err := search.New(ctx, provider, creds)
	if err != nil {
		logger.Warn("search provider unavailable, live scraping disabled", zap.Error(err))
		return nil
	}

	var scraper scrape.Scraper
	if cfg.Scraper == "firecrawl" {
		scraper = scrape.NewFirecrawlScraper(cfg.FirecrawlAPIKey)
	} else {
		scraper = scrape.NewDirectScraper(cfg.UseBrowser)
	}

	return scrape.NewController(search.NewService(searcher, logger), scraper, st, logger, cfg.MaxScrapeURLs)
}

// Close releases client and store resources
func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	_ = a.logger.Sync()
}
