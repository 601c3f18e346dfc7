package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Search for a company and scrape its web presence",
	Long:  "Searches for the company's official website, news and case studies, scrapes the discovered pages concurrently and persists the combined text as a scraped-data artifact.",
	RunE:  runScrape,
}

var (
	scrapeFlags      commonFlags
	scrapeCompany    string
	scrapeUseBrowser bool
)

func init() {
	scrapeFlags.register(scrapeCmd)
	scrapeCmd.Flags().StringVarP(&scrapeCompany, "company", "c", "", "Company name to scrape (required)")
	scrapeCmd.Flags().BoolVar(&scrapeUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")

	if err := scrapeCmd.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := scrapeFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = scrapeUseBrowser
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.scraper == nil {
		return fmt.Errorf("scraping requires search credentials: set GOOGLE_CSE_KEY and GOOGLE_CSE_ID, or PERPLEXITY_API_KEY with search_provider perplexity")
	}

	data, ref, err := a.scraper.ScrapeCompany(ctx, scrapeCompany)
	if err != nil {
		return err
	}

	pages := data.SuccessCount()
	if data.OfficialWebsite != "" {
		pages++
	}
	_, _ = fmt.Fprintf(os.Stdout, "Scraped %d pages for %s\n", pages, data.CompanyName)
	_, _ = fmt.Fprintf(os.Stdout, "Saved: %s\n", ref)
	return nil
}
