package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var generateProductsCmd = &cobra.Command{
	Use:   "generate-products",
	Short: "Discover a company's product catalog",
	Long:  "Runs the product discovery stage on its own using a web-search-grounded LLM call and persists the resulting catalog.",
	RunE:  runGenerateProducts,
}

var (
	genProductsFlags   commonFlags
	genProductsCompany string
)

func init() {
	genProductsFlags.register(generateProductsCmd)
	generateProductsCmd.Flags().StringVarP(&genProductsCompany, "company", "c", "", "Company name to research (required)")

	if err := generateProductsCmd.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(generateProductsCmd)
}

func runGenerateProducts(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := genProductsFlags.resolve(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	catalog, stats, err := a.orch.GenerateProducts(ctx, genProductsCompany)
	if err != nil {
		return err
	}

	a.printer.PrintProducts(catalog)
	if cfg.Verbose {
		a.printer.PrintStageStats(stats)
	}
	for _, ref := range stats.Refs {
		_, _ = fmt.Fprintf(os.Stdout, "Saved: %s\n", ref)
	}
	return nil
}
