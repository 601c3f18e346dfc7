package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/pipeline"
)

var generateMappingsCmd = &cobra.Command{
	Use:   "generate-mappings",
	Short: "Map pain points to value propositions per persona",
	Long:  "Runs the mapping stage on its own. Personas are auto-loaded from storage and are required; the product catalog is auto-loaded when one exists.",
	RunE:  runGenerateMappings,
}

var (
	genMappingsFlags    commonFlags
	genMappingsCtxFlags contextFlags
	genMappingsCompany  string
)

func init() {
	genMappingsFlags.register(generateMappingsCmd)
	genMappingsCtxFlags.register(generateMappingsCmd)
	generateMappingsCmd.Flags().StringVarP(&genMappingsCompany, "company", "c", "", "Company name (required)")

	if err := generateMappingsCmd.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(generateMappingsCmd)
}

func runGenerateMappings(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := genMappingsFlags.resolve(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	set, stats, err := a.orch.GenerateMappings(ctx, pipeline.MappingRequest{
		CompanyName: genMappingsCompany,
		MaxChars:    genMappingsCtxFlags.maxChars,
		IncludeCRM:  &genMappingsCtxFlags.includeCRM,
		IncludePDF:  &genMappingsCtxFlags.includePDF,
	})
	if err != nil {
		return err
	}

	a.printer.PrintMappings(set)
	if cfg.Verbose {
		a.printer.PrintStageStats(stats)
	}
	for _, ref := range stats.Refs {
		_, _ = fmt.Fprintf(os.Stdout, "Saved: %s\n", ref)
	}
	return nil
}
