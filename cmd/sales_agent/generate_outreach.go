package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/pipeline"
	"github.com/jonathan/sales-intel/internal/types"
)

var generateOutreachCmd = &cobra.Command{
	Use:   "generate-outreach",
	Short: "Draft multi-touch outreach sequences per persona",
	Long: `Runs the outreach stage on its own. Pain point mappings are request-scoped and must be supplied via --mappings-file; stored mappings are never used.

Personas are auto-loaded from storage to recover tiers and identifiers.`,
	RunE: runGenerateOutreach,
}

var (
	genOutreachFlags        commonFlags
	genOutreachCompany      string
	genOutreachMappingsFile string
)

func init() {
	genOutreachFlags.register(generateOutreachCmd)
	generateOutreachCmd.Flags().StringVarP(&genOutreachCompany, "company", "c", "", "Company name (required)")
	generateOutreachCmd.Flags().StringVarP(&genOutreachMappingsFile, "mappings-file", "m", "", "Path to a JSON file holding the pain point mappings (required)")

	for _, flag := range []string{"company", "mappings-file"} {
		if err := generateOutreachCmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", flag, err))
		}
	}

	rootCmd.AddCommand(generateOutreachCmd)
}

func runGenerateOutreach(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := genOutreachFlags.resolve(cmd)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(genOutreachMappingsFile)
	if err != nil {
		return fmt.Errorf("failed to read mappings file %s: %w", genOutreachMappingsFile, err)
	}
	var mappings types.MappingSet
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return fmt.Errorf("failed to parse mappings JSON: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	set, stats, err := a.orch.GenerateOutreach(ctx, pipeline.OutreachRequest{
		CompanyName: genOutreachCompany,
		Mappings:    &mappings,
	})
	if err != nil {
		return err
	}

	a.printer.PrintSequences(set)
	if cfg.Verbose {
		a.printer.PrintStageStats(stats)
	}
	for _, ref := range stats.Refs {
		_, _ = fmt.Fprintf(os.Stdout, "Saved: %s\n", ref)
	}
	return nil
}
