package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/pipeline"
)

var generatePersonasCmd = &cobra.Command{
	Use:   "generate-personas",
	Short: "Generate customer personas for a company",
	Long:  "Runs the persona stage on its own. The product catalog is auto-loaded from storage when one exists; company context comes from scraped data plus optional CRM and PDF sources.",
	RunE:  runGeneratePersonas,
}

var (
	genPersonasFlags    commonFlags
	genPersonasCtxFlags contextFlags
	genPersonasCompany  string
	genPersonasCount    int
)

func init() {
	genPersonasFlags.register(generatePersonasCmd)
	genPersonasCtxFlags.register(generatePersonasCmd)
	generatePersonasCmd.Flags().StringVarP(&genPersonasCompany, "company", "c", "", "Company name (required)")
	generatePersonasCmd.Flags().IntVar(&genPersonasCount, "count", 0, "Number of personas to generate (default: 3)")

	if err := generatePersonasCmd.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(generatePersonasCmd)
}

func runGeneratePersonas(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := genPersonasFlags.resolve(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	set, stats, err := a.orch.GeneratePersonas(ctx, pipeline.PersonaRequest{
		CompanyName:   genPersonasCompany,
		GenerateCount: genPersonasCount,
		MaxChars:      genPersonasCtxFlags.maxChars,
		IncludeCRM:    &genPersonasCtxFlags.includeCRM,
		IncludePDF:    &genPersonasCtxFlags.includePDF,
	})
	if err != nil {
		return err
	}

	a.printer.PrintPersonas(set)
	if cfg.Verbose {
		a.printer.PrintStageStats(stats)
	}
	for _, ref := range stats.Refs {
		_, _ = fmt.Fprintf(os.Stdout, "Saved: %s\n", ref)
	}
	return nil
}
