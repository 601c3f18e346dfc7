package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full sales intelligence pipeline end-to-end",
	Long: `Orchestrates the staged generation process: product discovery -> customer personas -> pain point mappings -> outreach sequences.

Previously generated artifacts for the company are auto-loaded from storage so individual stages can be skipped. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runFlags    commonFlags
	runCtxFlags contextFlags
	runCompany  string
	runCount    int
	runVariant  string
)

func init() {
	runFlags.register(runCommand)
	runCtxFlags.register(runCommand)

	runCommand.Flags().StringVarP(&runCompany, "company", "c", "", "Company name to research (required)")
	runCommand.Flags().IntVar(&runCount, "count", 0, "Number of personas to generate (default: 3)")
	runCommand.Flags().StringVar(&runVariant, "variant", "", "Pipeline variant: four_stage (default), three_stage, two_stage or baseline")

	if err := runCommand.MarkFlagRequired("company"); err != nil {
		panic(fmt.Sprintf("failed to mark company flag as required: %v", err))
	}

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := runFlags.resolve(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, runErr := a.orch.Run(ctx, pipeline.Request{
		CompanyName:   runCompany,
		GenerateCount: runCount,
		Variant:       pipeline.Variant(runVariant),
		MaxChars:      runCtxFlags.maxChars,
		IncludeCRM:    &runCtxFlags.includeCRM,
		IncludePDF:    &runCtxFlags.includePDF,
	})

	if res != nil {
		if cfg.Verbose {
			a.printer.PrintProducts(res.Products)
			a.printer.PrintPersonas(res.Personas)
			a.printer.PrintMappings(res.Mappings)
			a.printer.PrintSequences(res.Sequences)
			for _, st := range res.Stages {
				a.printer.PrintStageStats(st)
			}
		}
		a.printer.PrintRunTotals(res.RunID, res.Stages, res.TotalUsage, res.TotalMS)
	}

	if runErr != nil {
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			_, _ = fmt.Fprintf(os.Stderr, "Pipeline failed at stage %s; earlier artifacts were kept.\n", stageErr.Stage)
		}
		return runErr
	}

	_, _ = fmt.Fprintf(os.Stdout, "Pipeline completed for %s (%d stages, %d tokens)\n",
		res.CompanyName, len(res.Stages), res.TotalUsage.TotalTokens)
	return nil
}
