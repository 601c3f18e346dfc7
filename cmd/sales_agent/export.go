package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/export"
	"github.com/jonathan/sales-intel/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored artifact as CSV or Markdown",
	Long:  "Renders the latest stored artifact of the given kind (products, personas, mappings or sequences) for a company. Writes to stdout unless --out is given.",
	RunE:  runExport,
}

var (
	exportFlags   commonFlags
	exportCompany string
	exportKind    string
	exportFormat  string
	exportOut     string
)

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportCompany, "company", "c", "", "Company name (required)")
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", "", "Artifact kind: products, personas, mappings or sequences (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv or markdown")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file path (default: stdout)")

	for _, flag := range []string{"company", "kind"} {
		if err := exportCmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", flag, err))
		}
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := exportFlags.resolve(cmd)
	if err != nil {
		return err
	}

	kind := store.Kind(exportKind)
	if !kind.Valid() || kind == store.KindScraped {
		return fmt.Errorf("unsupported export kind %q (expected products, personas, mappings or sequences)", exportKind)
	}
	format := export.Format(exportFormat)
	if !format.Valid() {
		return fmt.Errorf("unsupported export format %q (expected csv or markdown)", exportFormat)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	st, pg, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	artifact, err := store.LoadLatest(ctx, st, exportCompany, kind)
	if err != nil {
		return fmt.Errorf("failed to load %s for %s: %w", kind, exportCompany, err)
	}

	out, err := export.Artifact(artifact, format)
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(exportOut, out, 0o644); err != nil {
		return fmt.Errorf("failed to write export file %s: %w", exportOut, err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "Exported %s to %s\n", kind, exportOut)
	return nil
}
