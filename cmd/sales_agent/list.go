package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies with stored data",
	Long:  "Enumerates every company that has stored artifacts, with artifact counts and last update times.",
	RunE:  runList,
}

var listFlags commonFlags

func init() {
	listFlags.register(listCmd)
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := listFlags.resolve(cmd)
	if err != nil {
		return err
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

	companies, err := st.ListCompanies(ctx)
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No companies with stored data.")
		return nil
	}

	for _, c := range companies {
		_, _ = fmt.Fprintf(os.Stdout, "%-40s %3d artifacts  updated %s\n",
			c.CompanyName, c.Artifacts, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
