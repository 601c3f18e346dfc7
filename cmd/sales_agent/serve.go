package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/sales-intel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the pipeline, generating individual stages, scraping companies, uploading CRM data and exporting artifacts.`,
	RunE:  runServe,
}

var (
	serveFlags commonFlags
	servePort  int
)

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := serveFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{
		Port:         cfg.Port,
		Orchestrator: a.orch,
		Store:        a.store,
		Scraper:      a.scraper,
		CRMDir:       cfg.CRMDir,
		Logger:       a.logger,
	})

	return srv.Start()
}
