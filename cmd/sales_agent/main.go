// Package main provides the entry point for the sales intelligence agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sales_agent",
	Short: "Sales intelligence generation pipeline",
	Long:  "Sales agent researches a company, derives customer personas, maps pain points to value propositions and drafts multi-touch outreach sequences via a staged LLM pipeline.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
