// Package main is the joblog audit worker: a batch automation that checks
// citizens' job-search logs against their caseworker-set requirements and
// raises caseworker tasks when compliance fails.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "joblog-audit",
	Short: "Joblog compliance audit worker",
	Long: `Audits citizens' job-search-log compliance against the requirements in the
Momentum case-management system. "populate" refills the workqueue from the
citizen directory; "run" drains it, one citizen at a time.`,
}

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
