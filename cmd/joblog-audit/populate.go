package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"joblog-audit/internal/audit"
	"joblog-audit/internal/worker"
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Refill the workqueue from the Momentum citizen directory",
	Long: `Clears pending items and enqueues every in-scope citizen that has not
already been audited since the start of the current month.`,
	RunE: runPopulate,
}

func init() {
	rootCmd.AddCommand(populateCmd)
}

func runPopulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	// The audit service is wired for interface completeness; populate only
	// touches the directory and the queue.
	service, err := audit.New(d.client, d.tracker, d.reporter, audit.WithLogger(d.log))
	if err != nil {
		return err
	}
	runner, err := worker.New(d.client, d.queue, service, worker.WithLogger(d.log))
	if err != nil {
		return err
	}

	if err := d.queue.ClearPending(ctx); err != nil {
		return err
	}
	added, err := runner.Populate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Enqueued %d citizens\n", added)
	return nil
}
