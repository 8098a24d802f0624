package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storagebench/db"
	"storagebench/report"
)

var showCmd = &cobra.Command{
	Use:   "show <run_id>",
	Short: "Show the results of a specific run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := db.Open(cfg.Benchmark.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.RunResults(runID)
		if err != nil {
			return err
		}
		report.PrintRunResults(cmd.OutOrStdout(), runID, results)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
