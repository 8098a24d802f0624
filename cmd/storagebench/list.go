package main

import (
	"github.com/spf13/cobra"

	"storagebench/db"
	"storagebench/report"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded benchmark runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := db.Open(cfg.Benchmark.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(listLimit)
		if err != nil {
			return err
		}
		report.PrintRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "number of runs to show")
}
