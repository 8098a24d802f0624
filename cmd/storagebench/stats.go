package main

import (
	"github.com/spf13/cobra"

	"storagebench/db"
	"storagebench/report"
)

var statsProvider string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate provider statistics",
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

		stats, err := store.Stats(statsProvider)
		if err != nil {
			return err
		}
		report.PrintStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsProvider, "provider", "p", "", "provider to show stats for (default: all)")
}
