package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storagebench/benchmark"
	"storagebench/compare"
	"storagebench/db"
	"storagebench/report"
)

// compareResultLimit bounds how many recent results per provider feed the
// comparison.
const compareResultLimit = 50

var compareProviders []string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare stored provider performance",
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

		names := compareProviders
		if len(names) == 0 {
			names, err = store.ProviderNames()
			if err != nil {
				return err
			}
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No data available for comparison")
			return nil
		}

		var all []compare.ProviderResults
		for _, name := range names {
			stored, err := store.RecentProviderResults(name, compareResultLimit)
			if err != nil {
				return err
			}
			if len(stored) == 0 {
				continue
			}
			results := make([]benchmark.Result, 0, len(stored))
			for _, r := range stored {
				results = append(results, r.Result)
			}
			all = append(all, compare.ProviderResults{ProviderName: name, Results: results})
		}
		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results found for comparison")
			return nil
		}

		report.PrintComparison(cmd.OutOrStdout(), compare.Compare(all))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringArrayVarP(&compareProviders, "providers", "p", nil, "providers to compare (default: all with stored results)")
}
