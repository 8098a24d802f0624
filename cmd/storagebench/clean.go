package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storagebench/storage"
)

var (
	cleanProvider string
	cleanPrefix   string
	cleanYes      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete leftover benchmark test objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var names []string
		if cleanProvider != "" {
			names = []string{cleanProvider}
		}
		providers, err := resolveProviders(cfg, names)
		if err != nil {
			return err
		}

		prefix := cleanPrefix
		if prefix == "" {
			prefix = cfg.Benchmark.TestPrefix
		}

		out := cmd.OutOrStdout()
		if !cleanYes {
			providerNames := make([]string, 0, len(providers))
			for _, p := range providers {
				providerNames = append(providerNames, p.Name)
			}
			fmt.Fprintf(out, "Delete all objects under %s/ from providers: %s? [y/N]: ",
				prefix, strings.Join(providerNames, ", "))
			reply, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			reply = strings.ToLower(strings.TrimSpace(reply))
			if reply != "y" && reply != "yes" {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
		}

		total := 0
		for _, p := range providers {
			backend, err := newBackend(ctx, p, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", p.Name, err)
				continue
			}
			cleaner, ok := backend.(storage.Cleaner)
			if !ok {
				fmt.Fprintf(out, "%s: cleanup not supported for this storage type\n", p.Name)
				continue
			}
			deleted := cleaner.DeletePrefix(ctx, prefix+"/")
			fmt.Fprintf(out, "%s: deleted %d test objects\n", p.Name, deleted)
			total += deleted
		}
		fmt.Fprintf(out, "\nTotal objects deleted: %d\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanProvider, "provider", "p", "", "provider to clean (default: all enabled)")
	cleanCmd.Flags().StringVar(&cleanPrefix, "prefix", "", "prefix of test objects to clean (default: from config)")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "skip the confirmation prompt")
}
