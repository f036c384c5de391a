// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trial-scout/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List remembered searches",
	Long: `History lists searches recorded with --remember, newest first, with
the run id and the eligible/ineligible counts each search produced.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum entries to show (default from config)")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return formatJSON(entries, os.Stdout)
	}

	if len(entries) == 0 {
		fmt.Println("No remembered searches.")
		return nil
	}

	fmt.Printf("%-20s  %-24s  %-8s  %-4s  %-9s  %s\n",
		"When", "Search", "Gender", "Age", "Eligible", "Ineligible")
	for _, e := range entries {
		search := e.Condition
		if search == "" {
			search = e.Term
		}
		fmt.Printf("%-20s  %-24s  %-8s  %-4d  %-9d  %d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(search, 24), e.Gender, e.Age, e.Eligible, e.Ineligible)
	}
	return nil
}
