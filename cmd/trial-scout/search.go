// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trial-scout/internal/facet"
	"github.com/pdiddy/trial-scout/internal/history"
	"github.com/pdiddy/trial-scout/internal/loader"
	"github.com/pdiddy/trial-scout/internal/locator"
	"github.com/pdiddy/trial-scout/internal/orchestrator"
	"github.com/pdiddy/trial-scout/internal/registry"
	"github.com/pdiddy/trial-scout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the trial registry for matching trials",
	Long: `Search submits a trial search run for a condition or free-text term plus
the patient's gender and age, waits for the server-side filter pipeline to
finish, fetches the matching trials in batches, and prints them ordered by
distance to the patient address.

Facet flags (--type, --phase, --keyword, --ineligible) narrow the printed
list client-side. Ctrl-C cancels the search cleanly.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("cond", "", "patient condition to search for (mutually exclusive with --term)")
	searchCmd.Flags().String("term", "", "free-text search term (mutually exclusive with --cond)")
	searchCmd.Flags().String("gender", "", `patient gender ("male" or "female")`)
	searchCmd.Flags().Int("age", 0, "patient age in years")
	searchCmd.Flags().String("address", "", "patient address for distance sorting")
	searchCmd.Flags().Int("batch-size", 0, "trials per batch request (default from config)")
	searchCmd.Flags().Bool("ineligible", false, "show the excluded trials instead of the eligible ones")
	searchCmd.Flags().StringSlice("type", nil, "intervention-type facets (default: all found)")
	searchCmd.Flags().StringSlice("phase", nil, "phase facets (default: all phases)")
	searchCmd.Flags().StringSlice("keyword", nil, "keyword facets, matched case-insensitively")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("export", "", "write the visible trials to a YAML file")
	searchCmd.Flags().Bool("remember", false, "record this search in the local history")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cond, _ := cmd.Flags().GetString("cond")
	term, _ := cmd.Flags().GetString("term")
	if cond != "" && term != "" {
		return fmt.Errorf("--cond and --term are mutually exclusive")
	}
	if cond == "" && term == "" {
		return fmt.Errorf("provide --cond or --term")
	}

	gender, _ := cmd.Flags().GetString("gender")
	age, _ := cmd.Flags().GetInt("age")
	address, _ := cmd.Flags().GetString("address")
	remember, _ := cmd.Flags().GetBool("remember")

	cfg := loadConfig()
	log := newLogger(cmd)
	defer log.Sync()

	reg := registry.New(cfg.Registry)
	loc := locator.New(cfg.Geocode, log)
	orch := orchestrator.New(reg, loc, cfg.Registry.PollInterval, log)

	// Ctrl-C requests a cooperative stop; in-flight responses are discarded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		orch.Cancel()
	}()

	query := registry.Query{
		Condition: cond,
		Term:      term,
		Gender:    gender,
		Age:       age,
		Remember:  remember,
	}

	result, err := orch.Run(ctx, query, address, os.Stderr)
	if err != nil {
		return err
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = cfg.Registry.BatchSize
	}
	loaded, err := loader.New(reg, batchSize, log).Load(ctx, result.Ranked, result.Patient, os.Stderr)
	if err != nil {
		return err
	}

	facets := facetsFromFlags(cmd, loaded)
	visible, counts := facet.ComputeVisible(loaded.Trials, facets)

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := exportYAML(path, visible); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d trials to %s\n", len(visible), path)
	}

	if remember {
		if err := rememberSearch(ctx, cfg.History, query, address, result, loaded); err != nil {
			// History is a convenience; a failed write never fails the search.
			fmt.Fprintf(os.Stderr, "warning: could not record search history: %v\n", err)
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return formatJSON(visible, os.Stdout)
	}
	formatResults(visible, counts, loaded, facets, os.Stdout)
	return nil
}

// facetsFromFlags builds the facet state: explicit flags win, otherwise
// every intervention type found in the loaded set is active.
func facetsFromFlags(cmd *cobra.Command, loaded loader.Output) types.FacetState {
	ineligible, _ := cmd.Flags().GetBool("ineligible")
	typeFacets, _ := cmd.Flags().GetStringSlice("type")
	phaseFacets, _ := cmd.Flags().GetStringSlice("phase")
	keywordFacets, _ := cmd.Flags().GetStringSlice("keyword")

	if len(typeFacets) == 0 {
		typeFacets = loaded.InterventionTypes
	}
	return types.FacetState{
		ShowEligible:      !ineligible,
		InterventionTypes: typeFacets,
		Phases:            phaseFacets,
		Keywords:          keywordFacets,
	}
}

func rememberSearch(ctx context.Context, cfg types.HistoryConfig, q registry.Query, address string, result *orchestrator.Result, loaded loader.Output) error {
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	eligible := 0
	for _, rt := range result.Ranked {
		if rt.Eligible() {
			eligible++
		}
	}

	_, err = store.Record(ctx, history.Entry{
		RunID:      result.RunID,
		Condition:  q.Condition,
		Term:       q.Term,
		Gender:     q.Gender,
		Age:        q.Age,
		Address:    address,
		Eligible:   eligible,
		Ineligible: len(result.Ranked) - eligible,
	})
	return err
}
