// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trial-scout/internal/facet"
	"github.com/pdiddy/trial-scout/internal/loader"
	"github.com/pdiddy/trial-scout/pkg/types"
)

// formatResults writes the headline counts, the visible trials as a
// table, and the facet badge counts.
func formatResults(visible []types.TrialRecord, counts facet.Counts, loaded loader.Output, facets types.FacetState, w io.Writer) {
	eligible := 0
	for _, tr := range loaded.Trials {
		if tr.Eligible() {
			eligible++
		}
	}

	side := "Potential"
	shown := eligible
	if !facets.ShowEligible {
		side = "Ineligible"
		shown = len(loaded.Trials) - eligible
	}
	fmt.Fprintf(w, "%s Trials (%d of %d)\n\n", side, shown, loaded.Expected)

	if len(visible) == 0 {
		fmt.Fprintln(w, "No trials match the active facets.")
	} else {
		formatTable(visible, w)
	}

	if len(counts.InterventionTypes) > 0 {
		fmt.Fprintf(w, "\nIntervention types: %s\n", formatCounts(counts.InterventionTypes))
	}
	if len(counts.Phases) > 0 {
		fmt.Fprintf(w, "Phases: %s\n", formatCounts(counts.Phases))
	}
	if loaded.FailedBatches > 0 {
		fmt.Fprintf(w, "\nwarning: %d batch request(s) failed; %d of %d trials loaded\n",
			loaded.FailedBatches, loaded.Loaded, loaded.Expected)
	}
}

func formatTable(trials []types.TrialRecord, w io.Writer) {
	fmt.Fprintf(w, "%-4s  %-11s  %-52s  %-18s  %-15s  %s\n",
		"Rank", "ID", "Title", "Types", "Phases", "Distance")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	for i, tr := range trials {
		title := tr.Title
		if len(title) > 52 {
			title = title[:49] + "..."
		}
		distance := "unknown"
		if tr.HasClosest() {
			distance = fmt.Sprintf("%.1f km", tr.ClosestKm)
		}
		fmt.Fprintf(w, "%-4d  %-11s  %-52s  %-18s  %-15s  %s\n",
			i+1, tr.ID, title,
			truncate(strings.Join(tr.InterventionTypes, ","), 18),
			truncate(strings.Join(tr.Phases, ","), 15),
			distance)
		if tr.ExclusionReason != "" {
			fmt.Fprintf(w, "      excluded: %s\n", firstLine(tr.ExclusionReason))
		}
	}
	fmt.Fprintf(w, "\n%d trials shown\n", len(trials))
}

// formatCounts renders facet counts as "Drug (4), Device (1)", sorted by
// descending count with name as tiebreaker.
func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}

// formatJSON writes v as indented JSON to w.
func formatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exportYAML writes the visible trials to a YAML file.
func exportYAML(path string, trials []types.TrialRecord) error {
	data, err := yaml.Marshal(trials)
	if err != nil {
		return fmt.Errorf("marshaling trials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
