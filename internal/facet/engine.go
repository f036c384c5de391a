// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package facet computes the visible subset of loaded trials for the
// active facet selections, plus the per-facet match counts shown on the
// filter badges.
package facet

import (
	"sort"
	"strings"

	"github.com/pdiddy/trial-scout/pkg/types"
)

// Counts holds per-facet match counts. They are computed over the
// eligibility-side set before the type/phase/keyword filters apply, so a
// badge answers "how many trials would this facet match".
type Counts struct {
	InterventionTypes map[string]int
	Phases            map[string]int
}

// ComputeVisible returns the trials visible under the given facet state,
// ordered by ascending closest distance with unknown distances last, and
// the facet counts. It is a pure function of (trials, facets): the input
// slice is never mutated and repeated calls yield identical output.
//
// A trial is visible iff its eligibility side matches facets.ShowEligible,
// it shares at least one intervention type with the active set, its phases
// intersect the active phases (an empty phase selection means all phases),
// and, when keywords are active, at least one of its keywords matches one
// case-insensitively.
func ComputeVisible(trials []types.TrialRecord, facets types.FacetState) ([]types.TrialRecord, Counts) {
	counts := Counts{
		InterventionTypes: make(map[string]int),
		Phases:            make(map[string]int),
	}

	// Pass 1: restrict to the selected eligibility side and count facets.
	var side []types.TrialRecord
	for _, trial := range trials {
		if trial.Eligible() != facets.ShowEligible {
			continue
		}
		side = append(side, trial)
		for _, it := range trial.InterventionTypes {
			counts.InterventionTypes[it]++
		}
		for _, ph := range trial.Phases {
			counts.Phases[ph]++
		}
	}

	// Pass 2: apply the type, phase, and keyword facets.
	activeTypes := toSet(facets.InterventionTypes)
	activePhases := toSet(facets.Phases)

	var visible []types.TrialRecord
	for _, trial := range side {
		if !intersects(trial.InterventionTypes, activeTypes) {
			continue
		}
		if len(activePhases) > 0 && !intersects(trial.Phases, activePhases) {
			continue
		}
		if len(facets.Keywords) > 0 && !matchesKeyword(trial.Keywords, facets.Keywords) {
			continue
		}
		visible = append(visible, trial)
	}

	// Display order: closest first, unknown distances (+Inf) last. Stable
	// so the server ranking breaks ties.
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].ClosestKm < visible[j].ClosestKm
	})

	return visible, counts
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// intersects reports whether any of values is in set. An empty set never
// intersects, which is what makes "no types selected" mean "show nothing".
func intersects(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}

func matchesKeyword(keywords, active []string) bool {
	for _, kw := range keywords {
		for _, a := range active {
			if strings.EqualFold(kw, a) {
				return true
			}
		}
	}
	return false
}
