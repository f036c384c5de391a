// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package facet

import (
	"reflect"
	"testing"

	"github.com/pdiddy/trial-scout/pkg/types"
)

func trial(id string, km float64, reason string, itypes, phases, keywords []string) types.TrialRecord {
	return types.TrialRecord{
		ID:                id,
		InterventionTypes: itypes,
		Phases:            phases,
		Keywords:          keywords,
		ClosestKm:         km,
		ExclusionReason:   reason,
	}
}

func testTrials() []types.TrialRecord {
	return []types.TrialRecord{
		trial("NCT001", 120, "", []string{"Drug"}, []string{"Phase 1", "Phase 2"}, []string{"diabetes"}),
		trial("NCT002", 15, "", []string{"Device"}, []string{"N/A"}, []string{"insulin pump"}),
		trial("NCT003", types.UnknownDistance, "", []string{"Drug", "Behavioral"}, []string{"Phase 3"}, nil),
		trial("NCT004", 40, "wrong gender", []string{"Drug"}, []string{"Phase 1"}, []string{"diabetes"}),
	}
}

func allFacets() types.FacetState {
	return types.FacetState{
		ShowEligible:      true,
		InterventionTypes: []string{"Drug", "Device", "Behavioral"},
	}
}

func ids(trials []types.TrialRecord) []string {
	out := make([]string, len(trials))
	for i, tr := range trials {
		out[i] = tr.ID
	}
	return out
}

func TestComputeVisibleOrdersByDistanceUnknownLast(t *testing.T) {
	visible, _ := ComputeVisible(testTrials(), allFacets())
	want := []string{"NCT002", "NCT001", "NCT003"}
	if got := ids(visible); !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
}

func TestComputeVisibleEligibilitySides(t *testing.T) {
	facets := allFacets()
	facets.ShowEligible = false
	visible, _ := ComputeVisible(testTrials(), facets)
	if got := ids(visible); !reflect.DeepEqual(got, []string{"NCT004"}) {
		t.Errorf("ineligible side = %v, want [NCT004]", got)
	}
}

func TestComputeVisibleNoTypesSelectedShowsNothing(t *testing.T) {
	facets := types.FacetState{ShowEligible: true}
	visible, _ := ComputeVisible(testTrials(), facets)
	if len(visible) != 0 {
		t.Errorf("visible = %v, want empty", ids(visible))
	}

	// Distinct from "no phases selected", which means all phases.
	facets.InterventionTypes = []string{"Drug", "Device", "Behavioral"}
	visible, _ = ComputeVisible(testTrials(), facets)
	if len(visible) != 3 {
		t.Errorf("visible = %v, want all three eligible trials", ids(visible))
	}
}

func TestComputeVisibleTypeIntersection(t *testing.T) {
	facets := allFacets()
	facets.InterventionTypes = []string{"Behavioral"}
	visible, _ := ComputeVisible(testTrials(), facets)
	if got := ids(visible); !reflect.DeepEqual(got, []string{"NCT003"}) {
		t.Errorf("visible = %v, want [NCT003]", got)
	}
}

func TestComputeVisiblePhaseFilter(t *testing.T) {
	facets := allFacets()
	facets.Phases = []string{"Phase 1"}
	visible, _ := ComputeVisible(testTrials(), facets)
	if got := ids(visible); !reflect.DeepEqual(got, []string{"NCT001"}) {
		t.Errorf("visible = %v, want [NCT001]", got)
	}
}

func TestComputeVisibleKeywordCaseInsensitive(t *testing.T) {
	facets := allFacets()
	facets.Keywords = []string{"DIABETES"}
	visible, _ := ComputeVisible(testTrials(), facets)
	if got := ids(visible); !reflect.DeepEqual(got, []string{"NCT001"}) {
		t.Errorf("visible = %v, want [NCT001]", got)
	}
}

func TestCountsPreTypeFilter(t *testing.T) {
	facets := allFacets()
	// Narrow the type selection; counts must still reflect the whole
	// eligible side.
	facets.InterventionTypes = []string{"Device"}
	_, counts := ComputeVisible(testTrials(), facets)

	wantTypes := map[string]int{"Drug": 2, "Device": 1, "Behavioral": 1}
	if !reflect.DeepEqual(counts.InterventionTypes, wantTypes) {
		t.Errorf("type counts = %v, want %v", counts.InterventionTypes, wantTypes)
	}
	wantPhases := map[string]int{"Phase 1": 1, "Phase 2": 1, "Phase 3": 1, "N/A": 1}
	if !reflect.DeepEqual(counts.Phases, wantPhases) {
		t.Errorf("phase counts = %v, want %v", counts.Phases, wantPhases)
	}
}

func TestComputeVisibleIdempotentAndPure(t *testing.T) {
	trials := testTrials()
	snapshot := make([]types.TrialRecord, len(trials))
	copy(snapshot, trials)

	facets := allFacets()
	first, firstCounts := ComputeVisible(trials, facets)
	second, secondCounts := ComputeVisible(trials, facets)

	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("repeated calls differ: %v vs %v", ids(first), ids(second))
	}
	if !reflect.DeepEqual(firstCounts, secondCounts) {
		t.Errorf("repeated counts differ: %v vs %v", firstCounts, secondCounts)
	}
	if !reflect.DeepEqual(trials, snapshot) {
		t.Error("ComputeVisible mutated its input")
	}
}
