// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status string
		want   StatusTone
	}{
		{"Recruiting", ToneRecruiting},
		{"recruiting", ToneRecruiting},
		{"Not yet recruiting", ToneNotRecruiting},
		{"Active, not recruiting", ToneNotRecruiting},
		{"Enrolling by invitation", ToneOther},
		{"Completed", ToneOther},
		{"", ToneOther},
	}
	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestEligible(t *testing.T) {
	if !(TrialRecord{ID: "NCT001"}).Eligible() {
		t.Error("trial without exclusion reason should be eligible")
	}
	if (TrialRecord{ID: "NCT001", ExclusionReason: "too old"}).Eligible() {
		t.Error("trial with exclusion reason should not be eligible")
	}
}

func TestMarshalJSONUnknownDistance(t *testing.T) {
	trial := TrialRecord{
		ID:        "NCT001",
		ClosestKm: UnknownDistance,
		Locations: []TrialLocation{
			{Facility: "Clinic A", DistanceKm: UnknownDistance},
			{Facility: "Clinic B", DistanceKm: 12.5},
		},
	}

	data, err := json.Marshal(trial)
	if err != nil {
		t.Fatalf("marshaling trial with unknown distances: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"closest_km":null`) {
		t.Errorf("unknown closest distance should marshal as null, got %s", out)
	}
	if !strings.Contains(out, `"distance_km":null`) {
		t.Errorf("unknown site distance should marshal as null, got %s", out)
	}
	if !strings.Contains(out, `"distance_km":12.5`) {
		t.Errorf("known site distance should marshal as a number, got %s", out)
	}
}

func TestMarshalJSONKnownDistance(t *testing.T) {
	trial := TrialRecord{ID: "NCT002", ClosestKm: 3.25}
	data, err := json.Marshal(trial)
	if err != nil {
		t.Fatalf("marshaling trial: %v", err)
	}
	if !strings.Contains(string(data), `"closest_km":3.25`) {
		t.Errorf("known closest distance should marshal as a number, got %s", data)
	}
}
