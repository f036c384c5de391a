// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pdiddy/trial-scout/pkg/types"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{BaseURL: ts.URL, Client: ts.Client(), UserAgent: "scout-test/0.1"}
}

// --- CreateRun ---

func TestCreateRun(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trial_runs" {
			t.Errorf("path = %q, want /trial_runs", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"run_id": "run-7"}`))
	}))
	defer ts.Close()

	q := Query{
		Condition: "diabetes",
		Gender:    "female",
		Age:       54,
		LatLng:    &types.GeoPoint{Latitude: 42.358, Longitude: -71.06},
		Remember:  true,
	}
	runID, err := testClient(ts).CreateRun(context.Background(), q)
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	if runID != "run-7" {
		t.Errorf("runID = %q, want run-7", runID)
	}

	want := map[string]string{
		"cond":           "diabetes",
		"gender":         "female",
		"age":            "54",
		"remember_input": "true",
	}
	for k, v := range want {
		if got := gotQuery[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query[%q] = %v, want %q", k, got, v)
		}
	}
	if len(gotQuery["latlng"]) != 1 {
		t.Errorf("latlng param missing: %v", gotQuery)
	}
	if len(gotQuery["term"]) != 0 {
		t.Errorf("term sent alongside cond: %v", gotQuery["term"])
	}
}

func TestCreateRunEmptyQuery(t *testing.T) {
	c := &Client{BaseURL: "http://registry.invalid", Client: http.DefaultClient}
	if _, err := c.CreateRun(context.Background(), Query{}); err == nil {
		t.Fatal("CreateRun() with empty query succeeded, want error")
	}
}

func TestCreateRunMissingRunID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := testClient(ts).CreateRun(context.Background(), Query{Term: "asthma"})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedResponseError", err)
	}
}

// --- Progress ---

func TestProgress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trial_runs/run-7/progress" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte("37% complete"))
	}))
	defer ts.Close()

	status, err := testClient(ts).Progress(context.Background(), "run-7")
	if err != nil {
		t.Fatalf("Progress() error: %v", err)
	}
	if status != "37% complete" {
		t.Errorf("status = %q", status)
	}
}

// --- FilterProblems ---

func TestFilterProblems(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trial_runs/run-7/filter/problems" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[["NCT001"], ["NCT002", "wrong gender"]]`))
	}))
	defer ts.Close()

	ranked, err := testClient(ts).FilterProblems(context.Background(), "run-7")
	if err != nil {
		t.Fatalf("FilterProblems() error: %v", err)
	}
	want := []types.RankedTrial{
		{ID: "NCT001"},
		{ID: "NCT002", ExclusionReason: "wrong gender"},
	}
	if !reflect.DeepEqual(ranked, want) {
		t.Errorf("ranked = %+v, want %+v", ranked, want)
	}
}

func TestFilterProblemsMalformedTuple(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty tuple", `[[]]`},
		{"oversized tuple", `[["NCT001", "reason", "extra"]]`},
		{"empty id", `[[""]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := testClient(ts).FilterProblems(context.Background(), "run-7")
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want MalformedResponseError", err)
			}
		})
	}
}

// --- Overview ---

func TestOverview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"intervention_types": {"Drug": 4, "Device": 1}, "drug_phases": {"Phase 1": 2, "N/A": 3}}`))
	}))
	defer ts.Close()

	ov, err := testClient(ts).Overview(context.Background(), "run-7")
	if err != nil {
		t.Fatalf("Overview() error: %v", err)
	}
	if ov.InterventionTypes["Drug"] != 4 || ov.DrugPhases["N/A"] != 3 {
		t.Errorf("overview = %+v", ov)
	}
}

// --- FetchTrials ---

func TestFetchTrialsJoinsIDsWithColons(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"trials": []}`))
	}))
	defer ts.Close()

	_, err := testClient(ts).FetchTrials(context.Background(), []string{"NCT001", "NCT002", "NCT003"})
	if err != nil {
		t.Fatalf("FetchTrials() error: %v", err)
	}
	if gotPath != "/trials/NCT001:NCT002:NCT003" {
		t.Errorf("path = %q, want /trials/NCT001:NCT002:NCT003", gotPath)
	}
}

func TestFetchTrialsNoIDs(t *testing.T) {
	c := &Client{BaseURL: "http://registry.invalid", Client: http.DefaultClient}
	trials, err := c.FetchTrials(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchTrials(nil) error: %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("trials = %v, want empty", trials)
	}
}

func TestFetchTrialsParsesRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"trials": [{
			"id": "NCT001",
			"title": "Metformin in adults",
			"phase": "Phase 1/Phase 2",
			"keyword": ["diabetes", "metformin"],
			"intervention": [
				{"intervention_type": "Drug", "intervention_name": "Metformin"},
				{"intervention_type": "Drug", "intervention_name": "Placebo"},
				{"intervention_type": "Behavioral"}
			],
			"location": [
				{
					"facility": {"name": "General Hospital"},
					"geodata": {"latitude": 42.36, "longitude": -71.06, "formatted": "Boston, MA, United States"},
					"status": "Recruiting",
					"contact": {"last_name": "Smith", "phone": "555-0100", "email": "smith@example.org"}
				},
				{"facility": {"name": "No Geo Clinic"}, "status": "Active, not recruiting"}
			]
		}]}`))
	}))
	defer ts.Close()

	trials, err := testClient(ts).FetchTrials(context.Background(), []string{"NCT001"})
	if err != nil {
		t.Fatalf("FetchTrials() error: %v", err)
	}
	if len(trials) != 1 {
		t.Fatalf("len(trials) = %d, want 1", len(trials))
	}

	tr := trials[0]
	if got, want := tr.InterventionTypes, []string{"Drug", "Behavioral"}; !reflect.DeepEqual(got, want) {
		t.Errorf("InterventionTypes = %v, want %v", got, want)
	}
	if got, want := tr.Phases, []string{"Phase 1", "Phase 2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Phases = %v, want %v", got, want)
	}
	if tr.HasClosest() {
		t.Error("ClosestKm computed at parse time, want unknown")
	}

	if len(tr.Locations) != 2 {
		t.Fatalf("len(Locations) = %d, want 2", len(tr.Locations))
	}
	first := tr.Locations[0]
	if first.City != "Boston, MA" || first.Country != "United States" {
		t.Errorf("city/country = %q/%q", first.City, first.Country)
	}
	if first.Geo == nil || first.Geo.Latitude != 42.36 {
		t.Errorf("Geo = %+v", first.Geo)
	}
	if first.Contact == nil || first.Contact.Name != "Smith" {
		t.Errorf("Contact = %+v", first.Contact)
	}
	if first.Tone() != types.ToneRecruiting {
		t.Errorf("Tone = %q, want green", first.Tone())
	}

	second := tr.Locations[1]
	if second.Geo != nil {
		t.Errorf("second location Geo = %+v, want nil", second.Geo)
	}
	if second.Country != "Unknown" {
		t.Errorf("second location Country = %q, want Unknown", second.Country)
	}
	if second.Tone() != types.ToneNotRecruiting {
		t.Errorf("second Tone = %q, want orange", second.Tone())
	}
}

func TestDeriveDefaults(t *testing.T) {
	if got := deriveInterventionTypes(nil); !reflect.DeepEqual(got, []string{"Observational"}) {
		t.Errorf("deriveInterventionTypes(nil) = %v", got)
	}
	if got := derivePhases(""); !reflect.DeepEqual(got, []string{"N/A"}) {
		t.Errorf("derivePhases(\"\") = %v", got)
	}
	if got := derivePhases("N/A"); !reflect.DeepEqual(got, []string{"N/A"}) {
		t.Errorf("derivePhases(N/A) = %v", got)
	}
}

func TestFetchTrialsRejectsRecordWithoutID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"trials": [{"title": "No id"}]}`))
	}))
	defer ts.Close()

	_, err := testClient(ts).FetchTrials(context.Background(), []string{"NCT001"})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedResponseError", err)
	}
}
