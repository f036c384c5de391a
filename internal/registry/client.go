// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry is the typed client for the trial registry API. It
// wraps the raw JSON endpoints behind validating parse steps so the rest
// of the pipeline only ever sees well-formed records.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/trial-scout/internal/httputil"
	"github.com/pdiddy/trial-scout/pkg/types"
)

// MalformedResponseError reports a payload that decoded but failed
// validation. Malformed records are rejected rather than passed through
// partially populated.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

// Query holds the search parameters for a run. Condition and Term are
// mutually exclusive, with Condition taking precedence server-side.
type Query struct {
	Condition string
	Term      string
	Gender    string
	Age       int
	// LatLng, when set, is forwarded so the server can pre-order results.
	LatLng *types.GeoPoint
	// Remember asks the server to keep the submitted input.
	Remember bool
}

// IsEmpty reports whether the query names neither a condition nor a term.
func (q Query) IsEmpty() bool {
	return q.Condition == "" && q.Term == ""
}

// Client talks to one trial registry.
type Client struct {
	// BaseURL is the registry root, without a trailing slash.
	BaseURL string

	Client    *http.Client
	UserAgent string
}

// New returns a registry client for cfg.
func New(cfg types.RegistryConfig) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
	}
}

type createRunResponse struct {
	RunID string `json:"run_id"`
}

// CreateRun submits a new search run and returns its server-assigned id.
func (c *Client) CreateRun(ctx context.Context, q Query) (string, error) {
	if q.IsEmpty() {
		return "", fmt.Errorf(`query is empty: provide "cond" or "term"`)
	}

	params := url.Values{}
	if q.Condition != "" {
		params.Set("cond", q.Condition)
	} else {
		params.Set("term", q.Term)
	}
	if q.Gender != "" {
		params.Set("gender", q.Gender)
	}
	if q.Age > 0 {
		params.Set("age", strconv.Itoa(q.Age))
	}
	if q.LatLng != nil {
		params.Set("latlng", fmt.Sprintf("%f,%f", q.LatLng.Latitude, q.LatLng.Longitude))
	}
	params.Set("remember_input", strconv.FormatBool(q.Remember))

	var out createRunResponse
	reqURL := c.BaseURL + "/trial_runs?" + params.Encode()
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.UserAgent, &out); err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	if out.RunID == "" {
		return "", &MalformedResponseError{Endpoint: "trial_runs", Reason: "missing run_id"}
	}
	return out.RunID, nil
}

// Progress returns the raw progress string for a run. The orchestrator
// interprets the "done" and "error..." sentinels.
func (c *Client) Progress(ctx context.Context, runID string) (string, error) {
	reqURL := fmt.Sprintf("%s/trial_runs/%s/progress", c.BaseURL, url.PathEscape(runID))
	status, err := httputil.GetText(ctx, c.Client, reqURL, c.UserAgent)
	if err != nil {
		return "", fmt.Errorf("checking run progress: %w", err)
	}
	return status, nil
}

// Results returns the raw ranked id list of a finished run, before any
// eligibility filtering.
func (c *Client) Results(ctx context.Context, runID string) ([]types.RankedTrial, error) {
	return c.rankedList(ctx, runID, "results")
}

// FilterDemographics applies the server-side demographics filter to the
// run. The response body is an opaque success marker.
func (c *Client) FilterDemographics(ctx context.Context, runID string) error {
	reqURL := fmt.Sprintf("%s/trial_runs/%s/filter/demographics", c.BaseURL, url.PathEscape(runID))
	var out any
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.UserAgent, &out); err != nil {
		return fmt.Errorf("filtering by demographics: %w", err)
	}
	return nil
}

// FilterProblems applies the server-side problem-list filter and returns
// the canonical eligibility order: (trial id, exclusion reason) tuples,
// reason absent for eligible trials.
func (c *Client) FilterProblems(ctx context.Context, runID string) ([]types.RankedTrial, error) {
	return c.rankedList(ctx, runID, "filter/problems")
}

// rankedList fetches and validates a tuple list endpoint. The wire format
// is an array of 1- or 2-element string arrays.
func (c *Client) rankedList(ctx context.Context, runID, path string) ([]types.RankedTrial, error) {
	reqURL := fmt.Sprintf("%s/trial_runs/%s/%s", c.BaseURL, url.PathEscape(runID), path)

	var raw [][]string
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.UserAgent, &raw); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	ranked := make([]types.RankedTrial, 0, len(raw))
	for i, tpl := range raw {
		if len(tpl) == 0 || len(tpl) > 2 || tpl[0] == "" {
			return nil, &MalformedResponseError{
				Endpoint: path,
				Reason:   fmt.Sprintf("tuple %d is not [id] or [id, reason]", i),
			}
		}
		rt := types.RankedTrial{ID: tpl[0]}
		if len(tpl) == 2 {
			rt.ExclusionReason = tpl[1]
		}
		ranked = append(ranked, rt)
	}
	return ranked, nil
}

type overviewResponse struct {
	InterventionTypes map[string]int `json:"intervention_types"`
	DrugPhases        map[string]int `json:"drug_phases"`
}

// Overview returns the server-side facet counts for a finished run.
func (c *Client) Overview(ctx context.Context, runID string) (types.Overview, error) {
	reqURL := fmt.Sprintf("%s/trial_runs/%s/overview", c.BaseURL, url.PathEscape(runID))

	var out overviewResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.UserAgent, &out); err != nil {
		return types.Overview{}, fmt.Errorf("fetching run overview: %w", err)
	}
	return types.Overview{
		InterventionTypes: out.InterventionTypes,
		DrugPhases:        out.DrugPhases,
	}, nil
}

type trialsResponse struct {
	Trials []trialJSON `json:"trials"`
}

// FetchTrials fetches full records for the given ids in one colon-joined
// batch request. Returned trials carry registry order, which may differ
// from ids; missing ids are simply absent.
func (c *Client) FetchTrials(ctx context.Context, ids []string) ([]types.TrialRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqURL := c.BaseURL + "/trials/" + url.PathEscape(strings.Join(ids, ":"))

	var out trialsResponse
	if err := httputil.GetJSON(ctx, c.Client, reqURL, c.UserAgent, &out); err != nil {
		return nil, fmt.Errorf("fetching trial batch: %w", err)
	}

	trials := make([]types.TrialRecord, 0, len(out.Trials))
	for _, raw := range out.Trials {
		trial, err := parseTrial(raw)
		if err != nil {
			return nil, err
		}
		trials = append(trials, trial)
	}
	return trials, nil
}
