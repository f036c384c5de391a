// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator drives one trial search run through its server-side
// stages: submit, poll progress, retrieve results, filter by demographics,
// filter by problem list, locate the patient.
//
// All run state is owned by an Orchestrator instance; independent searches
// use independent instances without cross-contamination.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/trial-scout/internal/registry"
	"github.com/pdiddy/trial-scout/pkg/types"
)

// State identifies the phase a search run is in.
type State int

const (
	StateIdle State = iota
	StateStarting
	StatePolling
	StateRetrievingResults
	StateFilteringDemographics
	StateFilteringProblems
	StateLocatingPatient
	StateDone
	StateError
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:                  "idle",
	StateStarting:              "starting",
	StatePolling:               "polling",
	StateRetrievingResults:     "retrieving results",
	StateFilteringDemographics: "filtering demographics",
	StateFilteringProblems:     "filtering problems",
	StateLocatingPatient:       "locating patient",
	StateDone:                  "done",
	StateError:                 "error",
	StateCancelled:             "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrAlreadyRunning is returned by Run while another run is in flight.
	// Concurrent runs are rejected, not queued.
	ErrAlreadyRunning = errors.New("already searching")

	// ErrCancelled is returned when a run was stopped via Cancel or its
	// context.
	ErrCancelled = errors.New("trial search cancelled")
)

// serverErrorRe matches the progress strings the server uses to signal a
// failed run.
var serverErrorRe = regexp.MustCompile(`(?i)^error`)

// DefaultPollInterval is the progress poll cadence.
const DefaultPollInterval = time.Second

// Registry is the subset of the registry client the orchestrator drives.
type Registry interface {
	CreateRun(ctx context.Context, q registry.Query) (string, error)
	Progress(ctx context.Context, runID string) (string, error)
	Results(ctx context.Context, runID string) ([]types.RankedTrial, error)
	FilterDemographics(ctx context.Context, runID string) error
	FilterProblems(ctx context.Context, runID string) ([]types.RankedTrial, error)
	Overview(ctx context.Context, runID string) (types.Overview, error)
}

// Locator resolves the patient address.
type Locator interface {
	Locate(ctx context.Context, address string) (types.GeoPoint, error)
}

// Result is the outcome of a successful run: the canonical eligibility
// order plus the inputs the batch loader needs.
type Result struct {
	RunID string

	// Ranked is the ordered (trial id, exclusion reason) list from the
	// problems filter. Client-side sorting never reorders it.
	Ranked []types.RankedTrial

	// Overview holds the server-side facet counts; zero-valued when the
	// overview fetch failed (non-fatal).
	Overview types.Overview

	// Patient is the resolved patient location, nil when no address was
	// given or geocoding failed (distances degrade to unknown).
	Patient *types.GeoPoint
}

// Orchestrator owns the state of at most one active run.
type Orchestrator struct {
	reg      Registry
	loc      Locator
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	active bool
	stop   bool
}

// New returns an Orchestrator. An interval of zero or less selects
// DefaultPollInterval.
func New(reg Registry, loc Locator, interval time.Duration, log *zap.Logger) *Orchestrator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{reg: reg, loc: loc, interval: interval, log: log}
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel requests a cooperative stop. The flag is checked at every
// continuation boundary; an in-flight response observed afterwards is
// discarded without mutating state. Dispatched requests are not aborted.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stop = true
}

// Run executes one search run to completion and returns its result. It
// fails with ErrAlreadyRunning while another run is active, leaving that
// run untouched. Every network failure is terminal for the run; the
// caller re-invokes Run to retry.
//
// Human-readable progress is written to w; address may be empty.
func (o *Orchestrator) Run(ctx context.Context, q registry.Query, address string, w io.Writer) (*Result, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	o.active = true
	o.stop = false
	o.state = StateStarting
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
	}()

	fmt.Fprintln(w, "Starting...")
	runID, err := o.reg.CreateRun(ctx, q)
	if stopped := o.checkStop(); stopped != nil {
		return nil, stopped
	}
	if err != nil {
		return nil, o.fail(w, fmt.Errorf("starting trial search: %w", err))
	}
	o.log.Debug("run created", zap.String("run_id", runID))

	if err := o.pollUntilDone(ctx, runID, w); err != nil {
		return nil, err
	}

	o.setState(StateRetrievingResults)
	fmt.Fprintln(w, "Retrieving results...")
	raw, err := o.reg.Results(ctx, runID)
	if stopped := o.checkStop(); stopped != nil {
		return nil, stopped
	}
	if err != nil {
		return nil, o.fail(w, fmt.Errorf("retrieving results: %w", err))
	}

	o.setState(StateFilteringDemographics)
	fmt.Fprintf(w, "Found %d trials, filtering by demographics...\n", len(raw))
	err = o.reg.FilterDemographics(ctx, runID)
	if stopped := o.checkStop(); stopped != nil {
		return nil, stopped
	}
	if err != nil {
		return nil, o.fail(w, err)
	}

	o.setState(StateFilteringProblems)
	fmt.Fprintln(w, "Filtering by problem list...")
	ranked, err := o.reg.FilterProblems(ctx, runID)
	if stopped := o.checkStop(); stopped != nil {
		return nil, stopped
	}
	if err != nil {
		return nil, o.fail(w, err)
	}

	result := &Result{RunID: runID, Ranked: ranked}

	// Facet seeding; a failed overview never fails the run.
	if overview, err := o.reg.Overview(ctx, runID); err != nil {
		o.log.Warn("overview fetch failed", zap.String("run_id", runID), zap.Error(err))
	} else {
		result.Overview = overview
	}
	if stopped := o.checkStop(); stopped != nil {
		return nil, stopped
	}

	o.setState(StateLocatingPatient)
	if address != "" {
		if point, err := o.loc.Locate(ctx, address); err != nil {
			fmt.Fprintln(w, "Failed to locate the patient")
			o.log.Warn("patient geocoding failed", zap.Error(err))
		} else {
			result.Patient = &point
		}
		if stopped := o.checkStop(); stopped != nil {
			return nil, stopped
		}
	}

	o.setState(StateDone)
	return result, nil
}

// pollUntilDone polls the progress endpoint at the configured interval
// until the server reports "done". The ticker lives inside this method,
// so one run can never have two active poll timers.
func (o *Orchestrator) pollUntilDone(ctx context.Context, runID string, w io.Writer) error {
	o.setState(StatePolling)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.setState(StateCancelled)
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-ticker.C:
		}

		if stopped := o.checkStop(); stopped != nil {
			return stopped
		}

		progress, err := o.reg.Progress(ctx, runID)
		if stopped := o.checkStop(); stopped != nil {
			return stopped
		}
		if err != nil {
			return o.fail(w, fmt.Errorf("checking trial search status: %w", err))
		}

		switch {
		case progress == "done":
			return nil
		case serverErrorRe.MatchString(progress):
			return o.fail(w, fmt.Errorf("trial search failed: %s", progress))
		default:
			// Server-defined status text, e.g. a percentage.
			fmt.Fprintln(w, progress)
		}
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// checkStop reports the cancellation of the run, transitioning to the
// Cancelled state at most once.
func (o *Orchestrator) checkStop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.stop {
		return nil
	}
	o.state = StateCancelled
	return ErrCancelled
}

func (o *Orchestrator) fail(w io.Writer, err error) error {
	o.setState(StateError)
	fmt.Fprintf(w, "Error: %v\n", err)
	o.log.Error("trial search run failed", zap.Error(err))
	return err
}
