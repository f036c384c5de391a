// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader fetches full trial records for a ranked id list in
// bounded batches, attaches exclusion reasons and patient distances, and
// aggregates the facet values found across the loaded set.
package loader

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/trial-scout/internal/geo"
	"github.com/pdiddy/trial-scout/pkg/types"
)

// DefaultBatchSize bounds one batch request. Small enough to keep payload
// and parse cost per request low, large enough to avoid a request per trial.
const DefaultBatchSize = 10

// Fetcher fetches full trial records for a batch of ids.
type Fetcher interface {
	FetchTrials(ctx context.Context, ids []string) ([]types.TrialRecord, error)
}

// Loader drives the batch fetch sequence. Batches are fetched strictly one
// at a time; this is the pipeline's backpressure mechanism.
type Loader struct {
	fetcher   Fetcher
	batchSize int
	log       *zap.Logger
}

// New returns a Loader using the given fetcher. A batchSize of zero or
// less selects DefaultBatchSize.
func New(fetcher Fetcher, batchSize int, log *zap.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fetcher: fetcher, batchSize: batchSize, log: log}
}

// Output holds the loaded trial set and the facet values aggregated from it.
type Output struct {
	// Trials carries the loaded records in ranking order.
	Trials []types.TrialRecord

	// InterventionTypes and Phases list the deduplicated facet values in
	// first-seen order, for facet seeding.
	InterventionTypes []string
	Phases            []string

	// Expected and Loaded count ranked ids versus trials actually
	// received; FailedBatches counts batch requests that errored.
	Expected      int
	Loaded        int
	FailedBatches int
}

// Split partitions ranked into contiguous batches of size. Every entry
// appears in exactly one batch and batch order preserves ranking order.
func Split(ranked []types.RankedTrial, size int) [][]types.RankedTrial {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]types.RankedTrial
	for start := 0; start < len(ranked); start += size {
		end := start + size
		if end > len(ranked) {
			end = len(ranked)
		}
		batches = append(batches, ranked[start:end])
	}
	return batches
}

// Load fetches every ranked trial in batches, attaching each trial's
// exclusion reason and its closest-site distance to patient (when given).
// A failed batch is logged and skipped; its trials are simply absent from
// the output and the run still completes. Cancellation is checked between
// batches via ctx.
func (l *Loader) Load(ctx context.Context, ranked []types.RankedTrial, patient *types.GeoPoint, w io.Writer) (Output, error) {
	out := Output{Expected: len(ranked)}
	done := 0

	seenTypes := make(map[string]bool)
	seenPhases := make(map[string]bool)

	for _, batch := range Split(ranked, l.batchSize) {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		ids := make([]string, len(batch))
		reasons := make(map[string]string, len(batch))
		for i, rt := range batch {
			ids[i] = rt.ID
			reasons[rt.ID] = rt.ExclusionReason
		}

		trials, err := l.fetcher.FetchTrials(ctx, ids)
		if err != nil {
			// Partial-failure tolerant: advance the counter past the
			// whole batch so the run still reports completion.
			done += len(batch)
			out.FailedBatches++
			l.log.Warn("trial batch fetch failed",
				zap.Strings("ids", ids), zap.Error(err))
			l.progress(w, done, out.Expected)
			continue
		}

		for _, trial := range trials {
			trial.ExclusionReason = reasons[trial.ID]
			l.attachDistances(&trial, patient)

			for _, it := range trial.InterventionTypes {
				if !seenTypes[it] {
					seenTypes[it] = true
					out.InterventionTypes = append(out.InterventionTypes, it)
				}
			}
			for _, ph := range trial.Phases {
				if !seenPhases[ph] {
					seenPhases[ph] = true
					out.Phases = append(out.Phases, ph)
				}
			}

			out.Trials = append(out.Trials, trial)
			out.Loaded++
		}

		done += len(batch)
		l.progress(w, done, out.Expected)
	}
	return out, nil
}

// attachDistances computes each site's distance to the patient and the
// trial's closest-site distance. Sites without geodata are skipped.
func (l *Loader) attachDistances(trial *types.TrialRecord, patient *types.GeoPoint) {
	if patient == nil {
		return
	}
	closest := types.UnknownDistance
	for i := range trial.Locations {
		loc := &trial.Locations[i]
		if loc.Geo == nil {
			l.log.Debug("trial location without geodata",
				zap.String("trial", trial.ID), zap.String("facility", loc.Facility))
			continue
		}
		loc.DistanceKm = geo.DistanceKm(*patient, *loc.Geo)
		if loc.DistanceKm < closest {
			closest = loc.DistanceKm
		}
	}
	trial.ClosestKm = closest
}

func (l *Loader) progress(w io.Writer, done, expected int) {
	if expected == 0 {
		return
	}
	fmt.Fprintf(w, "Loading trials... %d%%\n", done*100/expected)
}
