// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locator resolves a free-text patient address to coordinates via
// an external geocoding service and caches the current patient location.
package locator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/trial-scout/internal/httputil"
	"github.com/pdiddy/trial-scout/pkg/types"
)

var (
	// ErrNoAddress is returned for an empty address; no network call is made.
	ErrNoAddress = errors.New("no address given, cannot geocode")

	// ErrNoResults is returned when the geocoder cannot resolve the
	// address. Callers surface this to the user; downstream distance
	// computations degrade to unknown.
	ErrNoResults = errors.New("address could not be located")
)

// Geocoder status sentinels, mirroring the Google geocoding API.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Locator geocodes patient addresses. Each call supersedes the previous
// cached location once it resolves; responses from superseded calls are
// discarded by generation number, so a slow early response never
// overwrites a newer one.
type Locator struct {
	baseURL   string
	client    *http.Client
	userAgent string
	apiKey    string
	log       *zap.Logger

	mu      sync.Mutex
	issued  uint64 // generation of the most recently issued request
	current *types.GeoPoint
	currGen uint64
}

// New returns a Locator for cfg.
func New(cfg types.GeocodeConfig, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{
		baseURL:   cfg.BaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		apiKey:    cfg.APIKey,
		log:       log,
	}
}

// Geocoder response structures.
type geocodeResponse struct {
	Status  string          `json:"status"`
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Locate resolves address to a coordinate. On success the result becomes
// the current patient location unless a newer Locate call was issued in
// the meantime.
func (l *Locator) Locate(ctx context.Context, address string) (types.GeoPoint, error) {
	if address == "" {
		return types.GeoPoint{}, ErrNoAddress
	}

	l.mu.Lock()
	l.issued++
	gen := l.issued
	l.mu.Unlock()

	reqID := uuid.NewString()
	log := l.log.With(zap.String("request_id", reqID), zap.Uint64("generation", gen))

	params := url.Values{"address": {address}}
	if l.apiKey != "" {
		params.Set("key", l.apiKey)
	}

	var out geocodeResponse
	reqURL := l.baseURL + "?" + params.Encode()
	if err := httputil.GetJSON(ctx, l.client, reqURL, l.userAgent, &out); err != nil {
		log.Warn("geocode request failed", zap.Error(err))
		return types.GeoPoint{}, fmt.Errorf("geocoding address: %w", err)
	}

	switch out.Status {
	case statusOK:
		if len(out.Results) == 0 {
			return types.GeoPoint{}, fmt.Errorf("geocoder returned OK with no results")
		}
	case statusZeroResults:
		return types.GeoPoint{}, fmt.Errorf("%w: %q", ErrNoResults, address)
	default:
		log.Warn("geocode failed", zap.String("status", out.Status))
		return types.GeoPoint{}, fmt.Errorf("geocoder status %q", out.Status)
	}

	point := types.GeoPoint{
		Latitude:  out.Results[0].Geometry.Location.Lat,
		Longitude: out.Results[0].Geometry.Location.Lng,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen < l.issued {
		// A newer request was issued while this one was in flight; keep
		// whatever it resolves to and drop this result from the cache.
		log.Debug("discarding stale geocode result", zap.Uint64("latest", l.issued))
		return point, nil
	}
	if gen > l.currGen {
		l.current = &point
		l.currGen = gen
	}
	return point, nil
}

// Current returns the cached patient location, if any call has resolved.
func (l *Locator) Current() (types.GeoPoint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return types.GeoPoint{}, false
	}
	return *l.current, true
}
