// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trial-scout pipeline.
package types

import (
	"encoding/json"
	"math"
)

// UnknownDistance marks a distance that could not be computed, either
// because the patient was never located or because a trial site carries
// no geodata. It sorts after every real distance.
var UnknownDistance = math.Inf(1)

// GeoPoint is an immutable latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Contact holds the recruitment contact published for a trial site.
type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// StatusTone classifies a site recruitment status for display:
// "green" for actively recruiting, "orange" for a not-recruiting variant,
// "red" for anything else.
type StatusTone string

const (
	ToneRecruiting    StatusTone = "green"
	ToneNotRecruiting StatusTone = "orange"
	ToneOther         StatusTone = "red"
)

// TrialLocation is one recruitment site of a trial.
type TrialLocation struct {
	// Facility is the site facility name, possibly empty.
	Facility string `json:"facility" yaml:"facility"`

	// City is the locality part of the formatted address, possibly empty.
	City string `json:"city" yaml:"city"`

	// Country is the last component of the formatted address.
	Country string `json:"country" yaml:"country"`

	// Geo is the site coordinate, nil when the registry has no geodata.
	Geo *GeoPoint `json:"geo,omitempty" yaml:"geo,omitempty"`

	// Status is the raw recruitment status string from the registry.
	Status string `json:"status" yaml:"status"`

	// Contact is the recruitment contact, nil when not published.
	Contact *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`

	// DistanceKm is the great-circle distance from the patient location,
	// UnknownDistance until computed.
	DistanceKm float64 `json:"distance_km" yaml:"distance_km"`
}

// HasDistance reports whether a distance to the patient was computed.
func (l TrialLocation) HasDistance() bool {
	return !math.IsInf(l.DistanceKm, 1)
}

// MarshalJSON emits null for an unknown distance, which encoding/json
// cannot represent as a float.
func (l TrialLocation) MarshalJSON() ([]byte, error) {
	type alias TrialLocation
	aux := struct {
		alias
		DistanceKm *float64 `json:"distance_km"`
	}{alias: alias(l)}
	if l.HasDistance() {
		aux.DistanceKm = &l.DistanceKm
	}
	return json.Marshal(aux)
}

// Tone returns the display classification of the site status.
func (l TrialLocation) Tone() StatusTone {
	return classifyStatus(l.Status)
}

// TrialRecord is one clinical trial as consumed by the client. Instances
// are built by a validating parse at the registry boundary; the derived
// fields (InterventionTypes, Phases, ClosestKm) are never mutated afterwards.
type TrialRecord struct {
	// ID is the NCT-style registry identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the brief trial title.
	Title string `json:"title" yaml:"title"`

	// InterventionTypes lists the deduplicated intervention types, never
	// empty: trials without interventions carry the "Observational" sentinel.
	InterventionTypes []string `json:"intervention_types" yaml:"intervention_types"`

	// Phases lists the trial phase segments, split from the raw "/"-joined
	// phase string; ["N/A"] when the registry reports none.
	Phases []string `json:"phases" yaml:"phases"`

	// Keywords lists the registry keywords for the trial.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Locations lists the recruitment sites in registry order.
	Locations []TrialLocation `json:"locations" yaml:"locations"`

	// ClosestKm is the minimum distance from the patient location to any
	// site with geodata, UnknownDistance when none could be computed.
	ClosestKm float64 `json:"closest_km" yaml:"closest_km"`

	// ExclusionReason is the server-supplied explanation why the trial was
	// filtered out for this patient; empty for eligible trials.
	ExclusionReason string `json:"exclusion_reason,omitempty" yaml:"exclusion_reason,omitempty"`
}

// Eligible reports whether the trial passed every server-side filter.
func (t TrialRecord) Eligible() bool {
	return t.ExclusionReason == ""
}

// HasClosest reports whether a closest-site distance was computed.
func (t TrialRecord) HasClosest() bool {
	return !math.IsInf(t.ClosestKm, 1)
}

// MarshalJSON emits null for an unknown closest distance.
func (t TrialRecord) MarshalJSON() ([]byte, error) {
	type alias TrialRecord
	aux := struct {
		alias
		ClosestKm *float64 `json:"closest_km"`
	}{alias: alias(t)}
	if t.HasClosest() {
		aux.ClosestKm = &t.ClosestKm
	}
	return json.Marshal(aux)
}

// RankedTrial is one entry of the canonical eligibility order produced by
// the server-side filter pipeline.
type RankedTrial struct {
	// ID is the trial identifier.
	ID string `json:"id" yaml:"id"`

	// ExclusionReason is empty for eligible trials.
	ExclusionReason string `json:"exclusion_reason,omitempty" yaml:"exclusion_reason,omitempty"`
}

// Eligible reports whether the entry carries no exclusion reason.
func (r RankedTrial) Eligible() bool {
	return r.ExclusionReason == ""
}

// Overview holds the server-side facet counts for a finished run.
type Overview struct {
	// InterventionTypes maps each intervention type to its trial count.
	InterventionTypes map[string]int `json:"intervention_types" yaml:"intervention_types"`

	// DrugPhases maps each phase to its trial count.
	DrugPhases map[string]int `json:"drug_phases" yaml:"drug_phases"`
}

// FacetState holds the active client-side filter selections.
type FacetState struct {
	// ShowEligible selects which eligibility side is visible: eligible
	// trials when true, excluded trials when false.
	ShowEligible bool

	// InterventionTypes lists the active intervention-type facets. A trial
	// is visible only if it shares at least one type with this list; an
	// empty list therefore hides every trial.
	InterventionTypes []string

	// Phases lists the active phase facets. An empty list means all phases.
	Phases []string

	// Keywords lists the active keyword facets, matched case-insensitively.
	// An empty list disables keyword filtering.
	Keywords []string
}
