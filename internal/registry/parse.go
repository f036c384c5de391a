// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"regexp"
	"strings"

	"github.com/pdiddy/trial-scout/pkg/types"
)

// Registry trial JSON structures.
type trialJSON struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Phase         string             `json:"phase"`
	Keywords      []string           `json:"keyword"`
	Interventions []interventionJSON `json:"intervention"`
	Locations     []locationJSON     `json:"location"`
}

type interventionJSON struct {
	Type string `json:"intervention_type"`
	Name string `json:"intervention_name"`
}

type locationJSON struct {
	Facility facilityJSON `json:"facility"`
	Geodata  *geodataJSON `json:"geodata"`
	Status   string       `json:"status"`
	Contact  *contactJSON `json:"contact"`
}

type facilityJSON struct {
	Name string `json:"name"`
}

type geodataJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Formatted string  `json:"formatted"`
}

type contactJSON struct {
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// formattedSplitRe splits a formatted address on comma boundaries.
var formattedSplitRe = regexp.MustCompile(`,\s+`)

// parseTrial validates and converts one registry trial into a TrialRecord,
// applying the derivations the rest of the pipeline relies on: deduplicated
// intervention types with the "Observational" sentinel, phase segments with
// the "N/A" sentinel, and per-location city/country extraction.
func parseTrial(raw trialJSON) (types.TrialRecord, error) {
	if raw.ID == "" {
		return types.TrialRecord{}, &MalformedResponseError{
			Endpoint: "trials",
			Reason:   "trial record without id",
		}
	}

	trial := types.TrialRecord{
		ID:                raw.ID,
		Title:             raw.Title,
		InterventionTypes: deriveInterventionTypes(raw.Interventions),
		Phases:            derivePhases(raw.Phase),
		Keywords:          raw.Keywords,
		ClosestKm:         types.UnknownDistance,
	}

	for _, loc := range raw.Locations {
		trial.Locations = append(trial.Locations, parseLocation(loc))
	}
	return trial, nil
}

// deriveInterventionTypes deduplicates the intervention types in first-seen
// order. Trials without any typed intervention are treated as observational.
func deriveInterventionTypes(interventions []interventionJSON) []string {
	var out []string
	seen := make(map[string]bool)
	for _, iv := range interventions {
		if iv.Type == "" || seen[iv.Type] {
			continue
		}
		seen[iv.Type] = true
		out = append(out, iv.Type)
	}
	if len(out) == 0 {
		out = []string{"Observational"}
	}
	return out
}

// derivePhases splits the raw "/"-joined phase string (e.g.
// "Phase 1/Phase 2") into segments; missing phase data becomes ["N/A"].
func derivePhases(phase string) []string {
	phase = strings.TrimSpace(phase)
	if phase == "" || phase == "N/A" {
		return []string{"N/A"}
	}
	segments := strings.Split(phase, "/")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}
	return segments
}

func parseLocation(raw locationJSON) types.TrialLocation {
	loc := types.TrialLocation{
		Facility:   raw.Facility.Name,
		Country:    "Unknown",
		Status:     raw.Status,
		DistanceKm: types.UnknownDistance,
	}

	if raw.Geodata != nil {
		loc.Geo = &types.GeoPoint{
			Latitude:  raw.Geodata.Latitude,
			Longitude: raw.Geodata.Longitude,
		}
		// The formatted address ends with the country; everything before
		// it is the city part.
		if raw.Geodata.Formatted != "" {
			parts := formattedSplitRe.Split(raw.Geodata.Formatted, -1)
			loc.Country = parts[len(parts)-1]
			if len(parts) > 1 {
				loc.City = strings.Join(parts[:len(parts)-1], ", ")
			}
		}
	}

	if raw.Contact != nil {
		loc.Contact = &types.Contact{
			Name:  raw.Contact.LastName,
			Phone: raw.Contact.Phone,
			Email: raw.Contact.Email,
		}
	}
	return loc
}
