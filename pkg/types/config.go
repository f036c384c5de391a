// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trial-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for the trial registry client and the
// search orchestration.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the root of the trial registry API.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PollInterval is the delay between progress polls (default 1s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// BatchSize is the number of trials fetched per batch request
	// (default 10). It bounds request payload and parse cost.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// GeocodeConfig holds settings for the patient geocoding client.
type GeocodeConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the geocoding endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional key sent with geocoding requests.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// HistoryConfig holds settings for the local search history store.
type HistoryConfig struct {
	// Path is the SQLite database file (default "trial-scout-history.db").
	Path string `json:"path" yaml:"path"`

	// MaxEntries is the default maximum number of history rows listed
	// (default 20).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// Config groups all component configurations.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Geocode  GeocodeConfig  `json:"geocode" yaml:"geocode"`
	History  HistoryConfig  `json:"history" yaml:"history"`
}
