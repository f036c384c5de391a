// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/trial-scout/internal/loader"
	"github.com/pdiddy/trial-scout/internal/orchestrator"
	"github.com/pdiddy/trial-scout/pkg/types"
)

// loadConfig assembles the typed configuration from viper, applying
// defaults and the loaded secrets.
func loadConfig() types.Config {
	v := viper.GetViper()

	v.SetDefault("registry.base_url", "http://localhost:8008")
	v.SetDefault("registry.poll_interval", orchestrator.DefaultPollInterval)
	v.SetDefault("registry.batch_size", loader.DefaultBatchSize)
	v.SetDefault("registry.timeout", 30*time.Second)
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.timeout", 10*time.Second)
	v.SetDefault("history.path", "trial-scout-history.db")
	v.SetDefault("history.max_entries", 20)

	userAgent := fmt.Sprintf("trial-scout/%s", version)

	return types.Config{
		Registry: types.RegistryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("registry.timeout"),
				UserAgent: userAgent,
			},
			BaseURL:      v.GetString("registry.base_url"),
			PollInterval: v.GetDuration("registry.poll_interval"),
			BatchSize:    v.GetInt("registry.batch_size"),
		},
		Geocode: types.GeocodeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("geocode.timeout"),
				UserAgent: userAgent,
			},
			BaseURL: v.GetString("geocode.base_url"),
			APIKey:  secretDefault("geocode-api-key", v.GetString("geocode.api_key")),
		},
		History: types.HistoryConfig{
			Path:       v.GetString("history.path"),
			MaxEntries: v.GetInt("history.max_entries"),
		},
	}
}
