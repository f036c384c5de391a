// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
//
// Requests are issued exactly once: search-run failures are terminal for
// the run and the user re-submits, so there is no automatic retry here.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxTextBody bounds plain-text responses (progress strings); anything
// larger is a misbehaving server.
const maxTextBody = 64 * 1024

// GetJSON issues a GET to url with the given User-Agent and decodes the
// JSON response body into v. Non-200 statuses and decode failures are
// errors; callers that need a typed malformed-payload error wrap the
// decode error themselves.
func GetJSON(ctx context.Context, client *http.Client, url, userAgent string, v any) error {
	resp, err := get(ctx, client, url, userAgent, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// GetText issues a GET to url and returns the trimmed response body.
// Used for the progress endpoint, which replies with a bare status string.
func GetText(ctx context.Context, client *http.Client, url, userAgent string) (string, error) {
	resp, err := get(ctx, client, url, userAgent, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBody))
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", url, err)
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(string(body)), `"`)), nil
}

func get(ctx context.Context, client *http.Client, url, userAgent, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to %s: %w", url, err)
	}
	return resp, nil
}
