// Package atlasclient provides the main entry point for creating Atlas API
// clients.
package atlasclient

import (
	"fmt"
	"strings"

	"github.com/meridian-eo/atlas/internal/client"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// New creates a new Atlas API client.
func New(config *atlas.Config) (atlas.Client, error) {
	if config == nil {
		return nil, atlas.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, atlas.ErrBaseURLRequired
	}

	// Normalize the base URL
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	config.BaseURL = baseURL

	// Use the internal client implementation
	atlasClient, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return atlasClient, nil
}

// NewWithAPIKey creates a client for the given endpoint and API key, using
// defaults for everything else.
func NewWithAPIKey(baseURL, apiKey string) (atlas.Client, error) {
	return New(&atlas.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}
