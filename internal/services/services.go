// package services defines the metadata [Provider] interface for music search APIs
//
// iTunes (CN and US storefronts), Spotify, YouTube Music (via proxy)
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// Provider identifiers accepted by the [Gateway].
const (
	ProviderITunes     = "itunes"
	ProviderITunesIntl = "itunes-intl"
	ProviderSpotify    = "spotify"
	ProviderYTMusic    = "ytmusic"
)

// DefaultTimeout bounds a single provider request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// Provider is an external song-metadata search backend.
type Provider interface {
	// ID returns the stable identifier used to select the provider.
	ID() string

	// Name returns the display name (e.g., "Apple Music").
	Name() string

	// Search returns up to limit normalized results for keyword.
	// Failures are reported as [*ProviderError].
	Search(ctx context.Context, keyword string, limit int) ([]models.ProviderSong, error)
}

// ProviderError reports an unreachable provider, a non-success status, or a malformed body.
//
// It matches [shared.ErrProvider] with [errors.Is].
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{shared.ErrProvider, e.Err}
}

func providerErr(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// getJSON issues a GET and decodes a 2xx JSON body into result.
func getJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return providerErr(provider, 0, fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return providerErr(provider, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
			return providerErr(provider, resp.StatusCode, errors.New(detail.Detail))
		}
		return providerErr(provider, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return providerErr(provider, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
