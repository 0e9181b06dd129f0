// Package feed fetches podcast feeds and parses them into episode records.
package feed

import (
	"context"
	"fmt"
	"io"
	"time"

	"transcript-collector/pkg/domain"
	"transcript-collector/pkg/httpclient"
)

// Source fetches raw feed content over the network. It does not retry;
// retry policy belongs to the orchestrator.
type Source struct {
	client *httpclient.HTTPClient
}

// NewSource creates a feed source with the given per-request timeout.
func NewSource(timeout time.Duration) *Source {
	return &Source{
		client: httpclient.NewClientWithTimeout(httpclient.BrowserClient, timeout),
	}
}

// Fetch performs a timeout-bounded GET of the feed URL and returns the raw
// document bytes. Transport errors and non-2xx responses return a *FetchError
// carrying the feed id.
func (s *Source) Fetch(ctx context.Context, f domain.Feed) ([]byte, error) {
	resp, err := s.client.Get(ctx, f.URL)
	if err != nil {
		return nil, &FetchError{FeedID: f.ID, Err: err}
	}
	defer httpclient.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{FeedID: f.ID, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{FeedID: f.ID, Err: err}
	}
	return body, nil
}
