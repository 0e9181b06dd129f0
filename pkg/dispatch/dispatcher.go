// Package dispatch delivers consolidated payloads to the downstream
// processing service with bounded retry.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"transcript-collector/pkg/domain"
	"transcript-collector/pkg/httpclient"
)

// DeliveryError reports a failed delivery after retries are exhausted, or an
// immediately non-retriable downstream rejection. It carries the attempted
// payload's manifest for diagnostics.
type DeliveryError struct {
	Status   int
	Attempts int
	Manifest domain.Manifest
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("delivery failed after %d attempt(s): status %d (%d episodes in payload)",
			e.Attempts, e.Status, e.Manifest.EpisodeCount)
	}
	return fmt.Sprintf("delivery failed after %d attempt(s): %v (%d episodes in payload)",
		e.Attempts, e.Err, e.Manifest.EpisodeCount)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Dispatcher POSTs payloads to the downstream endpoint. Delivery is
// at-least-once: a retried request may have been received by the service even
// when the response was lost, and downstream idempotency is assumed.
type Dispatcher struct {
	endpoint string
	client   *httpclient.HTTPClient
	policy   RetryPolicy
	sleep    sleepFunc
}

// New creates a dispatcher for the given endpoint.
func New(endpoint string, timeout time.Duration, policy RetryPolicy) *Dispatcher {
	return &Dispatcher{
		endpoint: endpoint,
		client:   httpclient.NewClientWithTimeout(httpclient.CloudflareClient, timeout),
		policy:   policy.normalized(),
		sleep:    sleepWithContext,
	}
}

// ack is the downstream service's acknowledgment body. A missing or
// unparseable token is tolerated and yields an empty-token receipt.
type ack struct {
	Token string `json:"token"`
}

// Dispatch serializes the payload and delivers it, retrying transient
// failures (transport errors, 5xx) with exponential backoff. Non-retriable
// rejections (4xx, payload too large) surface immediately as *DeliveryError.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *domain.Payload) (*domain.DeliveryReceipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &DeliveryError{Manifest: payload.Manifest, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if err := d.sleep(ctx, d.policy.Delay(attempt)); err != nil {
			return nil, &DeliveryError{Attempts: attempt - 1, Manifest: payload.Manifest, Err: err}
		}

		receipt, status, err := d.post(ctx, body)
		if err == nil {
			receipt.Episodes = payload.Manifest.EpisodeCount
			receipt.Attempts = attempt
			return receipt, nil
		}

		lastStatus, lastErr = status, err

		// A zero status means the request never got a response; the
		// predicate then sees the transport error instead.
		transportErr := err
		if status > 0 {
			transportErr = nil
		}
		if !d.policy.Retriable(status, transportErr) {
			return nil, &DeliveryError{Status: status, Attempts: attempt, Manifest: payload.Manifest, Err: err}
		}
		if attempt < d.policy.MaxAttempts {
			log.Printf("[WARN] delivery attempt %d/%d failed (status %d): %v, retrying",
				attempt, d.policy.MaxAttempts, status, err)
		}
	}

	return nil, &DeliveryError{
		Status:   lastStatus,
		Attempts: d.policy.MaxAttempts,
		Manifest: payload.Manifest,
		Err:      lastErr,
	}
}

// post performs one POST attempt. status is zero when no response arrived.
func (d *Dispatcher) post(ctx context.Context, body []byte) (*domain.DeliveryReceipt, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer httpclient.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var a ack
	_ = json.Unmarshal(respBody, &a)

	return &domain.DeliveryReceipt{Token: a.Token}, resp.StatusCode, nil
}
