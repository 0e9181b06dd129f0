package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript-collector/pkg/domain"
)

func testPayload(episodes int) *domain.Payload {
	p := &domain.Payload{
		ID:          "run-1",
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	p.Manifest.EpisodeCount = episodes
	if episodes > 0 {
		p.Manifest.FeedCount = 1
	}
	return p
}

// newTestDispatcher replaces the real sleep with a recorder so retries run
// instantly and delays can be asserted.
func newTestDispatcher(endpoint string, policy RetryPolicy) (*Dispatcher, *[]time.Duration) {
	d := New(endpoint, 5*time.Second, policy)
	var delays []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		if dur > 0 {
			delays = append(delays, dur)
		}
		return ctx.Err()
	}
	return d, &delays
}

func TestDispatch_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"token":"ack-123"}`))
	}))
	defer srv.Close()

	d, delays := newTestDispatcher(srv.URL, RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond})

	receipt, err := d.Dispatch(context.Background(), testPayload(2))
	require.NoError(t, err)
	assert.Equal(t, "ack-123", receipt.Token)
	assert.Equal(t, 2, receipt.Episodes)
	assert.Equal(t, 3, receipt.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *delays,
		"exponential backoff between attempts")
}

func TestDispatch_NonRetriableFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "too big", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond})

	payload := testPayload(7)
	_, err := d.Dispatch(context.Background(), payload)
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, deliveryErr.Status)
	assert.Equal(t, 1, deliveryErr.Attempts)
	assert.Equal(t, payload.Manifest, deliveryErr.Manifest, "error carries the attempted manifest")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestDispatch_ExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})

	_, err := d.Dispatch(context.Background(), testPayload(1))
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, 3, deliveryErr.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, deliveryErr.Status)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDispatch_EmptyPayloadSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"empty-ok"}`))
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL, RetryPolicy{MaxAttempts: 1})

	receipt, err := d.Dispatch(context.Background(), testPayload(0))
	require.NoError(t, err)
	assert.Equal(t, "empty-ok", receipt.Token)
	assert.Equal(t, 0, receipt.Episodes)
}

func TestDispatch_MissingAckTokenTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL, RetryPolicy{MaxAttempts: 1})

	receipt, err := d.Dispatch(context.Background(), testPayload(1))
	require.NoError(t, err)
	assert.Empty(t, receipt.Token)
}

func TestRetryPolicy_DelayCapped(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 250*time.Millisecond, p.Delay(4), "capped at MaxDelay")
}

func TestDefaultRetriable(t *testing.T) {
	assert.True(t, DefaultRetriable(0, errors.New("connection refused")))
	assert.True(t, DefaultRetriable(http.StatusInternalServerError, nil))
	assert.False(t, DefaultRetriable(http.StatusBadRequest, nil))
	assert.False(t, DefaultRetriable(http.StatusRequestEntityTooLarge, nil))
}
