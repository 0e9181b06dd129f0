package domain

import "time"

// Payload is the single consolidated document sent downstream. It is
// constructed once per run by the consolidator, immutable after construction,
// and consumed exactly once by the dispatcher.
type Payload struct {
	// ID identifies this payload generation (one per run).
	ID string `json:"id"`

	// GeneratedAt is stamped when the payload is constructed.
	GeneratedAt time.Time `json:"generated_at"`

	// Manifest summarizes the payload contents.
	Manifest Manifest `json:"manifest"`

	// Groups holds resolved episodes grouped by feed, in feed
	// configuration order.
	Groups []FeedGroup `json:"feeds"`
}

// FeedGroup is one feed's slice of the payload. Episodes are ordered by
// published date ascending, ties broken by external id.
type FeedGroup struct {
	FeedID   string            `json:"feed_id"`
	Label    string            `json:"label,omitempty"`
	Episodes []ResolvedEpisode `json:"episodes"`
}

// Manifest is the summary metadata accompanying a Payload.
type Manifest struct {
	// FeedCount is the number of feed groups present in the payload.
	FeedCount int `json:"feed_count"`

	// EpisodeCount is the total number of resolved episodes.
	EpisodeCount int `json:"episode_count"`

	// FailedFeeds is the number of configured feeds excluded from the
	// payload by a fetch or parse failure.
	FailedFeeds int `json:"failed_feeds"`

	// ByteSize is the total UTF-8 byte length of transcript text across
	// all episodes.
	ByteSize int `json:"byte_size"`
}

// DeliveryReceipt is returned by the dispatcher on successful delivery.
type DeliveryReceipt struct {
	// Token is the downstream service's acknowledgment token, when the
	// service returns one.
	Token string `json:"token"`

	// Episodes is the number of episodes delivered.
	Episodes int `json:"episodes"`

	// Attempts is the number of POST attempts it took to deliver.
	Attempts int `json:"attempts"`
}
