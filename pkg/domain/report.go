package domain

// FeedReport records the outcome of one feed's pipeline within a run.
type FeedReport struct {
	FeedID string `json:"feed_id"`
	Label  string `json:"label,omitempty"`

	// Err is the fetch or parse failure that excluded the feed from the
	// payload, nil on success.
	Err error `json:"-"`

	// Parsed is the number of episodes parsed from the feed.
	Parsed int `json:"parsed"`

	// Resolved is the number of episodes with a usable transcript.
	// Episodes whose transcript could not be resolved are dropped, so
	// Resolved <= Parsed.
	Resolved int `json:"resolved"`

	// Words is the total transcript word count across resolved episodes.
	Words int `json:"words"`
}

// Failed reports whether the feed was excluded from the payload.
func (r FeedReport) Failed() bool { return r.Err != nil }

// RunReport is the user-visible summary of one collection run: per-feed
// outcomes plus the final delivery result.
type RunReport struct {
	Feeds    []FeedReport     `json:"feeds"`
	Manifest Manifest         `json:"manifest"`
	Receipt  *DeliveryReceipt `json:"receipt,omitempty"`
}
