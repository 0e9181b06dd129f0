package domain

import (
	"strings"
	"time"
)

// Episode is one unit of content parsed from a feed. The transcript may be
// inline (Transcript set) or referenced (TranscriptRef set); both may be
// absent, in which case the episode is dropped during resolution.
type Episode struct {
	// FeedID identifies the feed this episode came from.
	FeedID string `bson:"feed_id" json:"feed_id"`

	// ExternalID uniquely identifies the episode within its feed
	// (item GUID, falling back to the item link).
	// (FeedID, ExternalID) is the global dedup key.
	ExternalID string `bson:"external_id" json:"external_id"`

	// Title is the episode title, when available.
	Title string `bson:"title" json:"title"`

	// PublishedAt is the episode publish date, when available.
	PublishedAt time.Time `bson:"published_at" json:"published_at"`

	// Transcript is the inline transcript text, when the feed carries one.
	Transcript string `bson:"transcript,omitempty" json:"transcript,omitempty"`

	// TranscriptRef is the URL of a linked transcript resource, when the
	// transcript is not inline.
	TranscriptRef string `bson:"transcript_ref,omitempty" json:"transcript_ref,omitempty"`
}

// Key returns the global deduplication key for the episode.
func (e Episode) Key() EpisodeKey {
	return EpisodeKey{FeedID: e.FeedID, ExternalID: e.ExternalID}
}

// EpisodeKey is the (feed, episode) identity used for deduplication.
type EpisodeKey struct {
	FeedID     string
	ExternalID string
}

// ResolvedEpisode is an Episode whose transcript is guaranteed non-empty.
type ResolvedEpisode struct {
	Episode `bson:",inline"`

	// Words is the whitespace-delimited word count of the transcript.
	Words int `bson:"words" json:"words"`
}

// NewResolvedEpisode builds a ResolvedEpisode from an episode and its final
// transcript text. The text must already be trimmed and normalized.
func NewResolvedEpisode(e Episode, transcript string) ResolvedEpisode {
	e.Transcript = transcript
	return ResolvedEpisode{
		Episode: e,
		Words:   len(strings.Fields(transcript)),
	}
}
