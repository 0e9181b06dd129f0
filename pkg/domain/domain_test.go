package domain

import "testing"

func TestFeedNormalize(t *testing.T) {
	cases := []struct {
		name string
		feed Feed
		want string
	}{
		{"derived from url", Feed{URL: "https://feeds.example.org/510318/podcast.xml"}, "feeds.example.org/510318/podcast.xml"},
		{"trailing slash trimmed", Feed{URL: "https://example.com/feed/"}, "example.com/feed"},
		{"query kept", Feed{URL: "https://example.com/feed?show=42"}, "example.com/feed?show=42"},
		{"explicit id kept", Feed{ID: "my-feed", URL: "https://example.com/feed"}, "my-feed"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.feed.Normalize().ID; got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestFeedNormalizeDistinctQueries(t *testing.T) {
	a := Feed{URL: "https://example.com/feed?show=morning"}.Normalize()
	b := Feed{URL: "https://example.com/feed?show=evening"}.Normalize()
	if a.ID == b.ID {
		t.Errorf("distinct urls must derive distinct ids, both got %q", a.ID)
	}
}

func TestNewResolvedEpisode(t *testing.T) {
	ep := Episode{FeedID: "f", ExternalID: "e"}
	resolved := NewResolvedEpisode(ep, "three word transcript")

	if resolved.Transcript != "three word transcript" {
		t.Errorf("unexpected transcript: %q", resolved.Transcript)
	}
	if resolved.Words != 3 {
		t.Errorf("expected 3 words, got %d", resolved.Words)
	}
	if resolved.Key() != (EpisodeKey{FeedID: "f", ExternalID: "e"}) {
		t.Errorf("unexpected key: %+v", resolved.Key())
	}
}
