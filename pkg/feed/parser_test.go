package feed

import (
	"errors"
	"testing"

	"transcript-collector/pkg/domain"
)

const rssWithTranscripts = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:podcast="https://podcastindex.org/namespace/1.0">
  <channel>
    <title>Test Podcast</title>
    <item>
      <title>Episode One</title>
      <guid>ep-1</guid>
      <pubDate>Mon, 02 Jan 2023 10:00:00 GMT</pubDate>
      <podcast:transcript url="https://example.com/transcripts/ep1.txt" type="text/plain"/>
    </item>
    <item>
      <title>Episode Two</title>
      <guid>ep-2</guid>
      <pubDate>Tue, 03 Jan 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://example.com/transcripts/ep2.pdf" type="application/pdf" length="1000"/>
    </item>
    <item>
      <title>Episode Two duplicate</title>
      <guid>ep-2</guid>
      <pubDate>Wed, 04 Jan 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Episode Three no transcript</title>
      <guid>ep-3</guid>
      <pubDate>Thu, 05 Jan 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func testFeed() domain.Feed {
	return domain.Feed{ID: "test", URL: "https://example.com/feed.xml", Label: "Test"}
}

func TestParser_Parse_ExtractsEpisodes(t *testing.T) {
	p := NewParser()

	episodes, err := p.Parse(testFeed(), []byte(rssWithTranscripts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes after in-feed dedup, got %d", len(episodes))
	}

	ep1 := episodes[0]
	if ep1.ExternalID != "ep-1" {
		t.Errorf("expected external id ep-1, got %q", ep1.ExternalID)
	}
	if ep1.FeedID != "test" {
		t.Errorf("expected feed id test, got %q", ep1.FeedID)
	}
	if ep1.TranscriptRef != "https://example.com/transcripts/ep1.txt" {
		t.Errorf("expected podcast:transcript url, got %q", ep1.TranscriptRef)
	}
	if ep1.Transcript != "" {
		t.Errorf("expected no inline transcript, got %q", ep1.Transcript)
	}
	if ep1.PublishedAt.IsZero() {
		t.Error("expected published date to be parsed")
	}
}

func TestParser_Parse_EnclosureFallback(t *testing.T) {
	p := NewParser()

	episodes, err := p.Parse(testFeed(), []byte(rssWithTranscripts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ep2 := episodes[1]
	if ep2.TranscriptRef != "https://example.com/transcripts/ep2.pdf" {
		t.Errorf("expected pdf enclosure as transcript ref, got %q", ep2.TranscriptRef)
	}
}

func TestParser_Parse_DuplicateGUIDKeepsFirst(t *testing.T) {
	p := NewParser()

	episodes, err := p.Parse(testFeed(), []byte(rssWithTranscripts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ep2 := episodes[1]
	if ep2.Title != "Episode Two" {
		t.Errorf("expected first occurrence of ep-2 to win, got title %q", ep2.Title)
	}
}

func TestParser_Parse_MissingTranscriptIsValid(t *testing.T) {
	p := NewParser()

	episodes, err := p.Parse(testFeed(), []byte(rssWithTranscripts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ep3 := episodes[2]
	if ep3.Transcript != "" || ep3.TranscriptRef != "" {
		t.Errorf("expected episode without transcript to parse cleanly, got %q / %q", ep3.Transcript, ep3.TranscriptRef)
	}
}

func TestParser_Parse_InlineTranscript(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:podcast="https://podcastindex.org/namespace/1.0">
  <channel>
    <title>Inline</title>
    <item>
      <guid>in-1</guid>
      <title>Inline Episode</title>
      <podcast:transcript>hello   world from the show</podcast:transcript>
    </item>
  </channel>
</rss>`

	p := NewParser()
	episodes, err := p.Parse(testFeed(), []byte(rss))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(episodes))
	}
	if episodes[0].Transcript != "hello   world from the show" {
		t.Errorf("expected inline transcript, got %q", episodes[0].Transcript)
	}
	if episodes[0].TranscriptRef != "" {
		t.Errorf("expected no transcript ref, got %q", episodes[0].TranscriptRef)
	}
}

func TestParser_Parse_RelativeRefResolvedAgainstFeedURL(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:podcast="https://podcastindex.org/namespace/1.0">
  <channel>
    <title>Relative</title>
    <item>
      <guid>rel-1</guid>
      <podcast:transcript url="/transcripts/rel1.txt"/>
    </item>
  </channel>
</rss>`

	p := NewParser()
	episodes, err := p.Parse(testFeed(), []byte(rss))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if episodes[0].TranscriptRef != "https://example.com/transcripts/rel1.txt" {
		t.Errorf("expected relative ref resolved against feed URL, got %q", episodes[0].TranscriptRef)
	}
}

func TestParser_Parse_InvalidContent(t *testing.T) {
	p := NewParser()

	_, err := p.Parse(testFeed(), []byte("this is not a feed at all"))
	if err == nil {
		t.Fatal("expected ParseError for invalid content, got nil")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.FeedID != "test" {
		t.Errorf("expected feed id on error, got %q", parseErr.FeedID)
	}
}
