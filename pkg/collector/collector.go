// Package collector orchestrates a collection run: concurrent per-feed
// pipelines joined into a single-threaded merge, one consolidated payload,
// one delivery.
package collector

import (
	"context"
	"sync"

	log "github.com/go-pkgz/lgr"

	"transcript-collector/pkg/consolidate"
	"transcript-collector/pkg/domain"
)

// Fetcher fetches raw feed content (no internal retry).
type Fetcher interface {
	Fetch(ctx context.Context, f domain.Feed) ([]byte, error)
}

// EpisodeParser parses raw feed content into episode records.
type EpisodeParser interface {
	Parse(f domain.Feed, raw []byte) ([]domain.Episode, error)
}

// Resolver resolves an episode's transcript, returning nil to drop it.
type Resolver interface {
	Resolve(ctx context.Context, ep domain.Episode) *domain.ResolvedEpisode
}

// Sink delivers the consolidated payload downstream.
type Sink interface {
	Dispatch(ctx context.Context, payload *domain.Payload) (*domain.DeliveryReceipt, error)
}

// Archiver persists resolved episodes after a successful delivery. Optional.
type Archiver interface {
	SaveEpisodes(ctx context.Context, episodes []domain.ResolvedEpisode) error
}

// Config wires the collector dependencies.
type Config struct {
	Feeds        []domain.Feed
	Source       Fetcher
	Parser       EpisodeParser
	Resolver     Resolver
	Sink         Sink
	Archive      Archiver // nil disables archiving
	Consolidator *consolidate.Consolidator

	// Workers bounds how many feed pipelines run at once. <= 0 means one
	// worker per feed.
	Workers int
}

// Collector runs the collection pipeline end to end.
type Collector struct {
	cfg Config
}

// New creates a collector. A nil consolidator gets the default (wall clock,
// random payload ids).
func New(cfg Config) *Collector {
	if cfg.Consolidator == nil {
		cfg.Consolidator = consolidate.New()
	}
	return &Collector{cfg: cfg}
}

// feedResult is the value a feed pipeline hands to the merge step. Pipelines
// share nothing; all coordination happens through the results channel.
type feedResult struct {
	feed     domain.Feed
	episodes []domain.ResolvedEpisode
	report   domain.FeedReport
}

// Run executes one collection run: fetch and resolve every configured feed
// concurrently, merge deterministically, dispatch once. Per-feed failures are
// recorded in the report and excluded from the payload; only delivery failure
// (or cancellation) makes the run itself fail. On delivery failure the report
// is still returned alongside the error, manifest included, for diagnostics.
func (c *Collector) Run(ctx context.Context) (*domain.RunReport, error) {
	results := c.collectFeeds(ctx)

	if err := ctx.Err(); err != nil {
		// Cancelled: discard whatever resolved so far, dispatch nothing.
		return nil, err
	}

	report := &domain.RunReport{Feeds: make([]domain.FeedReport, 0, len(c.cfg.Feeds))}
	resolved := make(map[string][]domain.ResolvedEpisode, len(results))
	failed := 0

	// Reports follow configuration order regardless of completion order.
	for _, f := range c.cfg.Feeds {
		res, ok := results[f.ID]
		if !ok {
			continue
		}
		report.Feeds = append(report.Feeds, res.report)
		if res.report.Failed() {
			failed++
			log.Printf("[WARN] feed %s failed: %v", f.ID, res.report.Err)
			continue
		}
		resolved[f.ID] = res.episodes
	}

	payload := c.cfg.Consolidator.Consolidate(c.cfg.Feeds, resolved, failed)
	report.Manifest = payload.Manifest
	log.Printf("[INFO] consolidated %d episodes from %d feed(s), %d feed(s) failed, %d bytes",
		payload.Manifest.EpisodeCount, payload.Manifest.FeedCount, failed, payload.Manifest.ByteSize)

	receipt, err := c.cfg.Sink.Dispatch(ctx, payload)
	if err != nil {
		return report, err
	}
	report.Receipt = receipt
	log.Printf("[INFO] delivered %d episodes in %d attempt(s), token %q",
		receipt.Episodes, receipt.Attempts, receipt.Token)

	c.archive(ctx, payload)
	return report, nil
}

// collectFeeds runs the per-feed pipelines over a bounded worker pool and
// joins their results. Each pipeline owns its data until it is handed over
// the results channel.
func (c *Collector) collectFeeds(ctx context.Context) map[string]feedResult {
	workers := c.cfg.Workers
	if workers <= 0 || workers > len(c.cfg.Feeds) {
		workers = len(c.cfg.Feeds)
	}

	jobs := make(chan domain.Feed)
	resultsChan := make(chan feedResult, len(c.cfg.Feeds))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for f := range jobs {
				resultsChan <- c.runFeedPipeline(ctx, f)
			}
		}()
	}

	for _, f := range c.cfg.Feeds {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			close(resultsChan)
			return nil
		case jobs <- f:
		}
	}
	close(jobs)
	wg.Wait()
	close(resultsChan)

	results := make(map[string]feedResult, len(c.cfg.Feeds))
	for res := range resultsChan {
		results[res.feed.ID] = res
	}
	return results
}

// runFeedPipeline is one feed's fetch → parse → resolve sequence. Fetch and
// parse failures mark the feed failed; a failed transcript resolution only
// drops that episode.
func (c *Collector) runFeedPipeline(ctx context.Context, f domain.Feed) feedResult {
	res := feedResult{feed: f, report: domain.FeedReport{FeedID: f.ID, Label: f.Label}}

	raw, err := c.cfg.Source.Fetch(ctx, f)
	if err != nil {
		res.report.Err = err
		return res
	}

	episodes, err := c.cfg.Parser.Parse(f, raw)
	if err != nil {
		res.report.Err = err
		return res
	}
	res.report.Parsed = len(episodes)

	for _, ep := range episodes {
		if ctx.Err() != nil {
			break
		}
		if resolved := c.cfg.Resolver.Resolve(ctx, ep); resolved != nil {
			res.episodes = append(res.episodes, *resolved)
			res.report.Words += resolved.Words
		}
	}
	res.report.Resolved = len(res.episodes)

	log.Printf("[INFO] feed %s: parsed %d episode(s), resolved %d (%d words)",
		f.ID, res.report.Parsed, res.report.Resolved, res.report.Words)
	return res
}

// archive persists delivered episodes, best-effort.
func (c *Collector) archive(ctx context.Context, payload *domain.Payload) {
	if c.cfg.Archive == nil {
		return
	}

	episodes := make([]domain.ResolvedEpisode, 0, payload.Manifest.EpisodeCount)
	for _, g := range payload.Groups {
		episodes = append(episodes, g.Episodes...)
	}
	if len(episodes) == 0 {
		return
	}

	if err := c.cfg.Archive.SaveEpisodes(ctx, episodes); err != nil {
		log.Printf("[WARN] archiving %d episode(s) failed: %v", len(episodes), err)
		return
	}
	log.Printf("[INFO] archived %d episode(s)", len(episodes))
}
