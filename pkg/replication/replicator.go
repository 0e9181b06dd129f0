// Package replication copies the episode archive from MongoDB to a
// Postgres-compatible provider.
package replication

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	log "github.com/go-pkgz/lgr"

	"transcript-collector/pkg/db"
	"transcript-collector/pkg/domain"
)

// Config wires the replication dependencies.
type Config struct {
	Mongo    *db.Client
	Postgres db.DBProvider
}

// Replicator replicates archived episodes from MongoDB to Postgres. This is
// a one-shot, copy-everything flow; the (feed_id, external_id) primary key
// makes repeated runs idempotent.
type Replicator struct {
	mongo *db.Client
	pg    db.DBProvider
}

// NewReplicator validates the wiring and returns a replicator.
func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Mongo == nil {
		return nil, fmt.Errorf("mongo client is required")
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres client is required")
	}
	return &Replicator{
		mongo: cfg.Mongo,
		pg:    cfg.Postgres,
	}, nil
}

// ReplicateEpisodes reads all archived episodes from Mongo and inserts them
// into the Postgres `episode` table. Episodes whose key already exists in
// Postgres are skipped.
func (r *Replicator) ReplicateEpisodes(ctx context.Context) error {
	if err := r.ensureEpisodeSchema(ctx); err != nil {
		return err
	}

	episodes, err := r.mongo.GetAllEpisodes(ctx)
	if err != nil {
		return err
	}

	log.Printf("[INFO] loaded %d episode(s) from mongo, replicating in batches", len(episodes))

	inserted, err := r.processBatches(ctx, episodes)
	if err != nil {
		return err
	}

	log.Printf("[INFO] replication complete: processed %d episode(s), inserted %d new", len(episodes), inserted)
	return nil
}

// processBatches inserts episodes in parallel batches and returns the total
// inserted count.
func (r *Replicator) processBatches(ctx context.Context, episodes []domain.ResolvedEpisode) (int, error) {
	const batchSize = 100
	const numWorkers = 5

	type batchResult struct {
		inserted int
		err      error
	}

	numBatches := (len(episodes) + batchSize - 1) / batchSize
	jobs := make(chan []domain.ResolvedEpisode, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(episodes); start += batchSize {
		end := start + batchSize
		if end > len(episodes) {
			end = len(episodes)
		}
		jobs <- episodes[start:end]
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				inserted, err := r.insertEpisodesTx(ctx, batch)
				results <- batchResult{inserted: inserted, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	total := 0
	for result := range results {
		if result.err != nil {
			return total, result.err
		}
		total += result.inserted
	}

	return total, nil
}

func (r *Replicator) ensureEpisodeSchema(ctx context.Context) error {
	if r.pg.DB() == nil {
		return fmt.Errorf("postgres DB not connected")
	}

	// The dedup key is the primary key, which also gives us idempotent
	// replication runs.
	const ddl = `
CREATE TABLE IF NOT EXISTS episode (
  feed_id TEXT NOT NULL,
  external_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  published_at TIMESTAMPTZ,
  transcript TEXT NOT NULL DEFAULT '',
  transcript_ref TEXT NOT NULL DEFAULT '',
  words INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (feed_id, external_id)
);`

	if _, err := r.pg.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create episode table: %w", err)
	}
	return nil
}

// insertEpisodesTx inserts a batch of episodes within a transaction and
// returns how many rows were actually inserted.
func (r *Replicator) insertEpisodesTx(ctx context.Context, batch []domain.ResolvedEpisode) (int, error) {
	tx, err := r.pg.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertQuery = `
INSERT INTO episode (feed_id, external_id, title, published_at, transcript, transcript_ref, words)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (feed_id, external_id) DO NOTHING`

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ep := range batch {
		if ep.FeedID == "" || ep.ExternalID == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, ep.FeedID, ep.ExternalID, ep.Title, ep.PublishedAt,
			ep.Transcript, ep.TranscriptRef, ep.Words)
		if err != nil {
			return inserted, fmt.Errorf("insert episode %s/%s: %w", ep.FeedID, ep.ExternalID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
