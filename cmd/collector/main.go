package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"transcript-collector/pkg/collector"
	"transcript-collector/pkg/config"
	"transcript-collector/pkg/consolidate"
	"transcript-collector/pkg/db"
	"transcript-collector/pkg/dispatch"
	"transcript-collector/pkg/feed"
	"transcript-collector/pkg/replication"
	"transcript-collector/pkg/transcript"
)

var opts struct {
	Conf      string `short:"c" long:"conf" env:"COLLECTOR_CONF" default:"collector.yml" description:"config file (yml)"`
	Replicate bool   `short:"r" long:"replicate" description:"replicate the episode archive from mongo to postgres and exit"`
	Dbg       bool   `long:"dbg" env:"DEBUG" description:"show debug info"`
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	setupLog(opts.Dbg)

	conf, err := config.Load(opts.Conf)
	if err != nil {
		log.Fatalf("[ERROR] can't load config %s, %v", opts.Conf, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Replicate {
		if err := runReplication(ctx, conf); err != nil {
			log.Fatalf("[ERROR] replication failed, %v", err)
		}
		return
	}

	if err := runCollection(ctx, conf); err != nil {
		log.Fatalf("[ERROR] collection run failed, %v", err)
	}
}

func runCollection(ctx context.Context, conf *config.Conf) error {
	cfg := collector.Config{
		Feeds:        conf.Feeds,
		Source:       feed.NewSource(conf.FetchTimeout()),
		Parser:       feed.NewParser(),
		Resolver:     transcript.NewResolver(conf.FetchTimeout()),
		Consolidator: consolidate.New(),
		Workers:      conf.Fetch.Workers,
		Sink: dispatch.New(conf.Sink.Endpoint, conf.SinkTimeout(), dispatch.RetryPolicy{
			MaxAttempts: conf.Sink.MaxAttempts,
			BaseDelay:   conf.BaseDelay(),
			MaxDelay:    conf.MaxDelay(),
			Retriable:   dispatch.DefaultRetriable,
		}),
	}

	if conf.Archive.Enabled {
		archive := db.NewClient(conf.Archive.MongoURI, conf.Archive.Database, conf.Archive.Collection)
		if err := archive.Connect(ctx); err != nil {
			return fmt.Errorf("connect archive: %w", err)
		}
		defer archive.Close(ctx)
		cfg.Archive = archive
	}

	report, err := collector.New(cfg).Run(ctx)
	if err != nil {
		return err
	}

	for _, fr := range report.Feeds {
		if fr.Failed() {
			log.Printf("[WARN] feed %s: failed, %v", fr.FeedID, fr.Err)
			continue
		}
		log.Printf("[INFO] feed %s: %d parsed, %d resolved, %d words", fr.FeedID, fr.Parsed, fr.Resolved, fr.Words)
	}
	log.Printf("[INFO] run finished: %d episode(s) from %d feed(s) delivered, token %q",
		report.Manifest.EpisodeCount, report.Manifest.FeedCount, report.Receipt.Token)
	return nil
}

func runReplication(ctx context.Context, conf *config.Conf) error {
	if !conf.Archive.Enabled {
		return fmt.Errorf("archive is disabled in config")
	}

	mongoClient := db.NewClient(conf.Archive.MongoURI, conf.Archive.Database, conf.Archive.Collection)
	if err := mongoClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mongoClient.Close(ctx)

	var provider db.DBProvider
	switch {
	case conf.Archive.Postgres.DSN != "":
		pg := db.NewPostgresClient(db.PostgresConfig{DSN: conf.Archive.Postgres.DSN})
		if err := pg.Connect(ctx); err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		provider = pg
	case conf.Archive.Supabase.URL != "":
		sb := db.NewSupabaseClient(db.SupabaseConfig{
			SupabaseURL: conf.Archive.Supabase.URL,
			SupabaseKey: conf.Archive.Supabase.Key,
			Password:    conf.Archive.Supabase.Password,
		})
		if err := sb.Connect(ctx); err != nil {
			return fmt.Errorf("connect supabase: %w", err)
		}
		defer sb.Close()
		if !sb.HasDirectDB() {
			return fmt.Errorf("supabase is in REST API mode, replication needs a direct database connection")
		}
		provider = sb
	default:
		return fmt.Errorf("no replication target configured (archive.postgres.dsn or archive.supabase.url)")
	}

	replicator, err := replication.NewReplicator(replication.Config{Mongo: mongoClient, Postgres: provider})
	if err != nil {
		return err
	}
	return replicator.ReplicateEpisodes(ctx)
}

func setupLog(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.CallerFile, log.CallerFunc, log.Msec, log.LevelBraces)
		return
	}
	log.Setup(log.Msec, log.LevelBraces)
}
