// Package config loads the run configuration for the transcript collector.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"transcript-collector/pkg/domain"
)

// Conf is the top-level yaml configuration. Feeds keep their file order;
// payload feed groups follow that order.
type Conf struct {
	Feeds []domain.Feed `yaml:"feeds"`

	Sink struct {
		Endpoint       string `yaml:"endpoint"`
		TimeoutSec     int    `yaml:"timeout_sec"`
		MaxAttempts    int    `yaml:"max_attempts"`
		BaseDelayMilli int    `yaml:"base_delay_ms"`
		MaxDelayMilli  int    `yaml:"max_delay_ms"`
	} `yaml:"sink"`

	Fetch struct {
		TimeoutSec int `yaml:"timeout_sec"`
		Workers    int `yaml:"workers"`
	} `yaml:"fetch"`

	Archive struct {
		Enabled    bool   `yaml:"enabled"`
		MongoURI   string `yaml:"mongo_uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
		Postgres   struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
		Supabase struct {
			URL      string `yaml:"url"`
			Key      string `yaml:"key"`
			Password string `yaml:"password"`
		} `yaml:"supabase"`
	} `yaml:"archive"`
}

// Load config from file
func Load(fileName string) (*Conf, error) {
	res := &Conf{}
	data, err := os.ReadFile(fileName) // nolint
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, err
	}

	for i, f := range res.Feeds {
		res.Feeds[i] = f.Normalize()
	}
	if err := res.validate(); err != nil {
		return nil, err
	}

	res.applyDefaults()
	return res, nil
}

func (c *Conf) validate() error {
	if c.Sink.Endpoint == "" {
		return fmt.Errorf("sink.endpoint is required")
	}
	seen := make(map[string]int, len(c.Feeds))
	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d].url is required", i)
		}
		// Feed IDs key the merge; two feeds sharing one would clobber
		// each other's results.
		if j, ok := seen[f.ID]; ok {
			return fmt.Errorf("feeds[%d] and feeds[%d] share id %q", j, i, f.ID)
		}
		seen[f.ID] = i
	}
	return nil
}

func (c *Conf) applyDefaults() {
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 30
	}
	if c.Fetch.Workers <= 0 {
		c.Fetch.Workers = 4
	}
	if c.Sink.TimeoutSec <= 0 {
		c.Sink.TimeoutSec = 60
	}
	if c.Sink.MaxAttempts <= 0 {
		c.Sink.MaxAttempts = 3
	}
	if c.Sink.BaseDelayMilli <= 0 {
		c.Sink.BaseDelayMilli = 500
	}
	if c.Archive.Enabled {
		if c.Archive.Database == "" {
			c.Archive.Database = "transcripts"
		}
		if c.Archive.Collection == "" {
			c.Archive.Collection = "episodes"
		}
	}
}

// FetchTimeout returns the per-request timeout for feed and transcript fetches.
func (c *Conf) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

// SinkTimeout returns the per-request timeout for the downstream POST.
func (c *Conf) SinkTimeout() time.Duration {
	return time.Duration(c.Sink.TimeoutSec) * time.Second
}

// BaseDelay returns the initial backoff delay between delivery attempts.
func (c *Conf) BaseDelay() time.Duration {
	return time.Duration(c.Sink.BaseDelayMilli) * time.Millisecond
}

// MaxDelay returns the backoff ceiling, zero meaning uncapped.
func (c *Conf) MaxDelay() time.Duration {
	return time.Duration(c.Sink.MaxDelayMilli) * time.Millisecond
}
