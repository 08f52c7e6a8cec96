// Package config loads the VM's tuning knobs from a TOML file. Grounded on
// stackedboxes-romualdo's own use of github.com/pelletier/go-toml/v2 for its
// interpreter's settings file, carried into embervm for the same purpose:
// a small, flat, hand-editable configuration surface rather than flags
// scattered across the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"embervm/concurrency"
)

// Config holds every VM tuning knob SPEC_FULL.md's ambient stack section
// names: the tick limit, worker count (0 = Auto, matching §4.6's
// `cores=Auto`), default error/timeout policy for parallel/concurrent
// blocks, the Retry strategy's resubmission cap, the work-stealing pool's
// idle-poll timeout, and the block waiter's poll interval.
type Config struct {
	TickLimit  int64  `toml:"tick_limit"`
	WorkerCount int   `toml:"worker_count"`

	DefaultOnError   string `toml:"default_on_error"`
	DefaultOnTimeout string `toml:"default_on_timeout"`
	RetryLimit       int    `toml:"retry_limit"`

	StealTimeoutMS int `toml:"steal_timeout_ms"`
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// Default returns the configuration embervm runs with when no file is
// supplied: unlimited ticks, Auto worker count, Auto error policy, partial
// timeout policy, and the spec's documented defaults for the pool's steal wait (10ms,
// spec.md §4.6) and the block waiter's poll cadence (1ms, spec.md §5).
func Default() Config {
	return Config{
		TickLimit:        0,
		WorkerCount:      0,
		DefaultOnError:   "Auto",
		DefaultOnTimeout: "partial",
		RetryLimit:       concurrency.DefaultRetryLimit,
		StealTimeoutMS:   int(concurrency.StealWaitTimeout / time.Millisecond),
		PollIntervalMS:   1,
	}
}

// Load reads and parses a TOML configuration file on top of Default(): keys
// the file omits keep their default values, a key the file sets (even to
// zero or "") overrides it, and a retry_limit of zero or less is reset to
// the default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = concurrency.DefaultRetryLimit
	}
	return cfg, nil
}

// StealTimeout is StealTimeoutMS as a time.Duration.
func (c Config) StealTimeout() time.Duration {
	return time.Duration(c.StealTimeoutMS) * time.Millisecond
}

// PollInterval is PollIntervalMS as a time.Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
