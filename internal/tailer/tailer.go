// Package tailer implements continuous streaming of new log entries by
// polling the Logging API with a moving time window.
package tailer

import (
	"context"
	"time"

	"go.uber.org/zap"

	cliErrors "gcloud-logs/internal/errors"
	"gcloud-logs/internal/filter"
	intlog "gcloud-logs/internal/logging"
	"gcloud-logs/internal/models"
	"gcloud-logs/internal/stackdriver"
)

// Sink receives entries in arrival order.
type Sink interface {
	Emit(entry *models.Entry) error
}

// Config holds tailer configuration.
type Config struct {
	// Instances restricts the stream to these instance names.
	Instances []string

	// From is the initial low watermark.
	From time.Time

	// PollInterval is the wait between successive polls.
	PollInterval time.Duration

	// Logger is the logger instance.
	Logger *zap.Logger
}

// DefaultConfig returns the default tailer configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: time.Second,
		Logger:       intlog.L(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return cliErrors.NewConfigValidationError("PollInterval", c.PollInterval, "must be positive")
	}
	if c.From.IsZero() {
		return cliErrors.NewConfigValidationError("From", c.From, "start of window is required")
	}
	return nil
}

// Tailer polls for new entries and forwards them to a sink.
//
// Watermark rule, inherited from the tool this replaces: the low watermark
// only advances to the poll's high mark when that poll returned entries. An
// empty poll keeps the old low mark so entries that land late in the window
// are not lost. Entries re-fetched at the window boundary are suppressed by
// insert ID.
type Tailer struct {
	config *Config
	lister stackdriver.EntryLister
	sink   Sink
	logger *zap.Logger

	low      time.Time
	lastSeen map[string]struct{}
}

// New creates a tailer over the given lister and sink.
func New(cfg *Config, lister stackdriver.EntryLister, sink Sink) (*Tailer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lister == nil {
		return nil, cliErrors.NewConfigValidationError("lister", nil, "entry lister is required")
	}
	if sink == nil {
		return nil, cliErrors.NewConfigValidationError("sink", nil, "sink is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = intlog.L()
	}

	return &Tailer{
		config: cfg,
		lister: lister,
		sink:   sink,
		logger: logger.With(zap.String("component", "tailer")),
		low:    cfg.From,
	}, nil
}

// Run polls until ctx is cancelled. Cancellation (the user's interrupt) is a
// clean stop, not an error. Transient API failures are logged and the poll
// retried on the next tick; anything else stops the tailer.
func (t *Tailer) Run(ctx context.Context) error {
	t.logger.Info("tail_started",
		intlog.Instances(t.config.Instances),
		zap.Time("from", t.low),
		zap.Duration("poll_interval", t.config.PollInterval),
	)

	for {
		if err := t.poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			if cliErrors.IsRetryableError(err) {
				t.logger.Warn("poll_failed_will_retry", zap.Error(err))
			} else {
				return err
			}
		}

		select {
		case <-ctx.Done():
			t.logger.Info("tail_stopped")
			return nil
		case <-time.After(t.config.PollInterval):
		}
	}

	t.logger.Info("tail_stopped")
	return nil
}

// poll runs one fetch over [low, high] and applies the watermark rule.
func (t *Tailer) poll(ctx context.Context) error {
	high := time.Now()

	q := filter.Query{
		Instances: t.config.Instances,
		From:      t.low,
		To:        high,
	}

	seen := make(map[string]struct{})
	fetched := 0

	_, err := t.lister.List(ctx, q.String(), func(entry *models.Entry) error {
		fetched++
		if entry.InsertID != "" {
			if _, dup := t.lastSeen[entry.InsertID]; dup {
				seen[entry.InsertID] = struct{}{}
				return nil
			}
			seen[entry.InsertID] = struct{}{}
		}
		return t.sink.Emit(entry)
	})
	if err != nil {
		// watermark untouched; nothing from this window may be skipped.
		// Entries that already reached the sink stay in lastSeen so the
		// retry over the same window does not print them again.
		if len(seen) > 0 {
			if t.lastSeen == nil {
				t.lastSeen = make(map[string]struct{}, len(seen))
			}
			for id := range seen {
				t.lastSeen[id] = struct{}{}
			}
		}
		return err
	}

	if fetched > 0 {
		t.low = high
		t.lastSeen = seen
		t.logger.Debug("watermark_advanced",
			zap.Time("low", t.low),
			intlog.Count(fetched),
		)
	}

	return nil
}
