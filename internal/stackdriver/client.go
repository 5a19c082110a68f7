// Package stackdriver wraps the Cloud Logging admin client for reading
// entries.
//
// The wrapper adds what the raw SDK leaves to the caller:
// - Config validation in one place
// - Project resolution from flag, environment, or default credentials
// - Retry with exponential backoff for transient RPC failures
// - Classification of auth failures into user-facing errors
package stackdriver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/logging/logadmin"
	"go.uber.org/zap"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cliErrors "gcloud-logs/internal/errors"
	intlog "gcloud-logs/internal/logging"
	"gcloud-logs/internal/models"
)

// readScope is the OAuth scope needed to list log entries.
const readScope = "https://www.googleapis.com/auth/logging.read"

// userAgent identifies this tool in API request headers.
const userAgent = "gcloud-logs/0.1.0"

// Config holds client configuration.
type Config struct {
	// ProjectID is the GCP project whose logs are read.
	ProjectID string

	// PageSize is the number of entries fetched per API page.
	PageSize int

	// RequestTimeout bounds a single one-shot List call. Zero means no
	// per-call deadline (tail polls bound themselves).
	RequestTimeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// RetryBackoff is the initial backoff duration between retries.
	RetryBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// Logger is the logger instance.
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		MaxBackoff:   5 * time.Second,
		Logger:       intlog.L(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return cliErrors.NewConfigValidationError("ProjectID", c.ProjectID, "project ID is required")
	}
	if c.PageSize <= 0 {
		return cliErrors.NewConfigValidationError("PageSize", c.PageSize, "must be positive")
	}
	if c.MaxRetries < 0 {
		return cliErrors.NewConfigValidationError("MaxRetries", c.MaxRetries, "must be non-negative")
	}
	if c.RequestTimeout < 0 {
		return cliErrors.NewConfigValidationError("RequestTimeout", c.RequestTimeout, "must be non-negative")
	}
	return nil
}

// EntryLister lists log entries matching a filter, oldest first, invoking fn
// for each one. It returns the number of entries seen. The tailer and the
// command layer depend on this interface, not on the concrete client.
type EntryLister interface {
	List(ctx context.Context, filter string, fn func(*models.Entry) error) (int, error)
}

// Client reads log entries through the Cloud Logging admin API.
type Client struct {
	config *Config
	admin  *logadmin.Client
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// ResolveProject determines the project ID: the explicit value wins, then
// GOOGLE_CLOUD_PROJECT, then the ambient default credentials. The tool never
// manages credentials itself; it leans on the gcloud environment, as the
// original did.
func ResolveProject(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv("GOOGLE_CLOUD_PROJECT"); env != "" {
		return env, nil
	}

	creds, err := goauth.FindDefaultCredentials(ctx, readScope)
	if err != nil {
		return "", cliErrors.NewAuthFailedError(err.Error())
	}
	if creds.ProjectID == "" {
		return "", cliErrors.NewProjectUnknownError()
	}
	return creds.ProjectID, nil
}

// NewClient creates a client for the configured project.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = intlog.L()
	}
	logger = logger.With(
		zap.String("component", "stackdriver_client"),
		intlog.Project(cfg.ProjectID),
	)

	admin, err := logadmin.NewClient(ctx, cfg.ProjectID, option.WithUserAgent(userAgent))
	if err != nil {
		logger.Error("client_create_failed", zap.Error(err))
		return nil, classify(cfg.ProjectID, cfg.RequestTimeout, err)
	}

	logger.Debug("client_created", intlog.PageSize(cfg.PageSize))

	return &Client{
		config: cfg,
		admin:  admin,
		logger: logger,
	}, nil
}

// List fetches entries matching filter, oldest first, calling fn per entry.
// Transient failures are retried with exponential backoff, but only while no
// entry has been delivered: a restarted iteration would re-emit.
func (c *Client) List(ctx context.Context, filter string, fn func(*models.Entry) error) (int, error) {
	if c.isClosed() {
		return 0, cliErrors.NewFetchFailedError("client is closed", nil)
	}

	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	var lastErr error
	backoff := c.config.RetryBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying_list",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > c.config.MaxBackoff {
				backoff = c.config.MaxBackoff
			}
		}

		count, err := c.listOnce(ctx, filter, fn)
		if err == nil {
			return count, nil
		}

		classified := classify(c.config.ProjectID, c.config.RequestTimeout, err)
		lastErr = classified

		if count > 0 || !cliErrors.IsRetryableError(classified) {
			return count, classified
		}

		c.logger.Warn("list_failed_retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return 0, fmt.Errorf("list failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// listOnce runs a single iteration over the entry iterator.
func (c *Client) listOnce(ctx context.Context, filter string, fn func(*models.Entry) error) (int, error) {
	it := c.admin.Entries(ctx, logadmin.Filter(filter))
	it.PageInfo().MaxSize = c.config.PageSize

	count := 0
	for {
		entry, err := it.Next()
		if err == iterator.Done {
			return count, nil
		}
		if err != nil {
			return count, err
		}

		if err := fn(models.FromAPI(entry)); err != nil {
			return count, err
		}
		count++
	}
}

// Close releases the underlying admin client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.admin.Close(); err != nil {
		c.logger.Error("client_close_error", zap.Error(err))
		return err
	}
	c.logger.Debug("client_closed")
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// classify maps RPC failures onto the tool's error taxonomy.
func classify(project string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated:
			return cliErrors.NewAuthFailedError(st.Message())
		case codes.PermissionDenied:
			return cliErrors.NewPermissionDeniedError(project, st.Message())
		case codes.Unavailable, codes.Aborted, codes.ResourceExhausted, codes.Internal:
			return cliErrors.NewAPIUnavailableError(st.Message())
		case codes.DeadlineExceeded:
			return cliErrors.NewFetchTimeoutError("list_entries", timeout.Seconds())
		case codes.InvalidArgument:
			return cliErrors.NewFetchFailedError("invalid query: "+st.Message(), err)
		}
	}

	return cliErrors.NewFetchFailedError(err.Error(), err)
}
