package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gcloud-logs/internal/config"
	cliErrors "gcloud-logs/internal/errors"
	"gcloud-logs/internal/filter"
	"gcloud-logs/internal/logging"
	"gcloud-logs/internal/output"
	"gcloud-logs/internal/stackdriver"
	"gcloud-logs/internal/tailer"
	"gcloud-logs/internal/timeparse"
)

// FetchOptions holds options for the fetch/tail run.
type FetchOptions struct {
	Instances    []string
	FromRaw      string
	ToRaw        string
	Tail         bool
	UTC          bool
	OutputFile   string
	APIFormat    bool
	Project      string
	PollInterval time.Duration
	PageSize     int
}

// DefaultFetchOptions returns the default fetch options.
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		Tail:         false,
		UTC:          false,
		APIFormat:    false,
		PollInterval: config.DefaultPollInterval,
		PageSize:     config.DefaultPageSize,
	}
}

// FetchRunner handles the fetch/tail workflow.
type FetchRunner struct {
	options *FetchOptions
	logger  *zap.Logger
	client  *stackdriver.Client
	printer *output.Printer
}

// NewFetchRunner creates a runner with logging configured from the ambient
// config and the --verbose flag.
func NewFetchRunner(opts *FetchOptions, cfg *config.Config) (*FetchRunner, error) {
	if opts == nil {
		opts = DefaultFetchOptions()
	}

	logCfg := logging.DefaultConfig()
	if cfg != nil {
		logCfg.Level = cfg.LogLevel
		logCfg.LogDir = cfg.LogDir
		logCfg.EnableFile = cfg.LogToFile
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Setup(logCfg); err != nil {
		return nil, cliErrors.NewConfigInvalidError("failed to set up diagnostics", err)
	}

	logger := logging.With(
		zap.String("command", "fetch"),
		logging.Instances(opts.Instances),
	)

	return &FetchRunner{
		options: opts,
		logger:  logger,
	}, nil
}

// Run executes the fetch or tail.
func (r *FetchRunner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// interrupt stops tailing cleanly
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		r.logger.Info("received_signal", zap.String("signal", sig.String()))
		cancel()
	}()

	query, err := r.buildQuery()
	if err != nil {
		return err
	}

	project, err := stackdriver.ResolveProject(ctx, r.options.Project)
	if err != nil {
		return err
	}

	clientCfg := stackdriver.DefaultConfig()
	clientCfg.ProjectID = project
	clientCfg.PageSize = r.options.PageSize
	clientCfg.Logger = r.logger
	if !r.options.Tail {
		clientCfg.RequestTimeout = 5 * time.Minute
	}

	client, err := stackdriver.NewClient(ctx, clientCfg)
	if err != nil {
		return err
	}
	r.client = client
	defer func() { _ = r.client.Close() }()

	printer, err := output.NewPrinter(r.options.OutputFile, r.formatter(), r.logger)
	if err != nil {
		return err
	}
	r.printer = printer
	defer func() { _ = r.printer.Close() }()

	r.logger.Info("fetch_starting",
		logging.Project(project),
		logging.Filter(query.String()),
		zap.Bool("tail", r.options.Tail),
	)

	if r.options.Tail {
		return r.runTail(ctx, client, query)
	}
	return r.runOnce(ctx, client, query)
}

// runOnce fetches the matching entries a single time and exits.
func (r *FetchRunner) runOnce(ctx context.Context, lister stackdriver.EntryLister, query filter.Query) error {
	start := time.Now()

	count, err := lister.List(ctx, query.String(), r.printer.Emit)
	if err != nil {
		return err
	}

	r.logger.Info("fetch_complete",
		logging.Count(count),
		logging.Duration(time.Since(start)),
	)

	// a named-instance query that matches nothing gets a diagnostic, not
	// silent empty output: the name is likely wrong
	if count == 0 && len(query.Instances) > 0 {
		return cliErrors.NewNoEntriesError(query.Instances)
	}

	return nil
}

// runTail streams new entries until interrupted.
func (r *FetchRunner) runTail(ctx context.Context, lister stackdriver.EntryLister, query filter.Query) error {
	tailCfg := &tailer.Config{
		Instances:    query.Instances,
		From:         query.From,
		PollInterval: r.options.PollInterval,
		Logger:       r.logger,
	}

	t, err := tailer.New(tailCfg, lister, r.printer)
	if err != nil {
		return err
	}

	return t.Run(ctx)
}

// buildQuery validates names and resolves the time window.
func (r *FetchRunner) buildQuery() (filter.Query, error) {
	query := filter.Query{Instances: r.options.Instances}

	if r.options.FromRaw != "" {
		from, err := timeparse.Parse("--from", r.options.FromRaw, r.options.UTC)
		if err != nil {
			return query, err
		}
		query.From = from
	} else {
		query.From = time.Now().Add(-defaultLookback)
	}

	if r.options.ToRaw != "" {
		to, err := timeparse.Parse("--to", r.options.ToRaw, r.options.UTC)
		if err != nil {
			return query, err
		}
		query.To = to
	}

	if err := query.Validate(); err != nil {
		return query, err
	}
	return query, nil
}

// formatter picks the output format: API JSON lines or colored log lines.
// Color only reaches an interactive stdout.
func (r *FetchRunner) formatter() output.Formatter {
	if r.options.APIFormat {
		return output.NewAPIFormatter()
	}
	color := r.options.OutputFile == "" && output.StdoutIsTerminal()
	return output.NewLineFormatter(color)
}

// Close releases resources.
func (r *FetchRunner) Close() error {
	if r.printer != nil {
		if err := r.printer.Close(); err != nil {
			return err
		}
	}
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			return err
		}
	}
	return logging.Close()
}

// RunFetchCommand executes the fetch with the given options.
func RunFetchCommand(opts *FetchOptions, cfg *config.Config) error {
	runner, err := NewFetchRunner(opts, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	return runner.Run(context.Background())
}
