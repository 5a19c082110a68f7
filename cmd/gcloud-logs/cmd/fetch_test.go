package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gcloud-logs/internal/config"
	cliErrors "gcloud-logs/internal/errors"
	"gcloud-logs/internal/filter"
	"gcloud-logs/internal/models"
	"gcloud-logs/internal/output"
)

// TestDefaultFetchOptions tests the default option values.
func TestDefaultFetchOptions(t *testing.T) {
	opts := DefaultFetchOptions()

	assert.False(t, opts.Tail)
	assert.False(t, opts.UTC)
	assert.False(t, opts.APIFormat)
	assert.Empty(t, opts.OutputFile)
	assert.Equal(t, config.DefaultPollInterval, opts.PollInterval)
	assert.Equal(t, config.DefaultPageSize, opts.PageSize)
}

func testRunner(opts *FetchOptions) *FetchRunner {
	return &FetchRunner{options: opts, logger: zap.NewNop()}
}

// TestBuildQueryDefaults gives a run without --from a one-minute lookback.
func TestBuildQueryDefaults(t *testing.T) {
	opts := DefaultFetchOptions()
	opts.Instances = []string{"web-1"}

	q, err := testRunner(opts).buildQuery()
	require.NoError(t, err)

	assert.Equal(t, []string{"web-1"}, q.Instances)
	assert.WithinDuration(t, time.Now().Add(-defaultLookback), q.From, 5*time.Second)
	assert.True(t, q.To.IsZero())
}

// TestBuildQueryWindow parses explicit --from/--to values.
func TestBuildQueryWindow(t *testing.T) {
	opts := DefaultFetchOptions()
	opts.Instances = []string{"web-1"}
	opts.FromRaw = "2024-01-15T09:00:00Z"
	opts.ToRaw = "2024-01-15T10:00:00Z"

	q, err := testRunner(opts).buildQuery()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), q.From.UTC())
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), q.To.UTC())
}

// TestBuildQueryRejectsBadInput fails before any API call.
func TestBuildQueryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FetchOptions)
		wantIs error
	}{
		{
			name:   "bad from",
			mutate: func(o *FetchOptions) { o.FromRaw = "yesterday" },
			wantIs: cliErrors.ErrTimeParse,
		},
		{
			name:   "bad to",
			mutate: func(o *FetchOptions) { o.ToRaw = "whenever" },
			wantIs: cliErrors.ErrTimeParse,
		},
		{
			name: "inverted window",
			mutate: func(o *FetchOptions) {
				o.FromRaw = "2024-01-15T10:00:00Z"
				o.ToRaw = "2024-01-15T09:00:00Z"
			},
			wantIs: cliErrors.ErrInvalidWindow,
		},
		{
			name:   "bad instance name",
			mutate: func(o *FetchOptions) { o.Instances = []string{"Not_Valid"} },
			wantIs: cliErrors.ErrInvalidInstanceName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultFetchOptions()
			opts.Instances = []string{"web-1"}
			tt.mutate(opts)

			_, err := testRunner(opts).buildQuery()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}

// stubLister serves a canned entry list without touching the network.
type stubLister struct {
	entries []*models.Entry
}

func (s *stubLister) List(_ context.Context, _ string, fn func(*models.Entry) error) (int, error) {
	for i, e := range s.entries {
		if err := fn(e); err != nil {
			return i, err
		}
	}
	return len(s.entries), nil
}

func testPrinter(t *testing.T) *output.Printer {
	t.Helper()
	printer, err := output.NewPrinter(filepath.Join(t.TempDir(), "out.log"), output.NewLineFormatter(false), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = printer.Close() })
	return printer
}

// TestRunOnceNoMatchesIsAnError makes a named-instance query with zero hits
// fail instead of printing nothing: the name is likely misspelled.
func TestRunOnceNoMatchesIsAnError(t *testing.T) {
	r := testRunner(DefaultFetchOptions())
	r.printer = testPrinter(t)

	named := filter.Query{
		Instances: []string{"web-1"},
		From:      time.Now().Add(-time.Minute),
	}
	err := r.runOnce(context.Background(), &stubLister{}, named)
	require.Error(t, err)
	assert.ErrorIs(t, err, cliErrors.ErrNoEntries)
	assert.Contains(t, err.Error(), "web-1")
}

// TestRunOnceEmptyIsFineWithoutNames lets an all-instances query come back
// empty without complaint.
func TestRunOnceEmptyIsFineWithoutNames(t *testing.T) {
	r := testRunner(DefaultFetchOptions())
	r.printer = testPrinter(t)

	unnamed := filter.Query{From: time.Now().Add(-time.Minute)}
	assert.NoError(t, r.runOnce(context.Background(), &stubLister{}, unnamed))
}

// TestRunOnceEmitsWhatTheAPIReturns pushes entries through to the printer.
func TestRunOnceEmitsWhatTheAPIReturns(t *testing.T) {
	r := testRunner(DefaultFetchOptions())
	r.printer = testPrinter(t)

	lister := &stubLister{entries: []*models.Entry{
		{Timestamp: time.Now(), InsertID: "one", TextPayload: "hello"},
		{Timestamp: time.Now(), InsertID: "two", TextPayload: "world"},
	}}
	named := filter.Query{
		Instances: []string{"web-1"},
		From:      time.Now().Add(-time.Minute),
	}
	require.NoError(t, r.runOnce(context.Background(), lister, named))
	assert.Equal(t, int64(2), r.printer.Count())
}

// TestRootFlagsExclusive keeps --to and --tail mutually exclusive, as in
// the original CLI.
func TestRootFlagsExclusive(t *testing.T) {
	rootCmd.SetArgs([]string{"web-1", "--tail", "--to", "2024-01-15T10:00:00Z"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
	rootCmd.SetArgs(nil)
}
