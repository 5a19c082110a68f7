// Package cmd provides the CLI commands for gcloud-logs.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gcloud-logs/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the whole CLI surface of the tool: machine names as positional
// arguments, one-shot fetch by default, --tail to stream.
var rootCmd = &cobra.Command{
	Use:   "gcloud-logs [MACHINE_NAME]...",
	Short: "Pull and tail Stackdriver logs for GCE instances",
	Long: `Downloads and tails machine logs from Google Cloud Logging.

With machine names, only entries from those instances are fetched; without,
all GCE instances in the project match. By default the existing entries in
the window are printed once; with --tail, new entries are streamed until
interrupted.

This tool uses your ambient gcloud credentials. Log in with
'gcloud auth application-default login' and set a default project before
launching it for the first time.

Examples:
  gcloud-logs web-1 web-2
  gcloud-logs web-1 --from "2024-01-15 09:00" --to "2024-01-15 10:00"
  gcloud-logs worker-3 --tail
  gcloud-logs --tail --api -o capture.jsonl`,
	Version: "0.1.0",
	Args:    cobra.ArbitraryArgs,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		opts := fetchOptionsFromFlags(c, args, cfg)
		return RunFetchCommand(opts, cfg)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/gcloud-logs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostics on stderr")

	rootCmd.Flags().String("from", "", "start pulling logs from this date and time (default: 1 minute ago)")
	rootCmd.Flags().String("to", "", "pull logs until this date and time")
	rootCmd.Flags().Bool("tail", false, "stream new logs to output, like the 'tail' command")
	rootCmd.Flags().Bool("utc", false, "treat --from/--to values without a timezone as UTC instead of local time")
	rootCmd.Flags().StringP("output", "o", "", "write results to a file instead of standard output")
	rootCmd.Flags().Bool("api", false, "output the API's JSON representation instead of log lines")
	rootCmd.Flags().String("project", "", "GCP project ID (default: config, GOOGLE_CLOUD_PROJECT, or gcloud credentials)")
	rootCmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "wait between tail polls")
	rootCmd.Flags().Int("page-size", config.DefaultPageSize, "log entries per API request")

	rootCmd.MarkFlagsMutuallyExclusive("to", "tail")

	rootCmd.AddCommand(replayCmd)
}

// fetchOptionsFromFlags merges flags over config-file defaults. A flag the
// user did not set falls back to the config value.
func fetchOptionsFromFlags(c *cobra.Command, args []string, cfg *config.Config) *FetchOptions {
	opts := DefaultFetchOptions()
	opts.Instances = args

	opts.FromRaw, _ = c.Flags().GetString("from")
	opts.ToRaw, _ = c.Flags().GetString("to")
	opts.Tail, _ = c.Flags().GetBool("tail")
	opts.UTC, _ = c.Flags().GetBool("utc")
	opts.OutputFile, _ = c.Flags().GetString("output")
	opts.APIFormat, _ = c.Flags().GetBool("api")

	opts.Project, _ = c.Flags().GetString("project")
	if opts.Project == "" {
		opts.Project = cfg.Project
	}

	opts.PollInterval, _ = c.Flags().GetDuration("poll-interval")
	if !c.Flags().Changed("poll-interval") && cfg.PollInterval > 0 {
		opts.PollInterval = cfg.PollInterval
	}

	opts.PageSize, _ = c.Flags().GetInt("page-size")
	if !c.Flags().Changed("page-size") && cfg.PageSize > 0 {
		opts.PageSize = cfg.PageSize
	}

	return opts
}

// defaultLookback is how far back a run without --from reaches.
const defaultLookback = time.Minute
