package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gcloud-logs/internal/config"
	cliErrors "gcloud-logs/internal/errors"
	"gcloud-logs/internal/logging"
	"gcloud-logs/internal/output"
	"gcloud-logs/internal/replay"
)

// replayCmd re-prints a capture written by --api output through the line
// formatter, so a saved JSONL file reads like a live fetch.
var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Pretty-print a previously captured --api JSONL file",
	Long: `Reads a capture file produced by 'gcloud-logs --api -o FILE' and prints
its entries as colored log lines. With --follow, keeps reading as another
process appends to the file, like tail -f.

Examples:
  gcloud-logs replay capture.jsonl
  gcloud-logs replay capture.jsonl --follow`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		follow, _ := c.Flags().GetBool("follow")
		outputFile, _ := c.Flags().GetString("output")

		return RunReplayCommand(args[0], follow, outputFile, cfg)
	},
	SilenceUsage: true,
}

func init() {
	replayCmd.Flags().Bool("follow", false, "keep reading as the capture file grows")
	replayCmd.Flags().StringP("output", "o", "", "write results to a file instead of standard output")
}

// RunReplayCommand executes the replay.
func RunReplayCommand(path string, follow bool, outputFile string, cfg *config.Config) error {
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
		return cliErrors.NewConfigInvalidError("failed to set up diagnostics", err)
	}
	defer func() { _ = logging.Close() }()

	logger := logging.With(
		zap.String("command", "replay"),
		logging.Path(path),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logger.Info("received_signal", zap.String("signal", sig.String()))
		cancel()
	}()

	color := outputFile == "" && output.StdoutIsTerminal()
	printer, err := output.NewPrinter(outputFile, output.NewLineFormatter(color), logger)
	if err != nil {
		return err
	}
	defer func() { _ = printer.Close() }()

	reader := replay.New(path, follow, logger)
	if err := reader.Read(ctx, printer); err != nil {
		return err
	}

	logger.Info("replay_complete", logging.Count(int(printer.Count())))
	return nil
}
