package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	streamwalk "github.com/TFMV/streamwalk/internal/walk"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "streamwalk [flags] [path]",
	Short: "Stream a directory tree with bounded depth and concurrency",
	Long: `streamwalk lists everything below a directory as a stream. Directory reads
run concurrently up to --concurrency, at most --high-water-mark entries are
buffered ahead of the output, and --depth bounds how far the walk descends.

Examples:
  streamwalk /srv/data
  streamwalk --depth=2 --with-dirent --format=json /srv/data
  streamwalk --limit=100 --concurrency=32 /
  streamwalk --encoding=base64url --nfc ~/Music`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		cfg, err := loadWalkConfig()
		if err != nil {
			return err
		}
		return runWalk(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, cfg)
	},
}

// Execute runs the command tree. Canceling ctx cancels a walk in progress.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(version))
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.streamwalk.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default is ./.env when present)")

	// Flags
	rootCmd.Flags().IntP("concurrency", "c", 16, "Maximum simultaneous directory reads (0 is unbounded)")
	rootCmd.Flags().Int("high-water-mark", 256, "Maximum entries buffered ahead of the output (0 is unbounded)")
	rootCmd.Flags().IntP("depth", "d", 0, "Maximum depth; children of the root are depth 1 (0 is unbounded)")
	rootCmd.Flags().Bool("with-dirent", false, "Emit depth and type with every path")
	rootCmd.Flags().Bool("abort-on-error", false, "Stop at the first unreadable directory")
	rootCmd.Flags().String("format", "text", "Output format (text|json)")
	rootCmd.Flags().String("encoding", "utf8", "Path encoding (utf8|utf16le|latin1|base64|base64url|hex|binary)")
	rootCmd.Flags().Bool("nfc", false, "Normalize paths to Unicode NFC before encoding")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().Bool("silent", false, "Disable all output except errors")
	rootCmd.Flags().String("log-level", "error", "Log level (error|warn|info|debug)")
	rootCmd.Flags().Bool("progress", false, "Show progress updates on stderr")
	rootCmd.Flags().Int("limit", 0, "Stop after this many entries (0 is no limit)")
	rootCmd.Flags().Duration("timeout", 0, "Abandon the walk after this duration (e.g. 30s)")

	// Bind flags to viper
	for _, name := range []string{
		"concurrency", "high-water-mark", "depth", "with-dirent", "abort-on-error",
		"format", "encoding", "nfc", "verbose", "silent", "log-level", "progress",
		"limit", "timeout",
	} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// runWalk streams root to out according to cfg. Diagnostics go to errOut.
func runWalk(ctx context.Context, out, errOut io.Writer, root string, cfg walkConfig) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger := streamwalk.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	opts := streamwalk.Options{
		Concurrency:   cfg.Concurrency,
		HighWaterMark: cfg.HighWaterMark,
		MaxDepth:      cfg.Depth,
		WithDirent:    cfg.WithDirent,
		AbortOnError:  cfg.AbortOnError,
		Source:        cfg.Source,
		Logger:        logger,
	}
	if cfg.Progress {
		opts.Progress = func(stats streamwalk.Stats) {
			fmt.Fprintf(errOut, "\rEntries: %d, directories listed: %d, errors: %d, %.0f entries/s",
				stats.EntriesEmitted, stats.DirsExpanded, stats.ErrorCount, stats.EntriesPerSec)
		}
	}

	p := newPrinter(out, cfg)
	stream := streamwalk.WalkAny(ctx, root, opts)

	var walkErr error
	count := 0
	for {
		if cfg.Limit > 0 && count >= cfg.Limit {
			logger.Debug("limit reached, canceling walk", zap.Int("limit", cfg.Limit))
			walkErr = stream.Cancel(context.WithoutCancel(ctx))
			break
		}
		item, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			walkErr = err
			break
		}
		if !cfg.Silent {
			if err := p.print(item); err != nil {
				_ = stream.Cancel(context.WithoutCancel(ctx))
				return err
			}
		}
		count++
	}

	<-stream.Done()
	if cfg.Progress {
		fmt.Fprintln(errOut)
	}
	if err := p.flush(); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	return reportWalkError(errOut, root, walkErr)
}

// reportWalkError prints collected failures and returns the error that decides
// the exit status.
func reportWalkError(errOut io.Writer, root string, err error) error {
	if err == nil {
		return nil
	}

	var agg *streamwalk.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			fmt.Fprintf(errOut, "%v\n", e)
		}
		return fmt.Errorf("walk of %s finished with %d unreadable directories", root, len(agg.Errors))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("walk of %s timed out: %w", root, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("walk of %s interrupted: %w", root, err)
	}
	return fmt.Errorf("walk of %s failed: %w", root, err)
}
