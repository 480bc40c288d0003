package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/TFMV/streamwalk/walk"
	"github.com/spf13/cobra"
)

var (
	// Watch command options
	watchEvents        []string
	watchRecursive     bool
	watchDepth         int
	watchConcurrency   int
	watchFormat        string
	watchPattern       string
	watchIgnore        string
	watchTimeout       time.Duration
	watchIncludeHidden bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for filesystem changes",
	Long: `Watch for filesystem changes and report files that are created, modified, or deleted.

With --recursive the tree is walked once to register every directory, and
directories created later are walked and registered as they appear.

Examples:
  streamwalk watch /path/to/watch
  streamwalk watch --events=create,modify /path/to/watch
  streamwalk watch --pattern="*.go" --format="{base} was {event} at {time}" /path/to/watch
  streamwalk watch --recursive --depth=3 /path/to/watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchDir := "."
		if len(args) > 0 {
			watchDir = args[0]
		}

		var events []walk.WatchEvent
		for _, e := range watchEvents {
			event, err := walk.ParseWatchEvent(e)
			if err != nil {
				return err
			}
			events = append(events, event)
		}

		opts := walk.WatchOptions{
			Events:        events,
			Recursive:     watchRecursive,
			Depth:         watchDepth,
			Concurrency:   watchConcurrency,
			Pattern:       watchPattern,
			IgnorePattern: watchIgnore,
			IncludeHidden: watchIncludeHidden,
			Timeout:       watchTimeout,
		}

		fmt.Fprintf(os.Stderr, "Watching %s for changes...\n", watchDir)
		fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit.")

		ctx := cmd.Context()
		var err error
		if watchFormat != "" {
			err = walk.WatchWithFormat(ctx, watchDir, opts, watchFormat)
		} else {
			err = walk.Watch(ctx, watchDir, opts, nil)
		}
		if err != nil {
			return fmt.Errorf("error watching directory: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Define flags for the watch command
	watchCmd.Flags().StringSliceVar(&watchEvents, "events", []string{}, "Events to watch for (create, modify, delete, rename, chmod)")
	watchCmd.Flags().BoolVar(&watchRecursive, "recursive", false, "Watch subdirectories recursively")
	watchCmd.Flags().IntVar(&watchDepth, "depth", 0, "Maximum depth of watched subdirectories (0 is unbounded)")
	watchCmd.Flags().IntVar(&watchConcurrency, "concurrency", 8, "Maximum simultaneous directory reads while registering")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Format string for output")
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "File pattern to match (e.g., *.go)")
	watchCmd.Flags().StringVar(&watchIgnore, "ignore", "", "File pattern to ignore")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Duration to watch before exiting (e.g., 1h, 30m)")
	watchCmd.Flags().BoolVar(&watchIncludeHidden, "include-hidden", false, "Include hidden files and directories")
}
