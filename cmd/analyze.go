package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	streamwalk "github.com/TFMV/streamwalk/internal/walk"
	"github.com/spf13/cobra"
)

var (
	// Analyze command options
	analyzeOutputFormat  string
	analyzeOutputFile    string
	analyzeMaxDepth      int
	analyzeConcurrency   int
	analyzeIncludeHidden bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Summarize a directory tree",
	Long: `Walk a directory tree and report entry counts by type, depth and file extension,
together with every directory that could not be read.

Examples:
  streamwalk analyze /path/to/directory
  streamwalk analyze --max-depth=3 --output=json /path/to/directory
  streamwalk analyze --output-file=report.txt /path/to/directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzeDir := "."
		if len(args) > 0 {
			analyzeDir = args[0]
		}

		analyzer := streamwalk.NewAnalyzer(streamwalk.Options{
			Concurrency: analyzeConcurrency,
			MaxDepth:    analyzeMaxDepth,
			Logger:      streamwalk.NewLogger(streamwalk.ParseLogLevel(logLevelFlag(cmd))),
		})
		analyzer.SetIncludeHidden(analyzeIncludeHidden)

		result, err := analyzer.Analyze(cmd.Context(), analyzeDir)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		var output []byte
		switch analyzeOutputFormat {
		case "json":
			output, err = json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("error encoding results: %w", err)
			}
			output = append(output, '\n')
		case "text":
			output = []byte(result.String())
		default:
			return fmt.Errorf("invalid output format: %s", analyzeOutputFormat)
		}

		if analyzeOutputFile != "" {
			if err := os.WriteFile(analyzeOutputFile, output, 0644); err != nil {
				return fmt.Errorf("error saving results: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", analyzeOutputFile)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(output)
		return err
	},
}

// logLevelFlag returns the persistent --log-level of the root command.
func logLevelFlag(cmd *cobra.Command) string {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "error"
	}
	return level
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeOutputFormat, "output", "text", "Output format (text|json)")
	analyzeCmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "Write the report to a file")
	analyzeCmd.Flags().IntVar(&analyzeMaxDepth, "max-depth", 0, "Maximum depth to analyze (0 is unbounded)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 16, "Maximum simultaneous directory reads")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	analyzeCmd.Flags().String("log-level", "error", "Log level (error|warn|info|debug)")
}
