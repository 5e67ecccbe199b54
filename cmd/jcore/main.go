package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julielab/jcore/am"
	"github.com/julielab/jcore/cmd/jcore/commands"
	"github.com/julielab/jcore/logger"
)

var rootCmd = &cobra.Command{
	Use:   "jcore",
	Short: "jcore - feature paths, condensed texts and embedding streams",
	Long: `jcore - text-mining utilities for annotated documents.

Available commands:
  path     - Evaluate a feature path over a document
  condense - Cut marker annotations out of a document text
  encode   - Convert a TSV of text and vector into the binary embedding format
  decode   - Print a binary embedding stream
  merge    - Merge sorted embedding streams, optionally into centroids
  db       - Import, export and inspect the embedding store
  am       - Show and validate configuration ("I am")
  version  - Show version information

Examples:
  jcore path /resourceEntryList/entryId --types types.yaml --doc doc.yaml --type jcore.Gene
  jcore condense --types types.yaml --doc doc.yaml --offsets
  jcore merge -o centroids.bin shard-*.bin
  jcore db stats`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'am' output must stay clean of log lines
		if cmd.Parent() != nil && cmd.Parent().Name() == "am" {
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if !cmd.Flags().Changed("json-log") {
			if cfg, err := am.Load(); err == nil {
				jsonLog = cfg.Log.JSON
			}
		}
		if err := logger.InitializeWithVerbosity(jsonLog, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Logger.Debugw("Logger initialized", "verbosity", logger.VerbosityDescription(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON (default from log.json)")

	rootCmd.AddCommand(commands.PathCmd)
	rootCmd.AddCommand(commands.CondenseCmd)
	rootCmd.AddCommand(commands.EncodeCmd)
	rootCmd.AddCommand(commands.DecodeCmd)
	rootCmd.AddCommand(commands.MergeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
