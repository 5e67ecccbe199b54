package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// MergeCmd merges sorted binary embedding streams
var MergeCmd = &cobra.Command{
	Use:   "merge <input>...",
	Short: "Merge sorted embedding streams",
	Long: `Merge binary embedding streams, each sorted by text, into one sorted stream.

With grouping enabled (embeddings.group_by_text, default true) all records
sharing a text are replaced by a single record holding their mean vector.

Examples:
  jcore merge -o merged.bin part-0.bin part-1.bin
  jcore merge --group=false -o - part-*.bin > all.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := mergeOptions{
			inputs:      args,
			output:      mergeOutput,
			groupByText: cfg.Embeddings.GroupByText,
			bufferSize:  cfg.GetBufferSize(),
		}
		if cmd.Flags().Changed("group") {
			opts.groupByText = mergeGroup
		}
		if cmd.Flags().Changed("buffer-size") {
			opts.bufferSize = mergeBufferSize
		}

		stats, err := runMerge(opts, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if opts.output != stdio {
			fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("Merged %d records from %d inputs into %d records (%s)",
				stats.RecordsRead, stats.Inputs, stats.RecordsWritten, opts.output))
		}
		if logger.ShouldOutput(verbosity(cmd), logger.OutputTiming) {
			fmt.Fprintln(cmd.ErrOrStderr(), pterm.Info.Sprintf("Merge took %s", stats.Duration))
		}
		return nil
	},
}

var (
	mergeOutput     string
	mergeGroup      bool
	mergeBufferSize int
)

func init() {
	MergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file (- for stdout)")
	MergeCmd.Flags().BoolVar(&mergeGroup, "group", true, "Average records sharing a text (default from embeddings.group_by_text)")
	MergeCmd.Flags().IntVar(&mergeBufferSize, "buffer-size", embedding.DefaultBufferSize, "Read buffer per input in bytes")
	MergeCmd.MarkFlagRequired("output")
}

type mergeOptions struct {
	inputs      []string
	output      string
	groupByText bool
	bufferSize  int
}

func runMerge(opts mergeOptions, stdin io.Reader, stdout io.Writer) (embedding.MergeStats, error) {
	readers := make([]io.Reader, 0, len(opts.inputs))
	for _, path := range opts.inputs {
		r, err := openInput(path, stdin)
		if err != nil {
			return embedding.MergeStats{}, err
		}
		defer r.Close()
		readers = append(readers, r)
	}

	out, err := createOutput(opts.output, stdout)
	if err != nil {
		return embedding.MergeStats{}, err
	}

	merger := embedding.NewMerger(
		embedding.WithGroupByText(opts.groupByText),
		embedding.WithBufferSize(opts.bufferSize),
		embedding.WithLogger(logger.ComponentLogger("merge")),
	)
	stats, err := merger.Merge(readers, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "failed to close %s", opts.output)
	}
	if err != nil {
		return stats, errors.Wrap(err, "merge failed")
	}
	return stats, nil
}
