package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// EncodeCmd converts TSV vectors into the binary embedding format
var EncodeCmd = &cobra.Command{
	Use:   "encode <input.tsv>",
	Short: "Encode TSV vectors as a binary embedding stream",
	Long: `Read lines of "text<TAB>v1 v2 ..." and write the binary embedding format.

Use --sort to order records by text so the output is valid merge input.

Examples:
  jcore encode vectors.tsv -o vectors.bin --sort
  cat vectors.tsv | jcore encode - -o - > vectors.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := runEncode(encodeOptions{input: args[0], output: encodeOutput, sort: encodeSort},
			cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if encodeOutput != stdio {
			fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("Encoded %d records into %s", n, encodeOutput))
		}
		return nil
	},
}

var (
	encodeOutput string
	encodeSort   bool
)

func init() {
	EncodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "Output file (- for stdout)")
	EncodeCmd.Flags().BoolVar(&encodeSort, "sort", false, "Sort records by text before writing")
	EncodeCmd.MarkFlagRequired("output")
}

type encodeOptions struct {
	input  string
	output string
	sort   bool
}

func runEncode(opts encodeOptions, stdin io.Reader, stdout io.Writer) (int, error) {
	in, err := openInput(opts.input, stdin)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	records, err := readTSV(in)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", opts.input)
	}
	if opts.sort {
		// byte order matches the merge order of the binary format
		sort.SliceStable(records, func(i, j int) bool { return records[i].Text < records[j].Text })
	}

	out, err := createOutput(opts.output, stdout)
	if err != nil {
		return 0, err
	}
	enc := embedding.NewEncoder(out)
	for _, rec := range records {
		if err := enc.Write(rec); err != nil {
			out.Close()
			return enc.Count(), errors.Wrapf(err, "failed to write %s", opts.output)
		}
	}
	if err := enc.Flush(); err != nil {
		out.Close()
		return enc.Count(), errors.Wrapf(err, "failed to flush %s", opts.output)
	}
	if err := out.Close(); err != nil {
		return enc.Count(), errors.Wrapf(err, "failed to close %s", opts.output)
	}

	logger.Logger.Debugw("Encoded embeddings",
		logger.FieldFile, opts.output,
		logger.FieldCount, enc.Count())
	return enc.Count(), nil
}
