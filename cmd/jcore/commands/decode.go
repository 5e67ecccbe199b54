package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// previewComponents is the number of vector components shown in table output
const previewComponents = 4

// DecodeCmd prints a binary embedding stream
var DecodeCmd = &cobra.Command{
	Use:   "decode <input.bin>",
	Short: "Print a binary embedding stream",
	Long: `Decode a binary embedding stream and print its records.

The tsv format is the input format of 'jcore encode', so
'jcore decode --format tsv a.bin | jcore encode - -o b.bin' round-trips.

Examples:
  jcore decode merged.bin
  jcore decode merged.bin --format tsv --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runDecode(decodeOptions{
			input:      args[0],
			format:     decodeFormat,
			limit:      decodeLimit,
			bufferSize: cfg.GetBufferSize(),
			full:       logger.ShouldOutput(verbosity(cmd), logger.OutputDataDump),
		}, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var (
	decodeFormat string
	decodeLimit  int
)

func init() {
	DecodeCmd.Flags().StringVar(&decodeFormat, "format", "table", "Output format: table, tsv")
	DecodeCmd.Flags().IntVar(&decodeLimit, "limit", 0, "Stop after this many records (0 = all)")
}

type decodeOptions struct {
	input      string
	format     string
	limit      int
	bufferSize int
	full       bool // whole vectors in table output
}

func runDecode(opts decodeOptions, stdin io.Reader, stdout io.Writer) error {
	if opts.format != "table" && opts.format != "tsv" {
		return errors.NewInvalidRequestError("unsupported format: %s (supported: table, tsv)", opts.format)
	}
	in, err := openInput(opts.input, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	cur := embedding.NewCursor(in, opts.bufferSize)
	var rows [][]string
	for opts.limit <= 0 || cur.Records() < opts.limit {
		rec, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "failed to decode %s", opts.input)
		}
		if opts.format == "tsv" {
			if err := writeTSV(stdout, rec); err != nil {
				return err
			}
			continue
		}
		vec := preview(rec.Vector)
		if opts.full {
			vec = "[" + formatVector(rec.Vector) + "]"
		}
		rows = append(rows, []string{rec.Text, strconv.Itoa(len(rec.Vector)), vec})
	}

	if opts.format == "table" {
		if err := renderTable(stdout, []string{"Text", "Dim", "Vector"}, rows); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d records\n", len(rows))
	}
	return nil
}

func preview(v []float64) string {
	if len(v) <= previewComponents {
		return "[" + formatVector(v) + "]"
	}
	return "[" + formatVector(v[:previewComponents]) + " ...]"
}
