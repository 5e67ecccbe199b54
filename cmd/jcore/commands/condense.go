package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/julielab/jcore/condensed"
	"github.com/julielab/jcore/logger"
)

// CondenseCmd cuts marker annotations out of a document text
var CondenseCmd = &cobra.Command{
	Use:   "condense",
	Short: "Cut marker annotations out of a document text",
	Long: `Remove the text covered by marker annotations (by default
de.julielab.jcore.types.InternalReference) and print the condensed text.

Cut characters directly next to a marker are removed with it, and a
whitespace left dangling by a cut is collapsed.

With --offsets, every remaining annotation is listed with its span in the
original and in the condensed text.

Examples:
  jcore condense --types types.yaml --doc doc.yaml
  jcore condense --types types.yaml --doc doc.yaml --marker jcore.Footnote --cut ",;" --offsets`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := condenseOptions{
			typesPath:   condenseTypes,
			docPath:     condenseDoc,
			markerTypes: cfg.Condense.MarkerTypes,
			cut:         cfg.Condense.CutCharacters,
			collapse:    cfg.Condense.CollapseWhitespace,
			offsets:     condenseOffsets,
		}
		if cmd.Flags().Changed("marker") {
			opts.markerTypes = condenseMarkers
		}
		if cmd.Flags().Changed("cut") {
			opts.cut = condenseCut
		}
		if cmd.Flags().Changed("collapse") {
			opts.collapse = condenseCollapse
		}
		return runCondense(opts, cmd.OutOrStdout())
	},
}

var (
	condenseTypes    string
	condenseDoc      string
	condenseMarkers  []string
	condenseCut      string
	condenseCollapse bool
	condenseOffsets  bool
)

func init() {
	CondenseCmd.Flags().StringVar(&condenseTypes, "types", "", "Type system descriptor (YAML)")
	CondenseCmd.Flags().StringVar(&condenseDoc, "doc", "", "Document (YAML)")
	CondenseCmd.Flags().StringSliceVar(&condenseMarkers, "marker", nil, "Marker annotation types to cut (default from condense.marker_types)")
	CondenseCmd.Flags().StringVar(&condenseCut, "cut", "", "Characters removed next to a cut (default from condense.cut_characters)")
	CondenseCmd.Flags().BoolVar(&condenseCollapse, "collapse", true, "Collapse whitespace left by a cut (default from condense.collapse_whitespace)")
	CondenseCmd.Flags().BoolVar(&condenseOffsets, "offsets", false, "List remaining annotations with original and condensed spans")
}

type condenseOptions struct {
	typesPath   string
	docPath     string
	markerTypes []string
	cut         string
	collapse    bool
	offsets     bool
}

func runCondense(opts condenseOptions, stdout io.Writer) error {
	doc, err := loadDocument(opts.typesPath, opts.docPath)
	if err != nil {
		return err
	}

	var condOpts []condensed.Option
	if opts.cut != "" {
		condOpts = append(condOpts, condensed.WithCutCharacters([]rune(opts.cut)...))
	}
	if opts.collapse {
		condOpts = append(condOpts, condensed.WithWhitespaceCollapse())
	}
	markers := doc.Annotations(opts.markerTypes...)
	text := condensed.FromMarkers(doc.Text(), markers, opts.markerTypes, condOpts...)

	logger.ComponentLogger("condense").Debugw("Condensed document",
		logger.FieldFile, opts.docPath,
		logger.FieldCount, len(markers),
		logger.FieldSize, text.Len())

	if _, err := fmt.Fprintln(stdout, text.String()); err != nil {
		return err
	}
	if !opts.offsets {
		return nil
	}

	isMarker := make(map[string]bool, len(opts.markerTypes))
	for _, t := range opts.markerTypes {
		isMarker[t] = true
	}
	runes := []rune(text.String())
	var rows [][]string
	for _, a := range doc.Annotations() {
		if len(isMarker) == 0 || isMarker[a.TypeName()] {
			continue
		}
		begin, end := text.CondensedOffset(a.Begin()), text.CondensedOffset(a.End())
		covered := ""
		if begin < end && end <= len(runes) {
			covered = string(runes[begin:end])
		}
		rows = append(rows, []string{
			a.ID(),
			a.TypeName(),
			fmt.Sprintf("[%d,%d)", a.Begin(), a.End()),
			fmt.Sprintf("[%d,%d)", begin, end),
			covered,
		})
	}
	return renderTable(stdout, []string{"ID", "Type", "Original", "Condensed", "Text"}, rows)
}
