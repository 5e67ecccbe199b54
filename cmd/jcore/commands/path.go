package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/julielab/jcore/cas"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
	"github.com/julielab/jcore/logger"
)

// PathCmd evaluates a feature path over the structures of a document
var PathCmd = &cobra.Command{
	Use:   "path <expression>",
	Short: "Evaluate a feature path over a document",
	Long: `Evaluate a feature path against every structure of a type (subtypes included).

Path syntax: /feature[index]/feature:function(), where index may be
negative and function is coveredText() or typeName().

With a replacements file (flag or featurepath.replacements_file) the
reached primitive values are replaced in the document before printing.

Examples:
  jcore path /resourceEntryList/entryId --types types.yaml --doc doc.yaml --type jcore.Gene
  jcore path /posTag[-1]/value --types types.yaml --doc doc.yaml --type jcore.Token
  jcore path /label --type jcore.Gene --types types.yaml --doc doc.yaml --replacements labels.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := pathOptions{
			expr:               args[0],
			typesPath:          pathTypes,
			docPath:            pathDoc,
			typeName:           pathType,
			replacementsFile:   cfg.FeaturePath.ReplacementsFile,
			replaceUnmapped:    cfg.FeaturePath.ReplaceUnmapped,
			defaultReplacement: cfg.FeaturePath.DefaultReplacement,
		}
		if cmd.Flags().Changed("replacements") {
			opts.replacementsFile = pathReplacements
		}
		if cmd.Flags().Changed("replace-unmapped") {
			opts.replaceUnmapped = pathReplaceUnmapped
		}
		if cmd.Flags().Changed("default") {
			opts.defaultReplacement = pathDefault
		}
		return runPath(opts, cmd.OutOrStdout())
	},
}

var (
	pathTypes           string
	pathDoc             string
	pathType            string
	pathReplacements    string
	pathReplaceUnmapped bool
	pathDefault         string
)

func init() {
	PathCmd.Flags().StringVar(&pathTypes, "types", "", "Type system descriptor (YAML)")
	PathCmd.Flags().StringVar(&pathDoc, "doc", "", "Document (YAML)")
	PathCmd.Flags().StringVar(&pathType, "type", "", "Evaluate on structures of this type")
	PathCmd.Flags().StringVar(&pathReplacements, "replacements", "", "key=value replacement file")
	PathCmd.Flags().BoolVar(&pathReplaceUnmapped, "replace-unmapped", false, "Replace values missing from the replacement file")
	PathCmd.Flags().StringVar(&pathDefault, "default", "", "Replacement for unmapped values")
	PathCmd.MarkFlagRequired("type")
}

type pathOptions struct {
	expr               string
	typesPath          string
	docPath            string
	typeName           string
	replacementsFile   string
	replaceUnmapped    bool
	defaultReplacement string
}

type identified interface{ ID() string }

func runPath(opts pathOptions, stdout io.Writer) error {
	ctx := logger.WithDocumentID(logger.WithComponent(context.Background(), "featurepath"), opts.docPath)

	var fpOpts []featurepath.Option
	var sess *featurepath.Session
	if opts.replacementsFile != "" {
		table, err := featurepath.LoadReplacements(opts.replacementsFile,
			featurepath.ReplaceUnmapped(opts.replaceUnmapped),
			featurepath.DefaultValue(opts.defaultReplacement))
		if err != nil {
			return err
		}
		fpOpts = append(fpOpts, featurepath.WithReplacements(table))
		sess = featurepath.NewSession()
		ctx = logger.WithSessionID(ctx, sess.ID())
	}
	log := logger.LoggerFromContext(ctx)
	fp, err := featurepath.New(opts.expr, append(fpOpts, featurepath.WithLogger(log))...)
	if err != nil {
		return err
	}

	doc, err := loadDocument(opts.typesPath, opts.docPath)
	if err != nil {
		return err
	}
	structures, err := doc.Select(opts.typeName)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(structures))
	for _, fs := range structures {
		value, err := fp.ValueAsString(sess, fs)
		if err != nil {
			if errors.IsConfigurationError(err) {
				return errors.Wrapf(err, "feature path %s", opts.expr)
			}
			return err
		}
		id := ""
		if s, ok := fs.(identified); ok {
			id = s.ID()
		}
		rows = append(rows, []string{id, fs.Type().Name(), coveredText(fs), value})
	}

	if sess != nil {
		log.Debugw("Replaced values",
			logger.FieldFeaturePath, opts.expr,
			logger.FieldCount, sess.Len())
	}
	return renderTable(stdout, []string{"ID", "Type", "Text", "Value"}, rows)
}

func coveredText(fs featurepath.FeatureStructure) string {
	if a, ok := fs.(*cas.Annotation); ok {
		return a.CoveredText()
	}
	return ""
}
