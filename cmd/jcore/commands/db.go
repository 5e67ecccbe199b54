package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/julielab/jcore/embedstore"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// DbCmd represents the db (embedding store) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the embedding store",
	Long: `db - Manage the SQLite embedding store

The store keeps one centroid per text. Importing a stream adds each record
to the centroid of its text; exporting writes every centroid, sorted by
text, in the binary embedding format.

Examples:
  jcore db import part-0.bin part-1.bin    # Add streams to the store
  jcore db export -o centroids.bin         # Write all centroids
  jcore db get BRCA1                       # Show one centroid
  jcore db stats                           # Show store statistics`,
}

var dbImportCmd = &cobra.Command{
	Use:   "import <input>...",
	Short: "Add binary embedding streams to the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *embedstore.Store) error {
			return runDbImport(cmd.Context(), store, args, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all centroids as a binary embedding stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *embedstore.Store) error {
			return runDbExport(cmd.Context(), store, dbExportOutput, cmd.OutOrStdout())
		})
	},
}

var dbGetCmd = &cobra.Command{
	Use:   "get <text>",
	Short: "Show the centroid stored for a text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *embedstore.Store) error {
			return runDbGet(cmd.Context(), store, args[0], cmd.OutOrStdout())
		})
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *embedstore.Store) error {
			return runDbStats(cmd.Context(), store, cmd.OutOrStdout())
		})
	},
}

var (
	dbPath         string
	dbExportOutput string
)

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default from database.path)")
	dbExportCmd.Flags().StringVarP(&dbExportOutput, "output", "o", "", "Output file (- for stdout)")
	dbExportCmd.MarkFlagRequired("output")

	DbCmd.AddCommand(dbImportCmd)
	DbCmd.AddCommand(dbExportCmd)
	DbCmd.AddCommand(dbGetCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

// withStore opens the configured database and hands a store over it to fn.
func withStore(cmd *cobra.Command, fn func(*embedstore.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := dbPath
	if path == "" {
		path = cfg.GetDatabasePath()
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputDBStats) {
		fmt.Fprintln(cmd.ErrOrStderr(), pterm.Info.Sprintf("Database: %s", path))
	}
	database, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(embedstore.New(database, embedstore.WithBufferSize(cfg.GetBufferSize())))
}

func runDbImport(ctx context.Context, store *embedstore.Store, paths []string, stdin io.Reader, stdout io.Writer) error {
	total := 0
	for _, path := range paths {
		in, err := openInput(path, stdin)
		if err != nil {
			return err
		}
		res, err := store.Import(ctx, in, path)
		in.Close()
		if err != nil {
			return errors.Wrapf(err, "failed to import %s", path)
		}
		total += res.Records
		fmt.Fprintln(stdout, pterm.Info.Sprintf("%s: %d records (import %s)", path, res.Records, res.ID))
	}
	fmt.Fprintln(stdout, pterm.Success.Sprintf("Imported %d records from %d files", total, len(paths)))
	return nil
}

func runDbExport(ctx context.Context, store *embedstore.Store, output string, stdout io.Writer) error {
	out, err := createOutput(output, stdout)
	if err != nil {
		return err
	}
	n, err := store.Export(ctx, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "failed to close %s", output)
	}
	if err != nil {
		return errors.Wrap(err, "export failed")
	}
	logger.Logger.Debugw("Exported centroids", logger.FieldFile, output, logger.FieldCount, n)
	if output != stdio {
		fmt.Fprintln(stdout, pterm.Success.Sprintf("Exported %d centroids to %s", n, output))
	}
	return nil
}

func runDbGet(ctx context.Context, store *embedstore.Store, text string, stdout io.Writer) error {
	rec, count, err := store.Get(ctx, text)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return errors.WithHint(err, "import a stream containing this text with 'jcore db import'")
		}
		return err
	}
	return renderTable(stdout, []string{"Text", "Vectors", "Dim", "Centroid"}, [][]string{
		{rec.Text, strconv.Itoa(count), strconv.Itoa(len(rec.Vector)), "[" + formatVector(rec.Vector) + "]"},
	})
}

func runDbStats(ctx context.Context, store *embedstore.Store, stdout io.Writer) error {
	st, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	last := "never"
	if !st.LastImport.IsZero() {
		last = st.LastImport.Format("2006-01-02 15:04:05")
	}
	return renderTable(stdout, []string{"Metric", "Value"}, [][]string{
		{"Texts", strconv.Itoa(st.Texts)},
		{"Vectors", strconv.Itoa(st.Vectors)},
		{"Dimensions", strconv.Itoa(st.Dimensions)},
		{"Imports", strconv.Itoa(st.Imports)},
		{"Last import", last},
	})
}
