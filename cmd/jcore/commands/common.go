package commands

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/julielab/jcore/am"
	"github.com/julielab/jcore/cas"
	"github.com/julielab/jcore/db"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// stdio names standard input or output in file arguments
const stdio = "-"

// verbosity is the -v count of the root command, 0 when unset.
func verbosity(cmd *cobra.Command) int {
	v, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return 0
	}
	return v
}

// loadConfig loads the am configuration for a command.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// openDatabase opens and migrates the embedding store database. An empty
// dbPath falls back to database.path from am config.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		path, err := am.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		dbPath = path
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// loadDocument reads a type system and a document annotated against it.
func loadDocument(typesPath, docPath string) (*cas.Document, error) {
	if typesPath == "" || docPath == "" {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("both a type system and a document are required"),
			"pass --types <types.yaml> and --doc <document.yaml>")
	}
	ts, err := cas.LoadTypeSystemFile(typesPath)
	if err != nil {
		return nil, err
	}
	return cas.LoadDocumentFile(ts, docPath)
}

// openInput opens path for reading, "-" meaning stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == stdio {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createOutput creates path for writing, "-" meaning stdout.
func createOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == stdio {
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}

// renderTable writes a header row and data rows as a pterm table.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
