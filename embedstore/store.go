// Package embedstore persists embedding centroids in SQLite. Each text keeps
// a running vector sum and count, so records can be added one at a time and
// the centroid read back at any point.
package embedstore

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/julielab/jcore/db"
	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// Query constants
const (
	SelectSumQuery = `
		SELECT dimension, vector_sum, count FROM embeddings WHERE text = ?`

	UpsertQuery = `
		INSERT INTO embeddings (text, dimension, vector_sum, count, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(text) DO UPDATE SET
			dimension = excluded.dimension,
			vector_sum = excluded.vector_sum,
			count = excluded.count,
			updated_at = excluded.updated_at`

	ExportQuery = `
		SELECT text, vector_sum, count FROM embeddings ORDER BY text`

	CountQuery = `
		SELECT COUNT(*) FROM embeddings`

	StatsQuery = `
		SELECT COUNT(*), COALESCE(SUM(count), 0), COUNT(DISTINCT dimension) FROM embeddings`

	ImportsQuery = `
		SELECT COUNT(*) FROM imports`

	LastImportQuery = `
		SELECT imported_at FROM imports ORDER BY imported_at DESC LIMIT 1`

	InsertImportQuery = `
		INSERT INTO imports (id, source, records) VALUES (?, ?, ?)`
)

// Store reads and writes centroids. It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	logger     *zap.SugaredLogger
	bufferSize int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to the "embedstore" component logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBufferSize sets the read buffer size used by Import.
func WithBufferSize(n int) Option {
	return func(s *Store) { s.bufferSize = n }
}

// New returns a store over a migrated database.
func New(conn *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:         conn,
		logger:     logger.ComponentLogger("embedstore"),
		bufferSize: embedding.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats describes the stored data.
type Stats struct {
	Texts      int
	Vectors    int
	Dimensions int
	Imports    int
	LastImport time.Time
}

// ImportResult describes one Import call.
type ImportResult struct {
	ID      uuid.UUID
	Source  string
	Records int
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Put replaces whatever is stored for rec.Text with rec.Vector.
func (s *Store) Put(ctx context.Context, rec embedding.Record) error {
	return s.write(ctx, s.db, rec.Text, embedding.NewCentroid(rec.Vector, 1))
}

// Add folds rec.Vector into the centroid of rec.Text. The vector must have
// the dimension already stored for the text.
func (s *Store) Add(ctx context.Context, rec embedding.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "begin add")
	}
	if err := s.add(ctx, tx, rec); err != nil {
		tx.Rollback()
		return err
	}
	return s.wrap(tx.Commit(), "commit add")
}

// Get returns the centroid of text and the number of vectors behind it.
func (s *Store) Get(ctx context.Context, text string) (embedding.Record, int, error) {
	c, err := s.load(ctx, s.db, text)
	if err != nil {
		return embedding.Record{}, 0, err
	}
	if c == nil {
		return embedding.Record{}, 0, errors.NewNotFoundError("no embedding for %q", text)
	}
	return embedding.Record{Text: text, Vector: c.Mean()}, c.Count(), nil
}

// Import adds every record of r in one transaction and records the run.
func (s *Store) Import(ctx context.Context, r io.Reader, source string) (ImportResult, error) {
	res := ImportResult{ID: uuid.New(), Source: source}
	log := logger.ChildLogger(s.logger, "import_id", res.ID.String(), logger.FieldFile, source)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, s.wrap(err, "begin import")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	cursor := embedding.NewCursor(r, s.bufferSize)
	for {
		var rec embedding.Record
		rec, err = cursor.Next()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			err = errors.Wrapf(err, "failed to read %s", source)
			return res, err
		}
		if err = s.add(ctx, tx, rec); err != nil {
			return res, err
		}
		res.Records++
	}

	if _, err = tx.ExecContext(ctx, InsertImportQuery, res.ID.String(), source, res.Records); err != nil {
		err = s.wrap(err, "record import")
		return res, err
	}
	if err = tx.Commit(); err != nil {
		err = s.wrap(err, "commit import")
		return res, err
	}

	log.Infow("imported embeddings",
		logger.FieldCount, res.Records,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// Export writes the centroid of every text, ordered by text, so the output
// is valid merge input.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, ExportQuery)
	if err != nil {
		return 0, s.wrap(err, "query export")
	}
	defer rows.Close()

	enc := embedding.NewEncoder(w)
	for rows.Next() {
		var (
			text  string
			blob  []byte
			count int
		)
		if err := rows.Scan(&text, &blob, &count); err != nil {
			return enc.Count(), s.wrap(err, "scan export")
		}
		sum, err := embedding.UnmarshalVector(blob)
		if err != nil {
			return enc.Count(), errors.Wrapf(err, "corrupt vector for %q", text)
		}
		if err := enc.Write(embedding.Record{Text: text, Vector: embedding.NewCentroid(sum, count).Mean()}); err != nil {
			return enc.Count(), err
		}
	}
	if err := rows.Err(); err != nil {
		return enc.Count(), s.wrap(err, "iterate export")
	}
	return enc.Count(), enc.Flush()
}

// Count is the number of distinct texts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, CountQuery).Scan(&n); err != nil {
		return 0, s.wrap(err, "count embeddings")
	}
	return n, nil
}

// Stats summarises the store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, StatsQuery).Scan(&st.Texts, &st.Vectors, &st.Dimensions); err != nil {
		return st, s.wrap(err, "query stats")
	}
	if err := s.db.QueryRowContext(ctx, ImportsQuery).Scan(&st.Imports); err != nil {
		return st, s.wrap(err, "count imports")
	}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, LastImportQuery).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return st, s.wrap(err, "query last import")
	}
	if last.Valid {
		st.LastImport = last.Time
	}
	return st, nil
}

func (s *Store) add(ctx context.Context, q querier, rec embedding.Record) error {
	c, err := s.load(ctx, q, rec.Text)
	if err != nil {
		return err
	}
	if c == nil {
		c = &embedding.Centroid{}
	}
	if err := c.Add(rec.Vector); err != nil {
		return errors.Wrapf(err, "cannot add vector for %q", rec.Text)
	}
	return s.write(ctx, q, rec.Text, c)
}

// load returns nil, nil when text is not stored.
func (s *Store) load(ctx context.Context, q querier, text string) (*embedding.Centroid, error) {
	var (
		dim   int
		blob  []byte
		count int
	)
	err := q.QueryRowContext(ctx, SelectSumQuery, text).Scan(&dim, &blob, &count)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err, "load embedding")
	}
	sum, err := embedding.UnmarshalVector(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt vector for %q", text)
	}
	if len(sum) != dim {
		return nil, errors.Newf("stored vector for %q has %d values, expected %d", text, len(sum), dim)
	}
	return embedding.NewCentroid(sum, count), nil
}

func (s *Store) write(ctx context.Context, q querier, text string, c *embedding.Centroid) error {
	sum := c.Sum()
	if _, err := q.ExecContext(ctx, UpsertQuery, text, len(sum), embedding.MarshalVector(sum), c.Count()); err != nil {
		return s.wrap(err, "write embedding")
	}
	s.logger.Debugw("stored embedding",
		"text", text,
		logger.FieldCount, c.Count(),
		logger.FieldSize, len(sum))
	return nil
}

func (s *Store) wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	if db.IsDatabaseClosed(err) {
		return errors.Mark(errors.Wrap(err, what), db.ErrDatabaseClosed)
	}
	return errors.Wrap(err, what)
}
