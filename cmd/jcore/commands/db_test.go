package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/embedstore"
	"github.com/julielab/jcore/errors"
	jcoretest "github.com/julielab/jcore/internal/testing"
)

func TestDb_ImportExportStats(t *testing.T) {
	ctx := context.Background()
	store := embedstore.New(jcoretest.CreateTestDB(t))
	dir := t.TempDir()

	a := writeStream(t, dir, "a.bin",
		embedding.Record{Text: "brca1", Vector: []float64{1, 2}},
		embedding.Record{Text: "tp53", Vector: []float64{4, 4}},
	)
	b := writeStream(t, dir, "b.bin",
		embedding.Record{Text: "brca1", Vector: []float64{3, 6}},
	)

	var out bytes.Buffer
	require.NoError(t, runDbImport(ctx, store, []string{a, b}, nil, &out))
	assert.Contains(t, out.String(), "Imported 3 records from 2 files")

	out.Reset()
	require.NoError(t, runDbGet(ctx, store, "brca1", &out))
	line := row(t, out.String(), "brca1")
	assert.Contains(t, line, "[2 4]")

	out.Reset()
	require.NoError(t, runDbStats(ctx, store, &out))
	assert.Contains(t, row(t, out.String(), "Texts"), "2")
	assert.Contains(t, row(t, out.String(), "Vectors"), "3")
	assert.Contains(t, row(t, out.String(), "Imports"), "2")

	exported := filepath.Join(dir, "centroids.bin")
	out.Reset()
	require.NoError(t, runDbExport(ctx, store, exported, &out))
	assert.Contains(t, out.String(), "Exported 2 centroids")
	assert.Equal(t, []embedding.Record{
		{Text: "brca1", Vector: []float64{2, 4}},
		{Text: "tp53", Vector: []float64{4, 4}},
	}, readStream(t, exported))
}

func TestDb_EmptyStats(t *testing.T) {
	store := embedstore.New(jcoretest.CreateTestDB(t))

	var out bytes.Buffer
	require.NoError(t, runDbStats(context.Background(), store, &out))
	assert.Contains(t, row(t, out.String(), "Last import"), "never")
}

func TestDb_GetMissing(t *testing.T) {
	store := embedstore.New(jcoretest.CreateTestDB(t))

	err := runDbGet(context.Background(), store, "nothing", &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestDb_ImportTruncated(t *testing.T) {
	ctx := context.Background()
	store := embedstore.New(jcoretest.CreateTestDB(t))
	bad := writeFile(t, t.TempDir(), "bad.bin", "\x00\x00\x00\x03ab")

	err := runDbImport(ctx, store, []string{bad}, nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrIncompleteRecord))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
