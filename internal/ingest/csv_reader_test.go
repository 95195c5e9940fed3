package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

func newTestReader() *CSVReader {
	cr := NewCSVReader(logrus.New())
	cr.clock = func() time.Time { return time.Date(2024, 6, 1, 14, 0, 0, 0, time.FixedZone("CEST", 7200)) }
	cr.newID = func() string { return "ds-fixed" }
	return cr
}

func TestReadInfersSchema(t *testing.T) {
	input := "age,city,signup\n30,Paris,2024-01-05\n41,,2024-02-10\n,Lyon,2024-03-15\n"

	ds, err := newTestReader().Read(context.Background(), "users.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "ds-fixed", ds.ID)
	assert.Equal(t, "users.csv", ds.Filename)
	assert.Equal(t, []models.ColumnName{"age", "city", "signup"}, ds.Columns)
	assert.Equal(t, 3, ds.RowCount)
	assert.Equal(t, 3, ds.ColumnCount)
	assert.Equal(t, int64(len(input)), ds.FileSize)
	assert.Equal(t, time.UTC, ds.UploadDate.Location())
	assert.Equal(t, 12, ds.UploadDate.Hour())

	assert.Equal(t, models.ColumnTypeNumeric, ds.Schema["age"])
	assert.Equal(t, models.ColumnTypeCategorical, ds.Schema["city"])
	assert.Equal(t, models.ColumnTypeDatetime, ds.Schema["signup"])

	_, ok := ds.Rows[1].Value("city")
	assert.False(t, ok)
}

func TestReadBlankHeaderCells(t *testing.T) {
	ds, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader(",score, \n1,2,3\n"))
	require.NoError(t, err)

	assert.Equal(t, []models.ColumnName{"Unnamed: 0", "score", "Unnamed: 2"}, ds.Columns)
}

func TestReadStripsByteOrderMark(t *testing.T) {
	ds, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader("\uFEFFid,v\n1,a\n"))
	require.NoError(t, err)

	assert.Equal(t, models.ColumnName("id"), ds.Columns[0])
}

func TestReadRejectsDuplicateHeaders(t *testing.T) {
	_, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader("a,b,a\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
	assert.Contains(t, err.Error(), `duplicate column name "a"`)
}

func TestReadPadsShortRows(t *testing.T) {
	ds, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader("a,b,c\n1,2\n4,5,6\n"))
	require.NoError(t, err)

	require.Len(t, ds.Rows, 2)
	_, ok := ds.Rows[0].Value("c")
	assert.False(t, ok)
	v, ok := ds.Rows[1].Value("c")
	assert.True(t, ok)
	assert.Equal(t, "6", v)
}

func TestReadRejectsLongRows(t *testing.T) {
	_, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader("a,b\n1,2\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadEmptyInput(t *testing.T) {
	_, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
}

func TestReadHeaderOnly(t *testing.T) {
	ds, err := newTestReader().Read(context.Background(), "x.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, ds.RowCount)
	assert.Equal(t, 2, ds.ColumnCount)
	assert.ElementsMatch(t, []models.ColumnName{"a", "b"}, ds.AllMissingColumns)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestReader().Read(ctx, "x.csv", strings.NewReader("a\n1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrJobCancelled))
}
