package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/schema"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

const (
	utf8BOM = "\uFEFF"

	// rows read between cancellation checks
	cancelCheckInterval = 1000
)

// CSVReader turns CSV input with a header row into a Dataset with an
// inferred schema
type CSVReader struct {
	logger     *logrus.Logger
	inferencer *schema.Inferencer
	clock      func() time.Time
	newID      func() string
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(logger *logrus.Logger) *CSVReader {
	if logger == nil {
		logger = logrus.New()
	}
	return &CSVReader{
		logger:     logger,
		inferencer: schema.NewInferencer(logger),
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

// Read parses r. Blank header cells are named "Unnamed: <index>", short
// rows are padded with missing cells and rows longer than the header are
// rejected.
func (cr *CSVReader) Read(ctx context.Context, filename string, r io.Reader) (*models.Dataset, error) {
	counter := &countingReader{r: r}
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewInvalidDatasetError("input has no header row")
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDataset, errors.CodeInvalidDataset, "failed to read CSV header")
	}

	columns, err := headerColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	for line := 2; ; line++ {
		if (line-2)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewCancelledError(err)
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeDataset, errors.CodeInvalidDataset, "failed to read CSV record")
		}

		if len(record) > len(columns) {
			return nil, errors.NewInvalidDatasetError(
				fmt.Sprintf("record on line %d has %d fields, header has %d", line, len(record), len(columns)))
		}

		row := make(models.Row, len(record))
		for i, value := range record {
			if value == "" {
				continue
			}
			row[columns[i]] = value
		}
		rows = append(rows, row)
	}

	dataset := &models.Dataset{
		ID:         cr.newID(),
		Filename:   filename,
		Columns:    columns,
		Rows:       rows,
		FileSize:   counter.n,
		UploadDate: cr.clock().UTC(),
	}
	cr.inferencer.Apply(dataset)

	cr.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"filename":   filename,
		"rows":       dataset.RowCount,
		"columns":    dataset.ColumnCount,
		"bytes":      dataset.FileSize,
	}).Info("Ingested CSV dataset")

	return dataset, nil
}

func headerColumns(header []string) ([]models.ColumnName, error) {
	columns := make([]models.ColumnName, len(header))
	seen := make(map[models.ColumnName]bool, len(header))

	for i, raw := range header {
		if i == 0 {
			raw = strings.TrimPrefix(raw, utf8BOM)
		}

		name, err := models.NewColumnName(raw)
		if err != nil {
			name = models.ColumnName(fmt.Sprintf(constants.UnnamedColumnFmt, i))
		}

		if seen[name] {
			return nil, errors.NewInvalidDatasetError(fmt.Sprintf("duplicate column name %q", name))
		}
		seen[name] = true
		columns[i] = name
	}

	return columns, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
