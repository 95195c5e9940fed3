package quality

import (
	"strconv"
	"strings"

	mathutil "github.com/inferloop/datadrift/internal/utils/math"
	"github.com/inferloop/datadrift/pkg/models"
)

// countDuplicates counts rows whose full ordered value tuple was already
// seen earlier in ingestion order. Present cells compare by their raw text,
// so " a" and "a" differ; missing cells compare equal whatever null token
// they hold.
func countDuplicates(ds *models.Dataset) models.DuplicateStats {
	seen := make(map[string]struct{}, len(ds.Rows))
	duplicates := 0

	for _, row := range ds.Rows {
		key := rowKey(row, ds.Columns)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}

	return models.DuplicateStats{
		TotalRows:           len(ds.Rows),
		UniqueRows:          len(seen),
		DuplicateCount:      duplicates,
		DuplicatePercentage: mathutil.Percent(duplicates, len(ds.Rows)),
	}
}

// rowKey length-prefixes every present value so that no two distinct
// tuples share a key; missing cells encode as a bare marker.
func rowKey(row models.Row, columns []models.ColumnName) string {
	var b strings.Builder
	for _, col := range columns {
		v, ok := row[col]
		if !ok || models.IsMissing(v) {
			b.WriteString("-|")
			continue
		}
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('|')
	}
	return b.String()
}
