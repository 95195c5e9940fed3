package models

import (
	"encoding/json"
	"strings"

	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
)

// ColumnName identifies a column. It is never empty or whitespace only.
type ColumnName string

// NewColumnName validates and returns a column name
func NewColumnName(name string) (ColumnName, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.NewInvalidDatasetError("column name cannot be empty")
	}
	return ColumnName(name), nil
}

// String returns the raw column name
func (c ColumnName) String() string {
	return string(c)
}

// ColumnType is the inferred type of a column
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeDatetime    ColumnType = "datetime"
)

// ParseColumnType converts a string into a known ColumnType
func ParseColumnType(s string) (ColumnType, error) {
	t := ColumnType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate reports UnsupportedType for anything outside the three known types
func (t ColumnType) Validate() error {
	switch t {
	case ColumnTypeNumeric, ColumnTypeCategorical, ColumnTypeDatetime:
		return nil
	default:
		return errors.NewUnsupportedTypeError("column type '" + string(t) + "'")
	}
}

// UnmarshalJSON rejects unknown column types
func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColumnType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Row maps column names to raw cell values. An absent key is a missing cell.
type Row map[ColumnName]string

var nullTokens = func() map[string]struct{} {
	m := make(map[string]struct{}, len(constants.NullTokens))
	for _, tok := range constants.NullTokens {
		m[tok] = struct{}{}
	}
	return m
}()

// IsMissing reports whether a raw cell value counts as missing
func IsMissing(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// Value returns the trimmed cell value and false when the cell is missing
func (r Row) Value(col ColumnName) (string, bool) {
	raw, ok := r[col]
	if !ok || IsMissing(raw) {
		return "", false
	}
	return strings.TrimSpace(raw), true
}
