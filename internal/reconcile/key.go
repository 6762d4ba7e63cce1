package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	apperrors "sheetmatch/internal/errors"
)

// KeySeparator joins the per-column strings of a key.
const KeySeparator = " - "

// ErrIncompleteRow is returned by BuildKey when a selected column is null or missing.
var ErrIncompleteRow = errors.New("row has a null value in a selected column")

// Row maps a column name to a scalar cell value. A nil value, a NaN float
// and a missing column all count as null.
type Row map[string]any

// Stringify renders a cell value in its canonical string form. The boolean
// result is false when the value is null.
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return norm.NFC.String(x), true
	case []byte:
		return norm.NFC.String(string(x)), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.FormatInt(int64(x), 10), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		if math.IsNaN(float64(x)) {
			return "", false
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case decimal.Decimal:
		return x.String(), true
	case time.Time:
		return x.Format(time.RFC3339), true
	case fmt.Stringer:
		return norm.NFC.String(x.String()), true
	default:
		return norm.NFC.String(fmt.Sprint(x)), true
	}
}

// BuildKey derives the comparison key of a row from the ordered column list.
func BuildKey(row Row, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", apperrors.NewConfigError("columns", columns, "at least one key column is required")
	}
	key, ok := joinKey(row, columns)
	if !ok {
		return "", ErrIncompleteRow
	}
	return key, nil
}

func joinKey(row Row, columns []string) (string, bool) {
	parts := make([]string, len(columns))
	for i, col := range columns {
		v, present := row[col]
		if !present {
			return "", false
		}
		s, ok := Stringify(v)
		if !ok {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, KeySeparator), true
}

// KeyBuilder derives keys for one file, optionally case-folding them.
// A KeyBuilder is not safe for concurrent use.
type KeyBuilder struct {
	columns []string
	fold    bool
	caser   cases.Caser
}

// NewKeyBuilder creates a KeyBuilder over a non-empty column list.
func NewKeyBuilder(columns []string, caseInsensitive bool) (*KeyBuilder, error) {
	if len(columns) == 0 {
		return nil, apperrors.NewConfigError("columns", columns, "at least one key column is required")
	}
	kb := &KeyBuilder{
		columns: append([]string(nil), columns...),
		fold:    caseInsensitive,
	}
	if caseInsensitive {
		kb.caser = cases.Fold()
	}
	return kb, nil
}

// Columns returns the ordered key columns.
func (kb *KeyBuilder) Columns() []string {
	return append([]string(nil), kb.columns...)
}

// Key returns the row's key, or false when the row is incomplete.
func (kb *KeyBuilder) Key(row Row) (string, bool) {
	key, ok := joinKey(row, kb.columns)
	if !ok {
		return "", false
	}
	if kb.fold {
		key = kb.caser.String(key)
	}
	return key, true
}
