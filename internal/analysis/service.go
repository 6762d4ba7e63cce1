// Package analysis profiles the columns of loaded tables so callers can
// pick key columns that every input shares.
package analysis

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sheetmatch/internal/reconcile"
	"sheetmatch/internal/state"
)

// Column types reported by the analyzer
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeDate   = "date"
	TypeString = "string"
	TypeEmpty  = "empty"
)

// sampleSize bounds how many non-null cells are inspected per column.
const sampleSize = 20

// ColumnProfile describes one column of one table.
type ColumnProfile struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	NonNull     int    `json:"non_null" yaml:"non_null"`
	Distinct    int    `json:"distinct" yaml:"distinct"`
	PotentialID bool   `json:"potential_id" yaml:"potential_id"`
}

// TableProfile holds the analysis of a table.
type TableProfile struct {
	NumRows    int             `json:"rows" yaml:"rows"`
	NumColumns int             `json:"columns" yaml:"columns"`
	Columns    []ColumnProfile `json:"column_profiles" yaml:"column_profiles"`
}

// CommonColumn is a column present in every analyzed table.
type CommonColumn struct {
	Name string `json:"name" yaml:"name"`
	// Types maps each table label to the column type inferred there.
	Types       map[string]string `json:"types" yaml:"types"`
	PotentialID bool              `json:"potential_id" yaml:"potential_id"`
}

type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeFrame profiles every column of a data frame.
func (a *Analyzer) AnalyzeFrame(df *state.DataFrame) TableProfile {
	result := TableProfile{
		NumRows:    len(df.Rows),
		NumColumns: len(df.Headers),
		Columns:    make([]ColumnProfile, 0, len(df.Headers)),
	}

	for i, name := range df.Headers {
		values := columnValues(df.Rows, i)
		colType := inferColumnType(values)

		distinct := make(map[string]struct{}, len(values))
		for _, v := range values {
			distinct[toString(v)] = struct{}{}
		}

		profile := ColumnProfile{
			Name:     name,
			Type:     colType,
			NonNull:  len(values),
			Distinct: len(distinct),
		}
		profile.PotentialID = isPotentialID(name, colType, len(values), len(distinct))
		result.Columns = append(result.Columns, profile)
	}

	return result
}

// CommonColumns returns the columns shared by all frames, in the header
// order of the first frame.
func (a *Analyzer) CommonColumns(frames []*state.DataFrame) []CommonColumn {
	if len(frames) == 0 {
		return []CommonColumn{}
	}

	labels := state.Labels(frames)
	profiles := make([]map[string]ColumnProfile, len(frames))
	for i, df := range frames {
		byName := make(map[string]ColumnProfile)
		for _, p := range a.AnalyzeFrame(df).Columns {
			byName[p.Name] = p
		}
		profiles[i] = byName
	}

	common := []CommonColumn{}
	for _, name := range frames[0].Headers {
		col := CommonColumn{Name: name, Types: make(map[string]string, len(frames)), PotentialID: true}
		shared := true
		for i, byName := range profiles {
			p, ok := byName[name]
			if !ok {
				shared = false
				break
			}
			col.Types[labels[i]] = p.Type
			col.PotentialID = col.PotentialID && p.PotentialID
		}
		if shared {
			common = append(common, col)
		}
	}
	return common
}

func columnValues(rows [][]any, colIndex int) []any {
	values := []any{}
	for _, row := range rows {
		if colIndex >= len(row) || row[colIndex] == nil {
			continue
		}
		values = append(values, row[colIndex])
	}
	return values
}

// inferColumnType checks a sample of non-null values. A column is numeric
// or a date only when every sampled value agrees.
func inferColumnType(values []any) string {
	if len(values) == 0 {
		return TypeEmpty
	}

	n := sampleSize
	if len(values) < n {
		n = len(values)
	}

	isInt := true
	isFloat := true
	isDate := true

	for _, v := range values[:n] {
		switch val := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			isDate = false
		case float32, float64, decimal.Decimal:
			isInt = false
			isDate = false
		case time.Time:
			isInt = false
			isFloat = false
		case string:
			if _, err := strconv.Atoi(val); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				isFloat = false
			}
			if !isDateString(val) {
				isDate = false
			}
		default:
			isInt = false
			isFloat = false
			isDate = false
		}
	}

	if isInt {
		return TypeInt
	}
	if isFloat {
		return TypeFloat
	}
	if isDate {
		return TypeDate
	}
	return TypeString
}

func isDateString(val string) bool {
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2006/01/02",
	}
	for _, f := range formats {
		if _, err := time.Parse(f, val); err == nil {
			return true
		}
	}
	return false
}

// isPotentialID flags columns whose values are all distinct or whose name
// looks like an identifier.
func isPotentialID(name, colType string, nonNull, distinct int) bool {
	if nonNull == 0 || colType == TypeDate {
		return false
	}
	if containsAny(strings.ToLower(name), []string{"id", "number", "code", "key", "sku", "email"}) {
		return true
	}
	return nonNull > 1 && distinct == nonNull
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := reconcile.Stringify(v); ok {
		return s
	}
	return ""
}
