// Package source loads tabular inputs (CSV, XLSX, Postgres tables) into
// data frames. Blank cells become nil so the reconciliation core treats
// them as nulls.
package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/state"
)

// Supported file extensions
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
	ExtXLSM = ".xlsm"
)

// Supported reports whether a file name has a loadable extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtCSV, ExtXLSX, ExtXLSM:
		return true
	}
	return false
}

// IsWorkbook reports whether a file name is an Excel workbook.
func IsWorkbook(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ExtXLSX || ext == ExtXLSM
}

// Load reads a file from disk. For workbooks, sheet selects the worksheet;
// an empty sheet selects the first one.
func Load(path, sheet string) (*state.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df, err := Read(filepath.Base(path), f, sheet)
	if err != nil {
		return nil, err
	}
	df.FilePath = path
	return df, nil
}

// Read parses a table from r, dispatching on the extension of name.
func Read(name string, r io.Reader, sheet string) (*state.DataFrame, error) {
	var (
		df  *state.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtCSV:
		df, err = ReadCSV(r)
	case ExtXLSX, ExtXLSM:
		df, err = ReadXLSX(r, sheet)
	default:
		return nil, apperrors.NewFormatError(name, filepath.Ext(name))
	}
	if err != nil {
		return nil, apperrors.NewParseError(name, err)
	}
	df.FileName = name
	return df, nil
}

// SplitSheet splits a "path:Sheet" argument. The suffix is only treated as
// a sheet name when the part before it names a workbook.
func SplitSheet(arg string) (path, sheet string) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 || !IsWorkbook(arg[:i]) {
		return arg, ""
	}
	return arg[:i], arg[i+1:]
}

// cell converts a raw text cell, mapping blanks to nil.
func cell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
