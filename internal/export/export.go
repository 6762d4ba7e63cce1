// Package export writes comparison results to XLSX workbooks and CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/reconcile"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Table names used for sheets and CSV file suffixes
const (
	TableSummary  = "summary"
	TablePresence = "presence"
	TableOnly     = "only"
)

// maxSheetName is Excel's sheet name length limit.
const maxSheetName = 31

// Report bundles the results of one comparison run.
type Report struct {
	Summary  *reconcile.SummaryTable
	Presence *reconcile.PresenceMatrix
	OnlyIn   *reconcile.OnlyInReport
	// Details renders presence cells with their best match and score.
	Details bool
}

// NewReport collects the tables of a run.
func NewReport(run *reconcile.Run, details bool) *Report {
	return &Report{
		Summary:  run.Summary(),
		Presence: run.Presence(),
		OnlyIn:   run.OnlyIn(),
		Details:  details,
	}
}

// Table returns the header and records of the named table.
func (r *Report) Table(name string) ([]string, [][]string, error) {
	switch name {
	case TableSummary:
		return r.Summary.Columns(), r.Summary.Records(), nil
	case TablePresence, "":
		if r.Details {
			return r.Presence.Columns(), r.Presence.DetailRecords(), nil
		}
		return r.Presence.Columns(), r.Presence.Records(), nil
	case TableOnly:
		return r.OnlyIn.Columns(), r.OnlyIn.Records(), nil
	default:
		return nil, nil, apperrors.NewNotFoundError("table", name)
	}
}

// ParseFormat validates an export format name.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", apperrors.NewFormatError("", format)
	}
}

// WriteXLSX writes a workbook with a Summary sheet, a Presence sheet and
// one "Only in <file>" sheet per file.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}

	summary := uniqueSheetName("Summary", used)
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	if err := writeSheet(f, summary, r.Summary.Columns(), summaryRows(r.Summary)); err != nil {
		return err
	}

	header, records, _ := r.Table(TablePresence)
	if err := addSheet(f, uniqueSheetName("Presence", used), header, textRows(records)); err != nil {
		return err
	}

	for i, file := range r.OnlyIn.Files {
		records := make([][]any, len(r.OnlyIn.Values[i]))
		for j, v := range r.OnlyIn.Values[i] {
			records[j] = []any{v}
		}
		name := uniqueSheetName("Only in "+file, used)
		if err := addSheet(f, name, []string{reconcile.PresenceValueColumn}, records); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	_, err := f.WriteTo(w)
	return err
}

func addSheet(f *excelize.File, name string, header []string, records [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheet(f, name, header, records)
}

func writeSheet(f *excelize.File, sheet string, header []string, records [][]any) error {
	headerRow := textRows([][]string{header})[0]
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}
	for i, rec := range records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &rec); err != nil {
			return err
		}
	}
	return nil
}

// summaryRows writes counts as numbers, not text.
func summaryRows(t *reconcile.SummaryTable) [][]any {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]any, 0, len(row.Counts)+1)
		rec = append(rec, row.Value)
		for _, c := range row.Counts {
			rec = append(rec, c)
		}
		rows[i] = rec
	}
	return rows
}

func textRows(records [][]string) [][]any {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}

// WriteCSV writes one table of the report as CSV.
func WriteCSV(w io.Writer, r *Report, table string) error {
	header, records, err := r.Table(table)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFiles exports the report to path, choosing the format from its
// extension. A .csv path produces one file per table, named
// <base>_summary.csv, <base>_presence.csv and <base>_only.csv. It returns
// the paths written.
func WriteFiles(path string, r *Report) ([]string, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, apperrors.NewFormatError(path, filepath.Ext(path))
	}

	if format == FormatXLSX {
		if err := writeFile(path, func(w io.Writer) error { return WriteXLSX(w, r) }); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	var written []string
	for _, table := range []string{TableSummary, TablePresence, TableOnly} {
		out := base + "_" + table + ".csv"
		if err := writeFile(out, func(w io.Writer) error { return WriteCSV(w, r, table) }); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}

// SheetName makes s a valid Excel sheet name: forbidden characters become
// underscores, surrounding apostrophes are dropped and the result is cut
// to 31 characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "'")
	if s == "" {
		s = "Sheet"
	}
	return truncate(s, maxSheetName)
}

func uniqueSheetName(s string, used map[string]bool) string {
	name := SheetName(s)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(SheetName(s), maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
