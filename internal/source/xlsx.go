package source

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/state"
)

// ReadXLSX parses one worksheet of a workbook. The first row is the header.
// Numeric cells are read from their stored value, not their display text,
// so they key the same way as numbers from any other source. Cells styled
// as dates become time values.
func ReadXLSX(r io.Reader, sheet string) (*state.DataFrame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !contains(sheets, sheet) {
		return nil, apperrors.NewNotFoundError("sheet", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	df := &state.DataFrame{Sheet: sheet, Sheets: sheets}
	if len(rows) == 0 {
		return df, nil
	}

	wr := newWorkbookReader(f, sheet)
	df.Headers = cleanHeaders(rows[0])
	for r, record := range rows[1:] {
		if blankRecord(record) {
			continue
		}
		row := make([]any, len(record))
		for c, v := range record {
			row[c], err = wr.value(c+1, r+2, v)
			if err != nil {
				return nil, err
			}
		}
		df.Rows = append(df.Rows, row)
	}
	return df, nil
}

// workbookReader converts raw cell values using the cell type and style.
type workbookReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	// dateStyles caches whether a style index formats numbers as dates.
	dateStyles map[int]bool
}

func newWorkbookReader(f *excelize.File, sheet string) *workbookReader {
	wr := &workbookReader{f: f, sheet: sheet, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wr.date1904 = *props.Date1904
	}
	return wr
}

func (wr *workbookReader) value(col, row int, raw string) (any, error) {
	v := cell(raw)
	if v == nil {
		return nil, nil
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := wr.f.GetCellType(wr.sheet, ref)
	if err != nil {
		return nil, err
	}
	// Cells without a type attribute hold numbers.
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		return v, nil
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return v, nil
	}

	isDate, err := wr.isDateCell(ref)
	if err != nil {
		return nil, err
	}
	if isDate {
		if t, err := excelize.ExcelDateToTime(num, wr.date1904); err == nil {
			return t, nil
		}
	}
	return num, nil
}

func (wr *workbookReader) isDateCell(ref string) (bool, error) {
	idx, err := wr.f.GetCellStyle(wr.sheet, ref)
	if err != nil {
		return false, err
	}
	if isDate, ok := wr.dateStyles[idx]; ok {
		return isDate, nil
	}

	style, err := wr.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	isDate := isDateStyle(style)
	wr.dateStyles[idx] = isDate
	return isDate, nil
}

// isDateStyle reports whether a style renders numbers as dates or times,
// either through a built-in format or a custom format code.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == '[':
			// Skip colour and locale sections such as [Red] or [$-409].
			if j := strings.IndexByte(code[i:], ']'); j > 0 {
				i += j
			}
		default:
			b.WriteByte(ch)
		}
	}
	lower := strings.ToLower(b.String())
	return strings.ContainsAny(lower, "ydh") || (strings.Contains(lower, "mm") && strings.Contains(lower, "ss"))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
