package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/reconcile"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffid, name ,city\n1,Apple,Paris\n2,,\n\n3,Banana\n"

	df, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "city"}, df.Headers)
	require.Len(t, df.Rows, 3)
	assert.Equal(t, []any{"1", "Apple", "Paris"}, df.Rows[0])
	assert.Equal(t, []any{"2", nil, nil}, df.Rows[1])
	assert.Equal(t, []any{"3", "Banana"}, df.Rows[2])
}

func TestReadCSV_Semicolon(t *testing.T) {
	df, err := ReadCSV(strings.NewReader("id;amount\n1;2,5\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount"}, df.Headers)
	assert.Equal(t, []any{"1", "2,5"}, df.Rows[0])
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

// failingReader serves body and then fails on every further read.
type failingReader struct {
	body *strings.Reader
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.body.Len() > 0 {
		return r.body.Read(p)
	}
	return 0, r.err
}

func TestReadCSV_ReadError(t *testing.T) {
	body := "id,name\n" + strings.Repeat("1,Apple\n", 2500)
	diskGone := errors.New("disk gone")

	done := make(chan error, 1)
	go func() {
		_, err := ReadCSV(&failingReader{body: strings.NewReader(body), err: diskGone})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, diskGone)
	case <-time.After(5 * time.Second):
		t.Fatal("ReadCSV did not return after a persistent read error")
	}
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := Read("report.ods", strings.NewReader(""), "")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.CSV"))
	assert.True(t, Supported("b.xlsx"))
	assert.True(t, Supported("c.xlsm"))
	assert.False(t, Supported("d.xls"))
	assert.False(t, Supported("noext"))
}

func TestSplitSheet(t *testing.T) {
	tests := []struct {
		arg, path, sheet string
	}{
		{"data.csv", "data.csv", ""},
		{"book.xlsx", "book.xlsx", ""},
		{"book.xlsx:Q1 2024", "book.xlsx", "Q1 2024"},
		{`C:\data\book.xlsx:Sheet2`, `C:\data\book.xlsx`, "Sheet2"},
		{`C:\data\list.csv`, `C:\data\list.csv`, ""},
		{"odd:name.csv", "odd:name.csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			path, sheet := SplitSheet(tt.arg)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.sheet, sheet)
		})
	}
}

func writeWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Customers"))
	require.NoError(t, f.SetSheetRow("Customers", "A1", &[]any{"id", "name"}))
	require.NoError(t, f.SetSheetRow("Customers", "A2", &[]any{1, "John Smith"}))
	require.NoError(t, f.SetSheetRow("Customers", "A3", &[]any{2, ""}))

	_, err := f.NewSheet("Orders")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Orders", "A1", &[]any{"sku"}))
	require.NoError(t, f.SetSheetRow("Orders", "A2", &[]any{"A-1"}))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := writeWorkbook(t)

	df, err := ReadXLSX(bytes.NewReader(data), "")
	require.NoError(t, err)
	assert.Equal(t, "Customers", df.Sheet)
	assert.Equal(t, []string{"Customers", "Orders"}, df.Sheets)
	assert.Equal(t, []string{"id", "name"}, df.Headers)
	require.Len(t, df.Rows, 2)
	assert.Equal(t, []any{float64(1), "John Smith"}, df.Rows[0])
	assert.Equal(t, float64(2), df.Rows[1][0])

	orders, err := ReadXLSX(bytes.NewReader(data), "Orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"sku"}, orders.Headers)
	assert.Equal(t, []any{"A-1"}, orders.Rows[0])

	_, err = ReadXLSX(bytes.NewReader(data), "Missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReadXLSX_NumericCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"amount", "big", "joined", "code"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1234.5, 1e21, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "007"}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A2", thousands))
	dateFmt := "dd/mm/yyyy"
	custom, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", custom))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	df, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.Len(t, df.Rows, 1)
	row := df.Rows[0]

	assert.Equal(t, 1234.5, row[0])
	assert.Equal(t, 1e21, row[1])
	joined, ok := row[2].(time.Time)
	require.True(t, ok, "date cell read as %T", row[2])
	assert.Equal(t, "2024-03-15", joined.Format("2006-01-02"))
	assert.Equal(t, "007", row[3])

	key, _ := reconcile.Stringify(row[0])
	assert.Equal(t, "1234.5", key)
	key, _ = reconcile.Stringify(row[1])
	assert.Equal(t, "1000000000000000000000", key)
}

func TestIsDateStyle(t *testing.T) {
	code := func(s string) *excelize.Style { return &excelize.Style{CustomNumFmt: &s} }

	assert.True(t, isDateStyle(&excelize.Style{NumFmt: 14}))
	assert.True(t, isDateStyle(&excelize.Style{NumFmt: 22}))
	assert.False(t, isDateStyle(&excelize.Style{NumFmt: 4}))
	assert.False(t, isDateStyle(nil))
	assert.True(t, isDateStyle(code("yyyy-mm-dd")))
	assert.True(t, isDateStyle(code("[h]:mm:ss")))
	assert.False(t, isDateStyle(code(`#,##0.00 "days"`)))
	assert.False(t, isDateStyle(code("[Red]0.00")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nJohn\n"), 0o644))

	df, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "people.csv", df.FileName)
	assert.Equal(t, path, df.FilePath)
	assert.Equal(t, []any{"John"}, df.Rows[0])

	xlsx := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(xlsx, writeWorkbook(t), 0o644))
	df, err = Load(xlsx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, "book.xlsx", df.FileName)
	assert.Equal(t, "Orders", df.Sheet)

	_, err = Load(filepath.Join(dir, "missing.csv"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	assert.Nil(t, convertValue(nil, "TEXT"))
	assert.Equal(t, "abc", convertValue([]byte("abc"), "TEXT"))
	assert.Nil(t, convertValue([]byte("  "), "VARCHAR"))
	assert.True(t, decimal.RequireFromString("12.50").Equal(convertValue([]byte("12.50"), "NUMERIC").(decimal.Decimal)))
	assert.Equal(t, ts.UTC(), convertValue(ts, "TIMESTAMPTZ"))
	assert.Equal(t, int64(7), convertValue(int64(7), "INT8"))
}

func TestDataSourceConfig_ConnString(t *testing.T) {
	cfg := DataSourceConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "db"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=db sslmode=disable", cfg.ConnString())
}
