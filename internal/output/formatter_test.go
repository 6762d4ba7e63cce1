package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/reconcile"
)

func sampleSummary() *reconcile.SummaryTable {
	return &reconcile.SummaryTable{
		Files:   []string{"a.csv", "b.csv"},
		Skipped: []int{0, 1},
		Rows: []reconcile.SummaryRow{
			{Value: "Apple", Counts: []int{1, 2}},
			{Value: "Banana", Counts: []int{1, 0}},
		},
	}
}

func TestTableFormatter_Tabular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, sampleSummary()))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "UNIQUE VALUE")
	assert.Contains(t, out, "Apple")
	assert.Contains(t, out, "Banana")
}

func TestTableFormatter_Data(t *testing.T) {
	var buf bytes.Buffer
	data := Data{Headers: []string{"File", "Value"}, Rows: [][]string{{"a.csv", "Pear"}}}
	require.NoError(t, (&TableFormatter{}).Format(&buf, data))
	assert.Contains(t, buf.String(), "Pear")
}

func TestTableFormatter_FallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, map[string]int{"rows": 3}))
	assert.JSONEq(t, `{"rows": 3}`, buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleSummary()))

	var decoded reconcile.SummaryTable
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sampleSummary(), decoded)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, sampleSummary()))

	out := buf.String()
	assert.Contains(t, out, "files:")
	assert.Contains(t, out, "- a.csv")
	assert.Contains(t, out, "value: Apple")
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"table", "JSON", " yaml ", ""} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestDetectFormat_Explicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}
