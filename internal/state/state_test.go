package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/reconcile"
)

func frame(name string, headers []string, rows ...[]any) *DataFrame {
	return &DataFrame{FileName: name, Headers: headers, Rows: rows}
}

func TestDataFrame_Records(t *testing.T) {
	df := frame("a.csv", []string{"id", "name"},
		[]any{"1", "Apple"},
		[]any{"2"},
		[]any{"3", nil},
	)

	rows := df.Records()
	require.Len(t, rows, 3)
	assert.Equal(t, reconcile.Row{"id": "1", "name": "Apple"}, rows[0])
	assert.Equal(t, reconcile.Row{"id": "2"}, rows[1])
	assert.Equal(t, reconcile.Row{"id": "3", "name": nil}, rows[2])

	rows[0]["name"] = "changed"
	assert.Equal(t, "Apple", df.Rows[0][1])
	assert.Equal(t, "Apple", df.Records()[0]["name"])
}

func TestDataFrame_File(t *testing.T) {
	df := frame("a.csv", []string{"k"}, []any{"x"})
	cols := []string{"k"}

	f := df.File("left", cols)
	cols[0] = "mutated"

	assert.Equal(t, "left", f.ID)
	assert.Equal(t, []string{"k"}, f.Columns)
	assert.Equal(t, []reconcile.Row{{"k": "x"}}, f.Rows)
}

func TestDataFrame_ColumnIndex(t *testing.T) {
	df := frame("a.csv", []string{"id", "name"})
	assert.Equal(t, 1, df.ColumnIndex("name"))
	assert.Equal(t, -1, df.ColumnIndex("missing"))
	assert.True(t, df.HasColumn("id"))
	assert.False(t, df.HasColumn("Name"))
	assert.Equal(t, []string{"city", "zip"}, df.MissingColumns([]string{"id", "city", "zip"}))
	assert.Empty(t, df.MissingColumns([]string{"name"}))
}

func TestStore(t *testing.T) {
	s := NewStore()
	first := s.Add(frame("a.csv", nil))
	second := s.Add(frame("b.csv", nil))
	assert.NotEqual(t, first, second)

	got, err := s.Get(first)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.FileName)
	assert.False(t, got.LoadedAt.IsZero())

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	selected, err := s.Select([]string{second, first})
	require.NoError(t, err)
	assert.Equal(t, "b.csv", selected[0].FileName)
	assert.Equal(t, "a.csv", selected[1].FileName)

	all, err := s.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Remove(first))
	assert.ErrorIs(t, s.Remove(first), apperrors.ErrNotFound)
	assert.Len(t, s.List(), 1)

	_, err = s.Select([]string{first})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	s.Clear()
	assert.Empty(t, s.List())
}

func TestLabels(t *testing.T) {
	frames := []*DataFrame{
		{FileName: "a.xlsx", Sheet: "Q1", Sheets: []string{"Q1", "Q2"}},
		{FileName: "b.csv"},
		{FileName: "b.csv"},
		{FileName: "c.xlsx", Sheet: "Only", Sheets: []string{"Only"}},
	}

	assert.Equal(t, []string{"a.xlsx [Q1]", "b.csv #1", "b.csv #2", "c.xlsx"}, Labels(frames))
}
