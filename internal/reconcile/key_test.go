package reconcile

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sheetmatch/internal/errors"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"string", "Apple", "Apple", true},
		{"bytes", []byte("Apple"), "Apple", true},
		{"int", 42, "42", true},
		{"int64 negative", int64(-7), "-7", true},
		{"uint8", uint8(255), "255", true},
		{"float integral", 3.0, "3", true},
		{"float fraction", 2.5, "2.5", true},
		{"float large no exponent", 1e21, "1000000000000000000000", true},
		{"float small no exponent", 0.000001, "0.000001", true},
		{"float32", float32(0.1), "0.1", true},
		{"NaN is null", math.NaN(), "", false},
		{"bool", true, "true", true},
		{"decimal", decimal.RequireFromString("10.50"), "10.5", true},
		{"time", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), "2024-03-01T12:00:00Z", true},
		{"NFC normalized", "Cafe\u0301", "Caf\u00e9", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Stringify(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildKey(t *testing.T) {
	row := Row{"first": "John", "last": "Smith", "age": 42, "note": nil}

	key, err := BuildKey(row, []string{"last", "first"})
	require.NoError(t, err)
	assert.Equal(t, "Smith - John", key)

	key, err = BuildKey(row, []string{"first", "age"})
	require.NoError(t, err)
	assert.Equal(t, "John - 42", key)

	_, err = BuildKey(row, []string{"first", "note"})
	assert.ErrorIs(t, err, ErrIncompleteRow)

	_, err = BuildKey(row, []string{"missing"})
	assert.ErrorIs(t, err, ErrIncompleteRow)

	_, err = BuildKey(row, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestBuildKey_Deterministic(t *testing.T) {
	row := Row{"a": 1.25, "b": "x"}
	first, err := BuildKey(row, []string{"a", "b"})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := BuildKey(row, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestKeyBuilder(t *testing.T) {
	_, err := NewKeyBuilder(nil, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	sensitive, err := NewKeyBuilder([]string{"name"}, false)
	require.NoError(t, err)
	key, ok := sensitive.Key(Row{"name": "Banana"})
	assert.True(t, ok)
	assert.Equal(t, "Banana", key)

	folded, err := NewKeyBuilder([]string{"name"}, true)
	require.NoError(t, err)
	key, ok = folded.Key(Row{"name": "BaNaNa"})
	assert.True(t, ok)
	assert.Equal(t, "banana", key)

	_, ok = folded.Key(Row{"other": "x"})
	assert.False(t, ok)
}

func TestKeyBuilder_ColumnsCopied(t *testing.T) {
	cols := []string{"a", "b"}
	kb, err := NewKeyBuilder(cols, false)
	require.NoError(t, err)

	cols[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, kb.Columns())
}
