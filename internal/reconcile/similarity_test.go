package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sheetmatch/internal/errors"
)

func TestTokenSort(t *testing.T) {
	assert.Equal(t, "John Smith", TokenSort("Smith John"))
	assert.Equal(t, "John Smith", TokenSort("  Smith \t John "))
	assert.Equal(t, "", TokenSort("   "))
	assert.Equal(t, "- A B", TokenSort("B - A"))
}

func TestSimilarity_TokenOrderInvariant(t *testing.T) {
	assert.Equal(t, 100, Similarity("John Smith", "Smith John"))
	assert.Equal(t, 100, ScorerIndel.TokenSortRatio("John Smith", "Smith John"))
}

func TestScorer_Ratio(t *testing.T) {
	tests := []struct {
		name   string
		scorer Scorer
		a, b   string
		want   int
	}{
		{"identical", ScorerLevenshtein, "Apple", "Apple", 100},
		{"both empty", ScorerLevenshtein, "", "", 100},
		{"one empty", ScorerLevenshtein, "Apple", "", 0},
		{"levenshtein banana banno", ScorerLevenshtein, "Banana", "Banno", 67},
		{"indel banana banno", ScorerIndel, "Banana", "Banno", 73},
		{"levenshtein case differs", ScorerLevenshtein, "banana", "Banana", 83},
		{"indel case differs", ScorerIndel, "banana", "Banana", 83},
		{"disjoint", ScorerLevenshtein, "abc", "xyz", 0},
		{"indel disjoint", ScorerIndel, "abc", "xyz", 0},
		{"multibyte runes", ScorerLevenshtein, "Zürich", "Zurich", 83},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scorer.Ratio(tt.a, tt.b))
		})
	}
}

func TestScorer_RatioNeverRoundsUpTo100(t *testing.T) {
	a := strings.Repeat("a", 200) + "b"
	b := strings.Repeat("a", 201)

	assert.Equal(t, 99, ScorerLevenshtein.Ratio(a, b))
	assert.Equal(t, 99, ScorerIndel.Ratio(a, b))
}

func TestScorer_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Banana", "Banno"},
		{"John Smith", "Jon Smyth"},
		{"Acme Corp", "ACME Corporation"},
	}
	for _, s := range []Scorer{ScorerLevenshtein, ScorerIndel} {
		for _, p := range pairs {
			assert.Equal(t, s.TokenSortRatio(p[0], p[1]), s.TokenSortRatio(p[1], p[0]), "%s %v", s, p)
		}
	}
}

func TestParseScorer(t *testing.T) {
	s, err := ParseScorer("")
	require.NoError(t, err)
	assert.Equal(t, ScorerLevenshtein, s)

	s, err = ParseScorer(" INDEL ")
	require.NoError(t, err)
	assert.Equal(t, ScorerIndel, s)

	_, err = ParseScorer("jaro")
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestLCSLength(t *testing.T) {
	assert.Equal(t, 4, lcsLength("Banana", "Banno"))
	assert.Equal(t, 4, lcsLength("Banno", "Banana"))
	assert.Equal(t, 0, lcsLength("", "abc"))
	assert.Equal(t, 3, lcsLength("abc", "abc"))
}
