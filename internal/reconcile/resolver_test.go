package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_EmptyKeySet(t *testing.T) {
	r := NewResolver(ScorerLevenshtein, 0)
	p := r.Resolve("Apple", nil)

	assert.False(t, p.Present)
	assert.Equal(t, "No", p.String())
	assert.Empty(t, p.Match)
}

func TestResolver_ExactMatchAtAnyThreshold(t *testing.T) {
	keys := []string{"Apple", "Banana", "Cherry"}
	for _, threshold := range []int{0, 50, 99, 100} {
		r := NewResolver(ScorerLevenshtein, threshold)
		p := r.Resolve("Banana", keys)
		assert.True(t, p.Present, "threshold %d", threshold)
		assert.Equal(t, 100, p.Score)
		assert.Equal(t, "Banana", p.Match)
	}
}

func TestResolver_Threshold100RequiresTokenSortedEquality(t *testing.T) {
	r := NewResolver(ScorerLevenshtein, 100)

	assert.True(t, r.Resolve("Smith John", []string{"John Smith"}).Present)
	assert.False(t, r.Resolve("Smith Jon", []string{"John Smith"}).Present)
}

func TestResolver_BoundaryAtExactScore(t *testing.T) {
	keys := []string{"Apple", "Banno"}

	at := NewResolver(ScorerLevenshtein, 67).Resolve("Banana", keys)
	assert.True(t, at.Present)
	assert.Equal(t, 67, at.Score)
	assert.Equal(t, "Banno", at.Match)

	above := NewResolver(ScorerLevenshtein, 68).Resolve("Banana", keys)
	assert.False(t, above.Present)
	assert.Equal(t, 67, above.Score)
	assert.Equal(t, "Banno", above.Match)
}

func TestResolver_TieBreakFirstCandidate(t *testing.T) {
	r := NewResolver(ScorerLevenshtein, 0)

	p := r.Resolve("abc", []string{"abd", "abe"})
	assert.Equal(t, "abd", p.Match)
	assert.Equal(t, 67, p.Score)

	p = r.Resolve("abc", []string{"abe", "abd"})
	assert.Equal(t, "abe", p.Match)
}

func TestResolver_ThresholdZeroMatchesAnyNonEmptyFile(t *testing.T) {
	r := NewResolver(ScorerLevenshtein, 0)
	p := r.Resolve("completely different", []string{"xyz"})

	assert.True(t, p.Present)
	assert.Equal(t, "xyz", p.Match)
}

func TestResolver_MemoizedScoresStable(t *testing.T) {
	r := NewResolver(ScorerIndel, 80)
	keys := []string{"Acme Corp", "Acme Corporation", "Globex"}

	first := r.Resolve("Corp Acme", keys)
	second := r.Resolve("Corp Acme", keys)
	assert.Equal(t, first, second)
	assert.Equal(t, "Acme Corp", first.Match)
	assert.True(t, first.Present)
}
