package reconcile

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	apperrors "sheetmatch/internal/errors"
)

// Scorer selects the edit-distance measure behind the token-sort ratio.
type Scorer string

const (
	// ScorerLevenshtein normalizes the Levenshtein distance by the longer string.
	ScorerLevenshtein Scorer = "levenshtein"
	// ScorerIndel uses the insert/delete-only ratio 2*LCS/(len(a)+len(b)).
	ScorerIndel Scorer = "indel"
)

// DefaultScorer is used when no scorer is configured.
const DefaultScorer = ScorerLevenshtein

// ParseScorer validates a scorer name. The empty string selects DefaultScorer.
func ParseScorer(name string) (Scorer, error) {
	switch s := Scorer(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return DefaultScorer, nil
	case ScorerLevenshtein, ScorerIndel:
		return s, nil
	default:
		return "", apperrors.NewConfigError("scorer", name, "must be one of: levenshtein, indel")
	}
}

// TokenSort splits s on whitespace, sorts the tokens and joins them with a single space.
func TokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Ratio scores two strings in [0,100] without tokenizing them.
// Only identical strings score 100.
func (s Scorer) Ratio(a, b string) int {
	if a == b {
		return 100
	}

	var sim float64
	switch s {
	case ScorerIndel:
		total := runeLen(a) + runeLen(b)
		sim = 2 * float64(lcsLength(a, b)) / float64(total)
	default:
		longest := max(runeLen(a), runeLen(b))
		sim = 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	}

	score := int(math.Round(sim * 100))
	if score >= 100 {
		score = 99
	}
	if score < 0 {
		score = 0
	}
	return score
}

// TokenSortRatio scores a and b after token-sorting both, so word order
// inside a key does not affect the result.
func (s Scorer) TokenSortRatio(a, b string) int {
	return s.Ratio(TokenSort(a), TokenSort(b))
}

// Similarity is the token-sort ratio under the default scorer.
func Similarity(a, b string) int {
	return DefaultScorer.TokenSortRatio(a, b)
}

func runeLen(s string) int {
	return len([]rune(s))
}

// lcsLength returns the length of the longest common subsequence of a and b in runes.
func lcsLength(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
