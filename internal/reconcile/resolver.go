package reconcile

import (
	"strconv"

	gocache "github.com/patrickmn/go-cache"
)

// Presence is the verdict for one (canonical value, file) pair together with
// the candidate key that produced the best score.
type Presence struct {
	Present bool   `json:"present" yaml:"present"`
	Score   int    `json:"score" yaml:"score"`
	Match   string `json:"match,omitempty" yaml:"match,omitempty"`
}

// String renders the verdict as Yes or No.
func (p Presence) String() string {
	if p.Present {
		return Yes
	}
	return No
}

// Resolver decides fuzzy membership of canonical values in a file's key set.
// Scores are memoized per resolver on the token-sorted pair, so one resolver
// should live no longer than one comparison run.
type Resolver struct {
	scorer    Scorer
	threshold int
	sorted    map[string]string
	scores    *gocache.Cache
}

// NewResolver creates a resolver for the given scorer and threshold.
func NewResolver(scorer Scorer, threshold int) *Resolver {
	return &Resolver{
		scorer:    scorer,
		threshold: threshold,
		sorted:    make(map[string]string),
		scores:    gocache.New(gocache.NoExpiration, 0),
	}
}

// Resolve finds the best-scoring candidate among keys for value. Keys are
// probed in the given order and the first candidate reaching the maximum
// wins, so callers pass them sorted. An empty key set is never present.
func (r *Resolver) Resolve(value string, keys []string) Presence {
	if len(keys) == 0 {
		return Presence{}
	}

	best := Presence{Score: -1}
	for _, key := range keys {
		score := r.score(value, key)
		if score > best.Score {
			best.Score = score
			best.Match = key
		}
		if score == 100 {
			break
		}
	}
	best.Present = best.Score >= r.threshold
	return best
}

func (r *Resolver) score(a, b string) int {
	sa, sb := r.tokenSorted(a), r.tokenSorted(b)
	pair := strconv.Itoa(len(sa)) + ":" + sa + sb
	if v, found := r.scores.Get(pair); found {
		return v.(int)
	}
	score := r.scorer.Ratio(sa, sb)
	r.scores.Set(pair, score, gocache.NoExpiration)
	return score
}

func (r *Resolver) tokenSorted(s string) string {
	if ts, ok := r.sorted[s]; ok {
		return ts
	}
	ts := TokenSort(s)
	r.sorted[s] = ts
	return ts
}
