package reconcile

import "sort"

// FrequencyIndex counts how often each distinct key occurs in one file.
type FrequencyIndex struct {
	File    string
	Counts  map[string]int
	Keys    []string // distinct keys, ascending
	Rows    int      // rows that produced a key
	Skipped int      // rows dropped for a null or missing selected column
}

// BuildIndex applies the key builder to every row of a file and tallies
// the keys. Incomplete rows are skipped and counted, never an error.
func BuildIndex(file string, rows []Row, kb *KeyBuilder) *FrequencyIndex {
	ix := &FrequencyIndex{
		File:   file,
		Counts: make(map[string]int),
	}

	for _, row := range rows {
		key, ok := kb.Key(row)
		if !ok {
			ix.Skipped++
			continue
		}
		ix.Counts[key]++
		ix.Rows++
	}

	ix.Keys = make([]string, 0, len(ix.Counts))
	for key := range ix.Counts {
		ix.Keys = append(ix.Keys, key)
	}
	sort.Strings(ix.Keys)

	return ix
}

// Count returns the occurrences of key, 0 when absent.
func (ix *FrequencyIndex) Count(key string) int {
	return ix.Counts[key]
}

// Len returns the number of distinct keys.
func (ix *FrequencyIndex) Len() int {
	return len(ix.Keys)
}

// BuildUniverse returns the sorted, deduplicated union of the keys of all indexes.
func BuildUniverse(indexes []*FrequencyIndex) []string {
	seen := make(map[string]struct{})
	for _, ix := range indexes {
		for _, key := range ix.Keys {
			seen[key] = struct{}{}
		}
	}

	universe := make([]string, 0, len(seen))
	for key := range seen {
		universe = append(universe, key)
	}
	sort.Strings(universe)
	return universe
}
