package aggregate

import "sort"

// Ranked is a key with its count
type Ranked struct {
	Key   string
	Count int64
}

// TopN orders counts by count descending, ties by key ascending, and keeps
// the first n entries. n <= 0 keeps every entry.
func TopN(counts map[string]int64, n int) []Ranked {
	ranked := make([]Ranked, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, Ranked{Key: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Counter accumulates counts per key
type Counter map[string]int64

// Add increments key by one
func (c Counter) Add(key string) {
	c[key]++
}

// Top returns the n highest counts, see TopN
func (c Counter) Top(n int) []Ranked {
	return TopN(c, n)
}
