package munitions

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is one search hit.
type Match struct {
	Weapon   *Node
	Category string
	Score    float64
	Source   string // exact, prefix, contains, lev
}

// Search ranks the weapons under roots against query by name. Exact and
// substring hits rank above fuzzy ones; fuzzy hits compare the query with
// each word of the name. limit <= 0 returns every hit.
func Search(query string, limit int, roots ...*Node) []Match {
	q := normalize(query)
	if q == "" {
		return nil
	}

	var matches []Match
	seen := make(map[*Node]bool)
	for _, root := range roots {
		for _, w := range Weapons(root) {
			if seen[w] {
				continue
			}
			seen[w] = true
			if m, ok := score(q, w); ok {
				matches = append(matches, m)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Weapon.ID < matches[j].Weapon.ID
		}
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func score(q string, w *Node) (Match, bool) {
	name := normalize(w.Name)
	m := Match{Weapon: w, Category: CategoryName(w.Parent)}

	switch {
	case name == q:
		m.Score, m.Source = 1.0, "exact"
		return m, true
	case strings.HasPrefix(name, q):
		m.Score, m.Source = 0.9, "prefix"
		return m, true
	case strings.Contains(name, q):
		m.Score, m.Source = 0.8, "contains"
		return m, true
	}

	if len(q) < 3 {
		return m, false
	}

	best := -1
	for _, word := range strings.Fields(name) {
		dist := levenshtein.ComputeDistance(q, word)
		if dist > levenshteinLimit(len(word)) {
			continue
		}
		if best < 0 || dist < best {
			best = dist
		}
	}
	if best < 0 {
		return m, false
	}
	m.Score = 0.72 - 0.08*float64(best)
	m.Source = "lev"
	return m, true
}

func normalize(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
