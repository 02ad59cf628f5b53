package match

import (
	"cmp"
	"slices"
)

// Candidate is a known name with its similarity to the name looked up.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name and returns those scoring at
// least minScore, best first. Ties are ordered by name.
func Rank(name string, candidates []string, minScore float64) []Candidate {
	var out []Candidate

	for _, c := range candidates {
		if score := IdentSimilarity(name, c); score >= minScore {
			out = append(out, Candidate{Name: c, Score: score})
		}
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Closest returns the best candidate scoring at least minScore.
func Closest(name string, candidates []string, minScore float64) (string, bool) {
	ranked := Rank(name, candidates, minScore)
	if len(ranked) == 0 {
		return "", false
	}

	return ranked[0].Name, true
}
