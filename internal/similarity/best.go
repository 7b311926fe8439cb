package similarity

// Best is the winning candidate of a BestMatch search.
type Best struct {
	Index int // position in the candidate slice
	Key   string
	Score float64
}

// BestMatch scores query against every candidate and returns the one with
// the strictly highest score. On ties the candidate encountered first wins.
// ok is false when candidates is empty.
func BestMatch(query string, candidates []string, scorer Scorer) (best Best, ok bool) {
	for i, candidate := range candidates {
		score := scorer.Score(query, candidate)
		if !ok || score > best.Score {
			best = Best{Index: i, Key: candidate, Score: score}
			ok = true
		}

		// nothing can beat an exact match
		if score >= 100 {
			break
		}
	}

	return best, ok
}
