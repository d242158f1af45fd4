package release

import (
	"github.com/hbollon/go-edlib"
)

// TitleSimilarity returns the Jaro-Winkler similarity between two titles
// after normalization. Jaro-Winkler favors shared prefixes, which suits
// media titles where the distinguishing part usually comes first.
func TitleSimilarity(a, b string) float64 {
	return float64(edlib.JaroWinklerSimilarity(CleanTitle(a), CleanTitle(b)))
}

// BestTitleMatch returns the index of the candidate most similar to title,
// or -1 when no candidate reaches the threshold.
func BestTitleMatch(title string, candidates []string, threshold float64) int {
	best := -1
	bestScore := threshold
	for i, candidate := range candidates {
		if score := TitleSimilarity(title, candidate); score >= bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}
