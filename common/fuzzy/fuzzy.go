// Package fuzzy implements approximate string matching on top of the
// Jaro-Winkler similarity metric, used for "did you mean" style lookups
// where user input doesn't hit anything exactly.
package fuzzy

import (
	"math"
	"sort"
	"unicode"
)

const (
	winklerThreshold  = 0.7
	winklerPrefixSize = 4
)

// Similarity returns the Jaro-Winkler similarity between a and b, in the
// range 0 (nothing shared) to 1 (equal).
func Similarity(a, b string, caseSensitive bool) float64 {
	return similarityRunes([]rune(a), []rune(b), caseSensitive)
}

func similarityRunes(s1, s2 []rune, caseSensitive bool) float64 {
	s1Len := len(s1)
	s2Len := len(s2)
	if s1Len == 0 {
		if s2Len == 0 {
			return 1
		}
		return 0
	}

	// matching window, characters further apart than this never match
	searchRange := math.Max(0, math.Max(float64(s1Len), float64(s2Len))/2-1)

	matched1 := make([]bool, s1Len)
	matched2 := make([]bool, s2Len)

	numMatched := 0
	for i := 0; i < s1Len; i++ {
		start := int(math.Max(0, float64(i)-searchRange))
		end := int(math.Min(float64(i)+searchRange+1, float64(s2Len)))

		for j := start; j < end; j++ {
			if matched2[j] || !runeEq(s1[i], s2[j], caseSensitive) {
				continue
			}

			matched1[i] = true
			matched2[j] = true
			numMatched++
			break
		}
	}

	if numMatched == 0 {
		return 0
	}

	numHalfTransposed := 0
	k := 0
	for i := 0; i < s1Len; i++ {
		if !matched1[i] {
			continue
		}

		for !matched2[k] {
			k++
		}

		if !runeEq(s1[i], s2[k], caseSensitive) {
			numHalfTransposed++
		}
		k++
	}

	numTransposed := numHalfTransposed / 2
	weight := (float64(numMatched)/float64(s1Len) +
		float64(numMatched)/float64(s2Len) +
		float64(numMatched-numTransposed)/float64(numMatched)) / 3

	// the prefix boost only applies to strings that are already close
	if weight <= winklerThreshold {
		return weight
	}

	max := int(math.Min(winklerPrefixSize, math.Min(float64(s1Len), float64(s2Len))))
	prefix := 0
	for prefix < max && runeEq(s1[prefix], s2[prefix], caseSensitive) {
		prefix++
	}

	if prefix == 0 {
		return weight
	}

	return weight + 0.1*float64(prefix)*(1-weight)
}

func runeEq(r1, r2 rune, caseSensitive bool) bool {
	if caseSensitive {
		return r1 == r2
	}

	return unicode.ToLower(r1) == unicode.ToLower(r2)
}

// AdaptiveThreshold tells Extract to derive the cutoff from the query
// length, short queries have to match near exactly while longer ones get
// more slack.
const AdaptiveThreshold = -1

// Match is a single result from Extract.
type Match struct {
	Value string
	Score float64
}

// Extract returns up to limit options scoring at least threshold against
// query, best first. A limit < 0 returns everything over the threshold.
func Extract(query string, options []string, threshold float64, caseSensitive bool, limit int) []Match {
	if limit == 0 {
		return nil
	}

	queryRunes := []rune(query)
	if threshold == AdaptiveThreshold {
		threshold = adaptiveThreshold(len(queryRunes))
	}

	var matches []Match
	for _, option := range options {
		score := similarityRunes(queryRunes, []rune(option), caseSensitive)
		if score >= threshold {
			matches = append(matches, Match{Value: option, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit < 0 || len(matches) <= limit {
		return matches
	}

	return matches[:limit]
}

func adaptiveThreshold(queryLen int) float64 {
	switch {
	case queryLen <= 3:
		return 1
	case queryLen <= 6:
		return 0.8
	case queryLen <= 12:
		return 0.7
	default:
		return 0.6
	}
}
