package fuzzy

import (
	"math"
	"strconv"
	"testing"
)

const tolerance = .01

func TestSimilarity(t *testing.T) {
	testCases := []struct {
		s1, s2        string
		caseSensitive bool
		want          float64
	}{
		{"aa", "a", true, 0.85},
		{"a", "aa", true, 0.85},
		{"v", "veryveryverylong", true, 0.68},
		{"jones", "johnson", true, 0.83},
		{"fvie", "ten", true, 0},
		{"henka", "henkan", true, 0.96},
		{"my string", "my ntrisg", true, 0.89},
		{"my string", "my tsring", true, 0.97},
		{"dixon", "dicksonx", true, 0.81},
		{"dwayne", "duane", true, 0.84},
		{"martha", "marhta", true, 0.96},
		{"aaaa", "aaaa", true, 1},
		{"123", "123", true, 1},
		{"", "", true, 1},
		{"", "hi", true, 0},
		{"AA", "a", true, 0},

		{"AA", "a", false, 0.85},
		{"mY string", "my ntrisg", false, 0.89},
		{"jOnEs", "jOhNsON", false, 0.83},
	}

	for i, v := range testCases {
		t.Run("Case "+strconv.Itoa(i), func(t *testing.T) {
			got := Similarity(v.s1, v.s2, v.caseSensitive)
			if math.Abs(got-v.want) > tolerance {
				t.Errorf("got %.5f, want %.5f", got, v.want)
			}
		})
	}
}

func matchValues(matches []Match) []string {
	res := make([]string, len(matches))
	for i, m := range matches {
		res[i] = m.Value
	}
	return res
}

func TestExtract(t *testing.T) {
	zones := []string{"Europe/Oslo", "Europe/London", "America/New_York", "Asia/Tokyo"}

	testCases := []struct {
		query         string
		options       []string
		threshold     float64
		caseSensitive bool
		limit         int
		want          []string
	}{
		{"europe/olso", zones, AdaptiveThreshold, false, 1, []string{"Europe/Oslo"}},
		{"europe/oslo", zones, 0.95, false, -1, []string{"Europe/Oslo"}},
		{"america/new york", zones, 0.9, false, 1, []string{"America/New_York"}},
		{"tokyo", zones, AdaptiveThreshold, false, -1, nil},

		{"roels", []string{"reoles", "othermenu", "role", "roles"}, 0.7, true, 2, []string{"roles", "reoles"}},
		{"roels", []string{"reoles", "othermenu", "role", "roles"}, 0.7, true, -1, []string{"roles", "reoles", "role"}},
		{"roels", []string{"reoles", "othermenu", "role", "roles"}, AdaptiveThreshold, true, -1, []string{"roles", "reoles", "role"}},
		{"britney spears", []string{"zac ephron", "zac efron", "britney spheres", "brtney speears"}, 0.8, true, -1, []string{"brtney speears", "britney spheres"}},

		{"zac EFroN", []string{"zAc ePhrOn", "Kai Ephron"}, 0.9, false, 0, nil},
		{"zac EFroN", []string{"zAc ePhrOn", "Kai Ephron"}, 0.9, false, 1, []string{"zAc ePhrOn"}},
		{"as", []string{"asd", "bas", "hello", "world"}, AdaptiveThreshold, false, -1, nil},
	}

	for i, v := range testCases {
		t.Run("Case "+strconv.Itoa(i), func(t *testing.T) {
			got := Extract(v.query, v.options, v.threshold, v.caseSensitive, v.limit)
			if len(got) != len(v.want) {
				t.Errorf("got %#v, wanted %#v", matchValues(got), v.want)
				return
			}

			for y, m := range got {
				if m.Value != v.want[y] {
					t.Errorf("got %#v, wanted %#v", matchValues(got), v.want)
					return
				}
			}
		})
	}
}
