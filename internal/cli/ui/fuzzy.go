package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still suggested
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions
	DefaultMaxSuggestions = 3
)

type suggestion struct {
	value    string
	distance int
}

// SuggestSymbols returns up to DefaultMaxSuggestions symbol names close to
// name, closest first. Matching ignores case since Objective-C prefixes are
// often mistyped.
//
// Example:
//
//	SuggestSymbols("NSStrng", []string{"NSString", "NSNumber", "NSSet"})
//	// Returns: ["NSString"]
func SuggestSymbols(name string, symbols []string) []string {
	target := strings.ToLower(name)

	var found []suggestion
	for _, s := range symbols {
		dist := LevenshteinDistance(target, strings.ToLower(s))
		if dist <= DefaultMaxDistance {
			found = append(found, suggestion{value: s, distance: dist})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].value < found[j].value
	})

	result := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(found) && i < DefaultMaxSuggestions; i++ {
		result = append(result, found[i].value)
	}
	return result
}

// LevenshteinDistance returns the minimum number of single-byte insertions,
// deletions or substitutions turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// two rows are enough: row i only reads row i-1
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
