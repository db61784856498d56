package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"NSString", "NSStrng", 1},
		{"UIView", "UIViwe", 2},
	}
	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.s1, tt.s2))
		})
	}
}

func TestSuggestSymbols(t *testing.T) {
	symbols := []string{"NSString", "NSSet", "NSNumber", "NSStream", "UIView"}

	assert.Equal(t, []string{"NSString", "NSStream"}, SuggestSymbols("NSStrng", symbols))
	assert.Equal(t, []string{"UIView"}, SuggestSymbols("uiview", symbols))
	assert.Empty(t, SuggestSymbols("CGAffineTransform", symbols))

	many := []string{"ab", "ac", "ad", "ae"}
	assert.Equal(t, []string{"ab", "ac", "ad"}, SuggestSymbols("a", many))
}
