package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicFloor(t *testing.T) {
	for _, text := range []string{"", "spam", "spam spam", "a\nb", "-- .. //"} {
		a := AnalyzeText(text)
		assert.Less(t, a.Tokens, 3, text)
		assert.False(t, a.Repetitive, text)
	}
}

func TestHeuristicSingleTokenFlood(t *testing.T) {
	a := AnalyzeText(strings.Repeat("spam ", 10))

	assert.Equal(t, 10, a.Tokens)
	assert.Equal(t, 1, a.Distinct)
	assert.InDelta(t, 0.1, a.Diversity, 1e-9)
	assert.InDelta(t, 0.2, a.Threshold, 1e-9)
	assert.True(t, a.Repetitive)
}

func TestHeuristicCases(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"normal sentence", "hey everyone, does anyone know when the event starts?", false},
		{"three identical words", "buy buy buy", true},
		{"three distinct words", "see you tomorrow", false},
		{"punctuation is stripped before tokenizing", "free. free, free- free_ free/ free\\ free free free free", true},
		{"long varied text", strings.Repeat("alpha beta gamma delta epsilon ", 4), false},
		{"two alternating tokens", strings.Repeat("ha lol ", 15), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRepetitive(tc.text))
		})
	}
}

func TestHeuristicRemovesNewlines(t *testing.T) {
	a := AnalyzeText("one\ntwo three")
	assert.Equal(t, 2, a.Tokens)
	assert.False(t, a.Repetitive)
}
