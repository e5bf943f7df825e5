package assembler

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches(texts ...string) []docModel.RetrievalMatch {
	out := make([]docModel.RetrievalMatch, len(texts))
	for i, t := range texts {
		out[i] = docModel.RetrievalMatch{Text: t, Score: float32(len(texts) - i)}
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		matches []docModel.RetrievalMatch
		budget  int
		want    string
	}{
		{"empty", nil, 100, ""},
		{"all fit", matches("alpha", "beta", "gamma"), 100, "alpha\nbeta\ngamma"},
		{"separator counts", matches("aaaa", "bbbb"), 9, "aaaa\nbbbb"},
		{"stops at first overflow", matches("aaaa", "bbbb", "c"), 8, "aaaa"},
		{"does not skip ahead to smaller chunks", matches("aaaa", "bbbbbbbb", "c"), 10, "aaaa"},
		{"top match truncated alone", matches("one two three four five", "x"), 12, "one two"},
		{"multibyte counted as characters", matches("héllo", "wörld"), 11, "héllo\nwörld"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.matches, tt.budget)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.budget)
		})
	}
}

func TestAssemble_HardTruncateWithoutSpaces(t *testing.T) {
	got, err := Assemble(matches(strings.Repeat("z", 50)), 20)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("z", 20), got)
}

func TestAssemble_InvalidBudget(t *testing.T) {
	_, err := Assemble(matches("a"), 0)
	assert.True(t, ragError.Is(err, ragError.InvalidConfiguration))
}

func TestAssemble_Deterministic(t *testing.T) {
	in := matches("first chunk", "second chunk", "third chunk")
	a, _ := Assemble(in, 30)
	b, _ := Assemble(in, 30)
	assert.Equal(t, a, b)
}
