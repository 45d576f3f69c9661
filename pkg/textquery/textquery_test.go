package textquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	return NewBuilder(cfg)
}

func TestDefaultConfigLoadsStopwords(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	for _, w := range []string{"the", "and", "een", "niet", "syllabus", "hoofdstuk"} {
		_, ok := cfg.Stopwords[w]
		assert.True(t, ok, "stopword %q missing", w)
	}
}

func TestCleanStripsPunctuationAndLowercases(t *testing.T) {
	b := newBuilder(t)

	got := b.Clean("Economic_History[2004].pdf")
	assert.NotContains(t, got, "[")
	assert.NotContains(t, got, "]")
	assert.NotContains(t, got, ".pdf")
	assert.NotContains(t, got, "_")
	assert.Equal(t, strings.ToLower(got), got)
}

func TestExtractTokenBand(t *testing.T) {
	b := newBuilder(t)

	tests := []struct {
		name   string
		source string
		ok     bool
	}{
		{"two tokens excluded", "quantum mechanics", false},
		{"three tokens included", "quantum mechanics primer", true},
		{"ten tokens included", "alpha beta gamma delta epsilon zeta eta theta iota kappa", true},
		{"eleven tokens excluded", "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda", false},
		{"empty excluded", "", false},
		{"only stopwords excluded", "the and of", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := b.Extract(tt.source)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestExtractStopwordsReduceTokenCount(t *testing.T) {
	b := newBuilder(t)

	// Five words, two of them stopwords: band check sees three.
	c, ok := b.Extract("the economic history of netherlands")
	require.True(t, ok)
	assert.Equal(t, []string{"economic", "history", "netherlands"}, c.Tokens)
}

func TestExtractYear(t *testing.T) {
	b := newBuilder(t)

	c, ok := b.Extract("dutch_maritime_trade_1652.pdf")
	require.True(t, ok)
	assert.Equal(t, "", c.Year, "1652 is outside [1900,2099]")

	c, ok = b.Extract("dutch_maritime_trade_2004.pdf")
	require.True(t, ok)
	assert.Equal(t, "2004", c.Year)
}

func TestQueryAssembly(t *testing.T) {
	b := newBuilder(t)

	q := b.Query(Candidate{Tokens: []string{"economic", "wb", "history", "netherlands"}})
	assert.Equal(t, "economic AND history AND netherlands", q,
		"tokens shorter than 3 characters drop at assembly time")

	q = b.Query(Candidate{Tokens: []string{"economic", "history"}, Year: "2004"})
	assert.Equal(t, "economic AND history AND yr:2004", q)
}

func TestExtractDropsShortDigitRuns(t *testing.T) {
	b := newBuilder(t)

	c, ok := b.Extract("week 12 reading assignment economics")
	require.True(t, ok)
	for _, tok := range c.Tokens {
		assert.NotEqual(t, "12", tok)
	}
}

func TestCleanedRetainedForSimilarity(t *testing.T) {
	b := newBuilder(t)

	c, ok := b.Extract("Economic_History_Netherlands_2004.pdf")
	require.True(t, ok)
	assert.NotEmpty(t, c.Cleaned)
	assert.Contains(t, c.Cleaned, "economic")
}
