// Package textquery builds catalog search queries out of free-text sources
// such as harvested filenames. The source is lower-cased, stripped of
// punctuation and bracket tokens, cleared of short digit runs and stopwords,
// and the surviving keywords are joined into the catalog's AND-grammar, with
// a publication year extracted into a yr: clause when one is present.
package textquery

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

//go:embed stopwords.yaml
var stopwordsYAML []byte

// stopwordLists mirrors the embedded stopwords.yaml document.
type stopwordLists struct {
	English    []string `yaml:"english"`
	Dutch      []string `yaml:"dutch"`
	Exclusions []string `yaml:"exclusions"`
}

// Config controls keyword extraction.
type Config struct {
	// RemoveTokens are stripped from the source outright.
	// The # must go because it breaks the catalog API's query parser.
	RemoveTokens []string

	// SpaceTokens are replaced with a single space to split words.
	SpaceTokens []string

	// MinWords and MaxWords bound the keyword count (inclusive). Sources
	// outside the band do not qualify for lookup.
	MinWords int
	MaxWords int

	// MinTokenLen drops shorter tokens at query-assembly time.
	MinTokenLen int

	// Stopwords are removed from the keyword list.
	Stopwords map[string]struct{}
}

// DefaultConfig returns the extraction configuration used by the reference
// pipeline, with the embedded English, Dutch, and domain stopword lists.
func DefaultConfig() (Config, error) {
	var lists stopwordLists
	if err := yaml.Unmarshal(stopwordsYAML, &lists); err != nil {
		return Config{}, errors.WrapParse("yaml", "stopwords.yaml", err)
	}

	stop := make(map[string]struct{})
	for _, l := range [][]string{lists.English, lists.Dutch, lists.Exclusions} {
		for _, w := range l {
			stop[w] = struct{}{}
		}
	}

	return Config{
		RemoveTokens: []string{".pdf", "pdf", "[", "]", "{", "}", ".", ",", "#"},
		SpaceTokens:  []string{"_", " - ", "-", "(", ")"},
		MinWords:     3,
		MaxWords:     10,
		MinTokenLen:  3,
		Stopwords:    stop,
	}, nil
}

var (
	yearRe      = regexp.MustCompile(`(19\d\d|20\d\d)`)
	shortDigits = regexp.MustCompile(`\d{1,2}\s?`)
	lower       = cases.Lower(language.Und)
)

// Builder turns free-text sources into query candidates. It is a pure
// function of its configuration and performs no I/O.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder with the given configuration.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Candidate is a qualified keyword set extracted from one source string.
type Candidate struct {
	// Tokens are the surviving keywords, in source order.
	Tokens []string

	// Year is the 4-digit publication year extracted from the source,
	// or empty when none was found.
	Year string

	// Cleaned is the lower-cased, punctuation-stripped source, retained
	// for later title-similarity comparison.
	Cleaned string
}

// Clean lower-cases a string and applies the remove/space token sets.
// The same normalization is applied to returned titles before similarity
// scoring, so both sides of the comparison go through here.
func (b *Builder) Clean(s string) string {
	s = lower.String(s)
	for _, tok := range b.cfg.RemoveTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	for _, tok := range b.cfg.SpaceTokens {
		s = strings.ReplaceAll(s, tok, " ")
	}
	return s
}

// Extract produces a query candidate from a source string. The second
// return value is false when the source does not qualify: no keywords
// survive cleaning, or the keyword count falls outside the configured band.
func (b *Builder) Extract(source string) (Candidate, bool) {
	cleaned := b.Clean(source)

	// The year is taken from the raw source; cleaning may have split or
	// swallowed the digits.
	year := yearRe.FindString(source)

	stripped := shortDigits.ReplaceAllString(cleaned, "")

	var tokens []string
	for _, w := range strings.Fields(stripped) {
		if _, stop := b.cfg.Stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}

	if len(tokens) < b.cfg.MinWords || len(tokens) > b.cfg.MaxWords {
		return Candidate{}, false
	}

	return Candidate{Tokens: tokens, Year: year, Cleaned: cleaned}, true
}

// Query assembles the candidate into the catalog query grammar: tokens
// shorter than MinTokenLen are dropped, the rest joined with " AND ", and a
// " AND yr:<year>" suffix added when a year was extracted.
func (b *Builder) Query(c Candidate) string {
	kept := make([]string, 0, len(c.Tokens))
	for _, tok := range c.Tokens {
		if len(tok) < b.cfg.MinTokenLen {
			continue
		}
		kept = append(kept, tok)
	}

	q := strings.Join(kept, " AND ")
	if c.Year != "" {
		q += " AND yr:" + c.Year
	}
	return q
}
