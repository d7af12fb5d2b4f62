package jargon

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Corrector substitutes high-confidence fuzzy matches from a canonical term
// list. It is a pure transform: the same input text and term list always
// produce the same output.
type Corrector struct {
	cfg Config
}

// New creates a Corrector. Term order is significant: when two terms tie on
// similarity the one appearing earlier in the list wins.
func New(cfg Config) *Corrector {
	cfg.ApplyDefaults()
	return &Corrector{cfg: cfg}
}

// Correct replaces each token whose best canonical-term similarity meets the
// configured threshold. Tokens below the threshold, below the minimum length,
// or with no terms configured pass through unchanged. Surrounding punctuation
// is preserved; the matched core is replaced with the canonical spelling.
func (c *Corrector) Correct(text string) string {
	if len(c.cfg.Terms) == 0 || text == "" {
		return text
	}

	fields := strings.Split(text, " ")
	for i, field := range fields {
		prefix, core, suffix := splitToken(field)
		if len([]rune(core)) < c.cfg.MinTokenLength {
			continue
		}
		if term, ok := c.bestMatch(core); ok {
			fields[i] = prefix + term + suffix
		}
	}
	return strings.Join(fields, " ")
}

// bestMatch returns the canonical term with the highest similarity to the
// token, provided it meets the threshold. Only a strictly greater score
// displaces an earlier candidate, so ties resolve to list order.
func (c *Corrector) bestMatch(token string) (string, bool) {
	lower := strings.ToLower(token)
	best := ""
	bestScore := -1
	for _, term := range c.cfg.Terms {
		score := Similarity(lower, strings.ToLower(term))
		if score > bestScore {
			best = term
			bestScore = score
		}
	}
	if bestScore >= c.cfg.Threshold {
		return best, true
	}
	return "", false
}

// Similarity scores two strings on a 0-100 scale using edit distance
// normalized by the combined length: 100 * (1 - d / (len(a) + len(b))).
// Identical strings score 100; fully disjoint equal-length strings score 50.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la+lb == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(100.0 * (1.0 - float64(d)/float64(la+lb)))
}

// splitToken separates leading and trailing non-alphanumeric runes from the
// token core so punctuation survives substitution.
func splitToken(field string) (prefix, core, suffix string) {
	runes := []rune(field)
	start := 0
	for start < len(runes) && !isWordRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isWordRune(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'
}
