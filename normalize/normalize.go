package normalize

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/restore"
)

// Normalizer turns raw, unpunctuated ASR text into clean text with sentence
// boundaries. Restoration runs first, disfluency removal second; removing
// fillers from unpunctuated text corrupts the word-boundary signal the
// restoration model depends on, so the order is a correctness requirement.
type Normalizer struct {
	provider restore.Provider
	cfg      Config
	fillerRe *regexp.Regexp
	log      *logger.Logger
}

// New creates a Normalizer backed by the given restoration provider.
func New(p restore.Provider, cfg Config) *Normalizer {
	cfg.ApplyDefaults()
	return &Normalizer{
		provider: p,
		cfg:      cfg,
		fillerRe: compileFillers(cfg.Fillers),
		log:      logger.Get("normalize"),
	}
}

// Normalize restores punctuation and capitalization, then strips filler
// tokens. If the restoration capability is unavailable or fails, the whole
// stage fails; unpunctuated text must never pass through silently because
// every downstream stage depends on sentence boundaries.
func (n *Normalizer) Normalize(ctx context.Context, rawText string) (string, error) {
	if strings.TrimSpace(rawText) == "" {
		return "", nil
	}
	if !n.provider.IsAvailable(ctx) {
		return "", errors.CapabilityUnavailable("punctuation restoration", nil)
	}

	resp, err := n.provider.Restore(ctx, restore.Request{Text: rawText, Language: n.cfg.Language})
	if err != nil {
		return "", errors.CapabilityFailed("punctuation restoration", err)
	}

	out := n.removeDisfluencies(resp.Text)
	return ensureTerminal(out), nil
}

// removeDisfluencies strips filler tokens from already-punctuated text and
// repairs the whitespace and capitalization around the removals.
func (n *Normalizer) removeDisfluencies(text string) string {
	out := n.fillerRe.ReplaceAllString(text, " ")
	out = spaceRe.ReplaceAllString(out, " ")
	out = strings.ReplaceAll(out, " ,", ",")
	out = strings.ReplaceAll(out, " .", ".")
	out = strings.ReplaceAll(out, " ?", "?")
	out = strings.ReplaceAll(out, " !", "!")
	out = strings.ReplaceAll(out, ",.", ".")
	out = strings.TrimSpace(out)
	return capitalizeSentences(out)
}

var spaceRe = regexp.MustCompile(`\s+`)

// compileFillers builds a case-insensitive word-boundary alternation over
// the filler list. Longer fillers are matched first so "uh-huh" is not
// consumed as "uh". An optional trailing comma goes with the filler.
func compileFillers(fillers []string) *regexp.Regexp {
	sorted := make([]string, len(fillers))
	copy(sorted, fillers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j]) > len(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	quoted := make([]string, len(sorted))
	for i, f := range sorted {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b,?`)
}

// capitalizeSentences upper-cases the first letter of the text and the first
// letter after each terminal punctuation mark. Idempotent on text that is
// already capitalized.
func capitalizeSentences(text string) string {
	runes := []rune(text)
	atStart := true
	for i, r := range runes {
		switch {
		case r == '.' || r == '!' || r == '?':
			atStart = true
		case unicode.IsLetter(r):
			if atStart {
				runes[i] = unicode.ToUpper(r)
				atStart = false
			}
		}
	}
	return string(runes)
}

// ensureTerminal guarantees the output ends with terminal punctuation.
func ensureTerminal(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	last := runes[len(runes)-1]
	switch last {
	case '.', '!', '?':
		return text
	case ',', ';', ':':
		return string(runes[:len(runes)-1]) + "."
	default:
		return text + "."
	}
}
