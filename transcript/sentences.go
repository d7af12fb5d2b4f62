package transcript

import "strings"

// SplitSentences splits normalized text on terminal punctuation, keeping the
// punctuation with its sentence. Input is expected to carry well-formed
// sentence boundaries; a trailing fragment without terminal punctuation is
// returned as a final sentence rather than dropped.
func SplitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
