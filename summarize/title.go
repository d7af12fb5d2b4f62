package summarize

import (
	"context"
	"strings"
	"unicode"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/llm"
)

// GenerateTitle produces a short meeting title from the synthesized
// summary. The response is reduced to its first line and stripped of
// quoting and markup.
func (s *Summarizer) GenerateTitle(ctx context.Context, summary string) (string, error) {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: titleSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: TruncateWords(summary, 500)}},
		Options: llm.Options{
			OutputFormat: llm.FormatPlain,
			Temperature:  s.cfg.Temperature,
			MaxTokens:    60,
		},
	})
	if err != nil {
		return "", errors.CapabilityFailed("llm title generation", err)
	}

	title := strings.TrimSpace(resp.Content)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.Trim(title, `"'# *`)
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.CapabilityFailed("llm title generation", nil)
	}
	words := strings.Fields(title)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " "), nil
}

// Slugify reduces a title to a lower-case, filename-safe slug.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

const titleSystemPrompt = `Generate a concise meeting title of at most eight words from the given summary. Respond with the title only: no quotes, no markup, no explanation.`
