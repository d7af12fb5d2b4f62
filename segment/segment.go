package segment

import (
	"math"
	"strings"

	"github.com/skillsenselab/scribeflow/transcript"
)

// Segmenter splits an attributed, sentence-bounded transcript into topically
// coherent chunks. Boundaries come from a lexical-cohesion score over
// sliding sentence windows; a word budget forces a split when a topic runs
// long, and consecutive chunks share a small sentence overlap for
// continuity.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter.
func New(cfg Config) *Segmenter {
	cfg.ApplyDefaults()
	return &Segmenter{cfg: cfg}
}

// Segment chunks the utterances and fills in every header field except
// PreviousTopic, which depends on the preceding chunk's map output and is
// populated later by the summarization flow.
func (s *Segmenter) Segment(utterances []transcript.Utterance) []transcript.Chunk {
	if len(utterances) == 0 {
		return nil
	}

	boundaries := s.boundaries(utterances)
	chunks := s.cut(utterances, boundaries)

	for i := range chunks {
		chunks[i].Header = transcript.ChunkHeader{
			Index:     i + 1,
			Total:     len(chunks),
			Speakers:  chunks[i].Speakers(),
			TimeRange: transcript.TimeRange(chunks[i].Utterances),
		}
	}
	return chunks
}

// boundaries returns the utterance indexes where a new chunk should begin,
// based on cohesion between the windows before and after each gap.
func (s *Segmenter) boundaries(utterances []transcript.Utterance) map[int]bool {
	out := make(map[int]bool)
	vocab := make([]map[string]int, len(utterances))
	for i, u := range utterances {
		vocab[i] = termCounts(u.Text)
	}

	w := s.cfg.WindowSentences
	for gap := 1; gap < len(utterances); gap++ {
		lo := gap - w
		if lo < 0 {
			lo = 0
		}
		hi := gap + w
		if hi > len(utterances) {
			hi = len(utterances)
		}
		before := mergeCounts(vocab[lo:gap])
		after := mergeCounts(vocab[gap:hi])
		if cosine(before, after) < s.cfg.BoundaryThreshold {
			out[gap] = true
		}
	}
	return out
}

// cut walks the utterances, starting a new chunk at each detected boundary
// and forcing a split when the word budget would be exceeded. Each chunk
// after the first opens with the tail of its predecessor.
func (s *Segmenter) cut(utterances []transcript.Utterance, boundaries map[int]bool) []transcript.Chunk {
	var chunks []transcript.Chunk
	var current []transcript.Utterance
	words := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, transcript.Chunk{Utterances: current})
		overlap := s.cfg.OverlapSentences
		if overlap > len(current) {
			overlap = len(current)
		}
		tail := current[len(current)-overlap:]
		current = make([]transcript.Utterance, len(tail))
		copy(current, tail)
		words = 0
		for _, u := range current {
			words += wordCount(u.Text)
		}
	}

	for i, u := range utterances {
		n := wordCount(u.Text)
		if len(current) > 0 && (boundaries[i] || words+n > s.cfg.MaxChunkWords) {
			flush()
		}
		current = append(current, u)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, transcript.Chunk{Utterances: current})
	}
	return chunks
}

// termCounts lower-cases the text and counts content terms, dropping
// stopwords and very short tokens that carry no topical signal.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		term := b.String()
		b.Reset()
		if len(term) < 3 || stopwords[term] {
			return
		}
		counts[term]++
	}
	for _, r := range strings.ToLower(text) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return counts
}

func mergeCounts(ms []map[string]int) map[string]int {
	out := make(map[string]int)
	for _, m := range ms {
		for k, v := range m {
			out[k] += v
		}
	}
	return out
}

// cosine computes the cosine similarity between two term-frequency vectors.
// Empty vectors score zero.
func cosine(a, b map[string]int) float64 {
	var dot, na, nb float64
	for k, va := range a {
		na += float64(va * va)
		if vb, ok := b[k]; ok {
			dot += float64(va * vb)
		}
	}
	for _, vb := range b {
		nb += float64(vb * vb)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func wordCount(s string) int { return len(strings.Fields(s)) }

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "his": true,
	"has": true, "had": true, "how": true, "man": true, "new": true,
	"now": true, "old": true, "see": true, "two": true, "way": true,
	"who": true, "its": true, "did": true, "get": true, "may": true,
	"that": true, "this": true, "with": true, "from": true, "they": true,
	"will": true, "have": true, "what": true, "when": true, "your": true,
	"said": true, "there": true, "about": true, "which": true, "were": true,
	"been": true, "their": true, "would": true, "these": true, "then": true,
	"them": true, "some": true, "into": true, "than": true, "could": true,
	"just": true, "also": true, "like": true, "well": true, "going": true,
	"think": true, "know": true, "really": true, "okay": true, "yeah": true,
	"right": true, "thing": true, "things": true,
}
