package align

import (
	"strings"

	"github.com/skillsenselab/scribeflow/transcript"
)

// Align assigns each utterance the speaker of the diarization segment with
// the greatest temporal overlap. Overlap is min(uEnd, sEnd) - max(uStart,
// sStart), clamped to zero. When two segments overlap an utterance equally,
// the segment starting earlier wins. An utterance with no positive overlap
// falls in a diarization coverage gap and gets the unknown-speaker sentinel;
// the aligner never guesses across a gap.
//
// The input slices are not mutated; attributed copies are returned in the
// original utterance order.
func Align(utterances []transcript.Utterance, segments []transcript.SpeakerSegment) []transcript.Utterance {
	out := make([]transcript.Utterance, len(utterances))
	for i, u := range utterances {
		out[i] = u
		out[i].Speaker = speakerFor(u, segments)
	}
	return out
}

func speakerFor(u transcript.Utterance, segments []transcript.SpeakerSegment) string {
	best := -1
	bestOverlap := 0.0
	for i, s := range segments {
		ov := overlap(u, s)
		if ov <= 0 {
			continue
		}
		switch {
		case best == -1 || ov > bestOverlap:
			best = i
			bestOverlap = ov
		case ov == bestOverlap && s.Start < segments[best].Start:
			best = i
		}
	}
	if best == -1 {
		return transcript.UnknownSpeaker
	}
	return segments[best].Speaker
}

func overlap(u transcript.Utterance, s transcript.SpeakerSegment) float64 {
	start := u.Start
	if s.Start > start {
		start = s.Start
	}
	end := u.End
	if s.End < end {
		end = s.End
	}
	return end - start
}

// BuildUtterances splits normalized text into sentence utterances and
// assigns each a time interval by consuming the word-level timestamps in
// order, proportionally to the sentence's token count. Normalization may
// drop tokens relative to the raw word stream, so allocation is best-effort:
// leftover words extend the final utterance.
func BuildUtterances(text string, words []transcript.Word) []transcript.Utterance {
	sentences := transcript.SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	out := make([]transcript.Utterance, 0, len(sentences))
	pos := 0
	for i, sentence := range sentences {
		n := len(strings.Fields(sentence))
		if n == 0 {
			continue
		}
		first := pos
		last := pos + n - 1
		if i == len(sentences)-1 {
			last = len(words) - 1
		}
		if last >= len(words) {
			last = len(words) - 1
		}
		if first >= len(words) {
			first = len(words) - 1
		}
		u := transcript.Utterance{Text: sentence}
		if first >= 0 && last >= first {
			u.Start = words[first].Start
			u.End = words[last].End
		}
		out = append(out, u)
		pos += n
	}
	return out
}
