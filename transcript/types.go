package transcript

import (
	"fmt"
	"time"
)

// UnknownSpeaker is the sentinel assigned to utterances that fall in a
// diarization coverage gap. The aligner never guesses across a gap.
const UnknownSpeaker = "SPEAKER_UNKNOWN"

// Word is a single transcribed word with its time interval in seconds
// from the start of the meeting.
type Word struct {
	// Text is the transcribed word.
	Text string `json:"text"`
	// Start is the word start time in seconds.
	Start float64 `json:"start"`
	// End is the word end time in seconds.
	End float64 `json:"end"`
}

// Utterance is a contiguous run of words with a time interval, plain text,
// and (after alignment) a speaker label. Immutable once produced.
type Utterance struct {
	// Text is the utterance text.
	Text string `json:"text"`
	// Start is the utterance start time in seconds.
	Start float64 `json:"start"`
	// End is the utterance end time in seconds.
	End float64 `json:"end"`
	// Speaker is the attributed speaker label, or UnknownSpeaker when the
	// diarization output does not cover this interval. Empty before alignment.
	Speaker string `json:"speaker,omitempty"`
}

// Duration returns the utterance duration in seconds.
func (u Utterance) Duration() float64 { return u.End - u.Start }

// SpeakerSegment is a speaker-attributed time range produced by the
// diarization capability. Read-only input to the aligner.
type SpeakerSegment struct {
	// Speaker is the diarization speaker label.
	Speaker string `json:"speaker"`
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
}

// ChunkHeader is the metadata header injected at the top of each chunk to
// carry cross-chunk continuity into the map stage.
type ChunkHeader struct {
	// Index is the 1-based chunk index.
	Index int `json:"index"`
	// Total is the number of chunks in the meeting.
	Total int `json:"total"`
	// Speakers is the set of distinct speaker labels present in the chunk.
	Speakers []string `json:"speakers"`
	// TimeRange is the wall-clock span of the chunk, e.g. "[00:03 - 00:17]".
	TimeRange string `json:"time_range"`
	// PreviousTopic is a short summary of the preceding chunk's topic.
	// Populated only after that chunk has been mapped.
	PreviousTopic string `json:"previous_topic,omitempty"`
}

// String renders the header in the form prepended to chunk text.
func (h ChunkHeader) String() string {
	s := fmt.Sprintf("[%d/%d] %s speakers=%v", h.Index, h.Total, h.TimeRange, h.Speakers)
	if h.PreviousTopic != "" {
		s += fmt.Sprintf(" previously=%q", h.PreviousTopic)
	}
	return s
}

// Chunk is an ordered, contiguous run of attributed utterances covering one
// coherent topic. Created by the segmenter, consumed once by the map stage.
type Chunk struct {
	// Header carries the chunk metadata.
	Header ChunkHeader `json:"header"`
	// Utterances are the attributed utterances in transcript order.
	Utterances []Utterance `json:"utterances"`
}

// Speakers returns the distinct speaker labels in utterance order of first
// appearance.
func (c Chunk) Speakers() []string {
	seen := make(map[string]bool, 4)
	var out []string
	for _, u := range c.Utterances {
		if u.Speaker == "" || seen[u.Speaker] {
			continue
		}
		seen[u.Speaker] = true
		out = append(out, u.Speaker)
	}
	return out
}

// Text returns the chunk body as speaker-prefixed lines.
func (c Chunk) Text() string {
	var b []byte
	for i, u := range c.Utterances {
		if i > 0 {
			b = append(b, '\n')
		}
		if u.Speaker != "" {
			b = append(b, fmt.Sprintf("%s: %s", u.Speaker, u.Text)...)
		} else {
			b = append(b, u.Text...)
		}
	}
	return string(b)
}

// WordCount returns the number of whitespace-delimited tokens in the chunk.
func (c Chunk) WordCount() int {
	n := 0
	for _, u := range c.Utterances {
		n += countWords(u.Text)
	}
	return n
}

// TimeRange formats the span of the given utterances as "[MM:SS - MM:SS]"
// (or "[HH:MM:SS - HH:MM:SS]" past one hour).
func TimeRange(utterances []Utterance) string {
	if len(utterances) == 0 {
		return "[unknown]"
	}
	return fmt.Sprintf("[%s - %s]", clock(utterances[0].Start), clock(utterances[len(utterances)-1].End))
}

// NewMeetingID formats a session identifier from a start time, matching the
// session directory naming used by recorders.
func NewMeetingID(t time.Time) string {
	return t.Format("2006-01-02_15-04-05")
}

func clock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func countWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
