package segment

import (
	"testing"

	"github.com/skillsenselab/scribeflow/transcript"
)

func attributed(speaker string, texts ...string) []transcript.Utterance {
	out := make([]transcript.Utterance, len(texts))
	for i, text := range texts {
		out[i] = transcript.Utterance{
			Text:    text,
			Start:   float64(i * 10),
			End:     float64(i*10 + 8),
			Speaker: speaker,
		}
	}
	return out
}

func TestSegmentSplitsDisjointTopics(t *testing.T) {
	first := attributed("spk0",
		"The database schema migration needs careful index planning.",
		"Every database index rebuild locks the schema briefly.",
		"Schema versioning keeps the database migration reversible.",
		"Index bloat slows the database after each migration.",
		"Migration tooling validates the schema against the database.",
	)
	second := attributed("spk1",
		"Our marketing campaign budget targets a wider audience.",
		"Audience research shapes the campaign messaging budget.",
		"The campaign launch depends on marketing budget approval.",
		"Budget reviews happen before every marketing campaign.",
		"Campaign metrics guide future marketing audience spend.",
	)
	for i := range second {
		second[i].Start += 50
		second[i].End += 50
	}

	s := New(Config{BoundaryThreshold: 0.1})
	chunks := s.Segment(append(append([]transcript.Utterance{}, first...), second...))

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	// The boundary falls between the halves: the first chunk is all
	// database talk, and no marketing sentence appears before it ends.
	for _, u := range chunks[0].Utterances {
		if u.Speaker != "spk0" {
			t.Errorf("first chunk contains second-half utterance %q", u.Text)
		}
	}
	last := chunks[len(chunks)-1]
	if got := last.Utterances[len(last.Utterances)-1].Speaker; got != "spk1" {
		t.Errorf("final chunk should end in the second half, got speaker %s", got)
	}
}

func TestSegmentSingleTopicStaysWhole(t *testing.T) {
	utterances := attributed("spk0",
		"The database schema migration needs careful index planning.",
		"Every database index rebuild locks the schema briefly.",
		"Schema versioning keeps the database migration reversible.",
	)
	s := New(Config{})
	chunks := s.Segment(utterances)
	if len(chunks) != 1 {
		t.Fatalf("cohesive transcript split into %d chunks", len(chunks))
	}
}

func TestSegmentForcesSplitAtWordBudget(t *testing.T) {
	utterances := attributed("spk0",
		"database schema migration index planning review today",
		"database schema migration index planning review again",
		"database schema migration index planning review still",
		"database schema migration index planning review more",
	)
	s := New(Config{MaxChunkWords: 10, OverlapSentences: 1})
	chunks := s.Segment(utterances)

	if len(chunks) < 2 {
		t.Fatalf("budget of 10 words over %d-word sentences should force splits, got %d chunks", 7, len(chunks))
	}
	// One overlap sentence may ride along; beyond that the budget holds.
	for i, c := range chunks {
		if c.WordCount() > 10+7 {
			t.Errorf("chunk %d has %d words, exceeds budget plus overlap", i, c.WordCount())
		}
	}
}

func TestSegmentOverlapContinuity(t *testing.T) {
	utterances := attributed("spk0",
		"database schema migration index planning review today",
		"database schema migration index planning review again",
		"database schema migration index planning review still",
	)
	s := New(Config{MaxChunkWords: 10, OverlapSentences: 1})
	chunks := s.Segment(utterances)
	if len(chunks) < 2 {
		t.Fatalf("expected forced splits, got %d chunks", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Utterances
		if chunks[i].Utterances[0].Text != prev[len(prev)-1].Text {
			t.Errorf("chunk %d does not open with chunk %d's final sentence", i+1, i)
		}
	}
}

func TestSegmentHeaders(t *testing.T) {
	utterances := []transcript.Utterance{
		{Text: "The database schema migration needs careful index planning.", Start: 3, End: 9, Speaker: "spk0"},
		{Text: "Schema versioning keeps the database migration reversible.", Start: 9, End: 17, Speaker: "spk1"},
	}
	s := New(Config{})
	chunks := s.Segment(utterances)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks", len(chunks))
	}

	h := chunks[0].Header
	if h.Index != 1 || h.Total != 1 {
		t.Errorf("index = [%d/%d], want [1/1]", h.Index, h.Total)
	}
	if len(h.Speakers) != 2 || h.Speakers[0] != "spk0" || h.Speakers[1] != "spk1" {
		t.Errorf("speakers = %v", h.Speakers)
	}
	if h.TimeRange != "[00:03 - 00:17]" {
		t.Errorf("time range = %q", h.TimeRange)
	}
	if h.PreviousTopic != "" {
		t.Errorf("previous topic should be unset until the prior chunk is mapped, got %q", h.PreviousTopic)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	s := New(Config{})
	if chunks := s.Segment(nil); chunks != nil {
		t.Errorf("expected nil, got %v", chunks)
	}
}
