package align

import (
	"testing"

	"github.com/skillsenselab/scribeflow/transcript"
)

func TestAlignAssignsGreatestOverlap(t *testing.T) {
	utterances := []transcript.Utterance{
		{Text: "good morning everyone", Start: 0.5, End: 4.0},
		{Text: "thanks for joining", Start: 6.0, End: 9.5},
	}
	segments := []transcript.SpeakerSegment{
		{Speaker: "spk0", Start: 0, End: 5},
		{Speaker: "spk1", Start: 5, End: 10},
	}

	got := Align(utterances, segments)
	if got[0].Speaker != "spk0" {
		t.Errorf("utterance 0 speaker = %s, want spk0", got[0].Speaker)
	}
	if got[1].Speaker != "spk1" {
		t.Errorf("utterance 1 speaker = %s, want spk1", got[1].Speaker)
	}
}

func TestAlignTieGoesToEarlierStart(t *testing.T) {
	// Overlap with A = [4,5) = 1, with B = [5,6) = 1: exact tie, and the
	// earlier-starting segment wins.
	utterances := []transcript.Utterance{{Text: "handover", Start: 4, End: 6}}
	segments := []transcript.SpeakerSegment{
		{Speaker: "spk0", Start: 0, End: 5},
		{Speaker: "spk1", Start: 5, End: 10},
	}

	got := Align(utterances, segments)
	if got[0].Speaker != "spk0" {
		t.Errorf("tie went to %s, want spk0 (earlier start)", got[0].Speaker)
	}
}

func TestAlignTieIndependentOfSegmentOrder(t *testing.T) {
	utterances := []transcript.Utterance{{Text: "handover", Start: 4, End: 6}}
	segments := []transcript.SpeakerSegment{
		{Speaker: "spk1", Start: 5, End: 10},
		{Speaker: "spk0", Start: 0, End: 5},
	}

	got := Align(utterances, segments)
	if got[0].Speaker != "spk0" {
		t.Errorf("tie went to %s, want spk0 regardless of input order", got[0].Speaker)
	}
}

func TestAlignCoverageGapGetsUnknownSentinel(t *testing.T) {
	utterances := []transcript.Utterance{{Text: "orphaned words", Start: 20, End: 22}}
	segments := []transcript.SpeakerSegment{
		{Speaker: "spk0", Start: 0, End: 5},
		{Speaker: "spk1", Start: 5, End: 10},
	}

	got := Align(utterances, segments)
	if got[0].Speaker != transcript.UnknownSpeaker {
		t.Errorf("gap utterance got %s, want %s", got[0].Speaker, transcript.UnknownSpeaker)
	}
}

func TestAlignTouchingBoundaryIsNotOverlap(t *testing.T) {
	// Zero-length contact at a segment edge is a gap, not an overlap.
	utterances := []transcript.Utterance{{Text: "edge", Start: 10, End: 12}}
	segments := []transcript.SpeakerSegment{{Speaker: "spk0", Start: 0, End: 10}}

	got := Align(utterances, segments)
	if got[0].Speaker != transcript.UnknownSpeaker {
		t.Errorf("got %s, want %s", got[0].Speaker, transcript.UnknownSpeaker)
	}
}

func TestAlignDoesNotMutateInput(t *testing.T) {
	utterances := []transcript.Utterance{{Text: "hello", Start: 0, End: 1}}
	segments := []transcript.SpeakerSegment{{Speaker: "spk0", Start: 0, End: 2}}

	_ = Align(utterances, segments)
	if utterances[0].Speaker != "" {
		t.Error("input utterances must not be mutated")
	}
}

func TestBuildUtterances(t *testing.T) {
	words := []transcript.Word{
		{Text: "we", Start: 0.0, End: 0.3},
		{Text: "shipped", Start: 0.3, End: 0.8},
		{Text: "it", Start: 0.8, End: 1.0},
		{Text: "tests", Start: 1.5, End: 2.0},
		{Text: "are", Start: 2.0, End: 2.2},
		{Text: "green", Start: 2.2, End: 2.8},
	}

	got := BuildUtterances("We shipped it. Tests are green.", words)
	if len(got) != 2 {
		t.Fatalf("got %d utterances, want 2", len(got))
	}
	if got[0].Text != "We shipped it." || got[0].Start != 0.0 || got[0].End != 1.0 {
		t.Errorf("utterance 0 = %+v", got[0])
	}
	if got[1].Text != "Tests are green." || got[1].Start != 1.5 || got[1].End != 2.8 {
		t.Errorf("utterance 1 = %+v", got[1])
	}
}

func TestBuildUtterancesAbsorbsLeftoverWords(t *testing.T) {
	// Normalization dropped a filler, so the word stream is one longer than
	// the sentence tokens; the final utterance absorbs the remainder.
	words := []transcript.Word{
		{Text: "um", Start: 0.0, End: 0.2},
		{Text: "we", Start: 0.2, End: 0.5},
		{Text: "agreed", Start: 0.5, End: 1.0},
	}

	got := BuildUtterances("We agreed.", words)
	if len(got) != 1 {
		t.Fatalf("got %d utterances, want 1", len(got))
	}
	if got[0].End != 1.0 {
		t.Errorf("final utterance end = %v, want 1.0", got[0].End)
	}
}
