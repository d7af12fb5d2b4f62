package payload

import (
	"context"
	"testing"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/transcript"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	chunk := transcript.Chunk{
		Header:     transcript.ChunkHeader{Index: 1, Total: 2, Speakers: []string{"spk0"}},
		Utterances: []transcript.Utterance{{Text: "hello", Start: 0, End: 1, Speaker: "spk0"}},
	}
	ref := ChunkRef("2026-08-30_10-00-00", 1)
	if err := s.Save(ctx, ref, chunk); err != nil {
		t.Fatal(err)
	}

	var got transcript.Chunk
	if err := s.Load(ctx, ref, &got); err != nil {
		t.Fatal(err)
	}
	if got.Header.Index != 1 || len(got.Utterances) != 1 || got.Utterances[0].Text != "hello" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if err := s.Load(context.Background(), "m1/nope.json", &v); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestExistsTracksSave(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ref := NoteRef("m1")

	if s.Exists(ctx, ref) {
		t.Error("payload should not exist yet")
	}
	if err := s.Save(ctx, ref, map[string]string{"title": "x"}); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(ctx, ref) {
		t.Error("payload should exist after save")
	}
}

func TestRefsAreDeterministic(t *testing.T) {
	if ChunkRef("m1", 3) != ChunkRef("m1", 3) {
		t.Error("chunk refs must be stable")
	}
	if ChunkRef("m1", 3) == ExtractionRef("m1", 3) {
		t.Error("chunk and extraction refs must differ")
	}
}
