// Package diarize defines the speaker-diarization capability interface.
// Its output is read-only input to the aligner; the core never mutates
// speaker segments.
package diarize

import (
	"context"

	"github.com/skillsenselab/scribeflow/provider"
	"github.com/skillsenselab/scribeflow/transcript"
)

// Request holds parameters for a diarization call.
type Request struct {
	// AudioPath is the path to the audio file to diarize.
	AudioPath string `json:"audio_path"`
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int `json:"num_speakers,omitempty"`
	// MinSpeakers is the minimum expected number of speakers.
	MinSpeakers int `json:"min_speakers,omitempty"`
	// MaxSpeakers is the maximum expected number of speakers.
	MaxSpeakers int `json:"max_speakers,omitempty"`
}

// Response holds the result of a diarization call.
type Response struct {
	// Segments contains speaker-attributed time segments.
	Segments []transcript.SpeakerSegment `json:"segments"`
	// NumSpeakers is the number of speakers detected.
	NumSpeakers int `json:"num_speakers"`
}

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize sends audio for speaker diarization and returns the result.
	Diarize(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a new provider registry for diarization backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
