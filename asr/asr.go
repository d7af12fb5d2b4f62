// Package asr defines the speech-to-text capability interface. Backends
// must return word-level timestamps; segment-level timestamps are not
// sufficient for speaker alignment downstream.
package asr

import (
	"context"

	"github.com/skillsenselab/scribeflow/provider"
	"github.com/skillsenselab/scribeflow/transcript"
)

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio chunk to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the transcription model to use.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Words contains the transcribed words with word-level timestamps.
	Words []transcript.Word `json:"words"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Provider is the interface that speech-to-text backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for transcription and returns word-level results.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a new provider registry for speech-to-text backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
