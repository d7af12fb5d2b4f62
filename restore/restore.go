// Package restore defines the punctuation/truecasing capability interface.
// The normalizer depends on this capability to establish sentence boundaries
// before any boundary-sensitive stage runs.
package restore

import (
	"context"

	"github.com/skillsenselab/scribeflow/provider"
)

// Request holds parameters for a restoration call.
type Request struct {
	// Text is raw, unpunctuated, lower-case ASR output.
	Text string `json:"text"`
	// Language is the expected language of the text (e.g. "en").
	Language string `json:"language,omitempty"`
}

// Response holds the result of a restoration call.
type Response struct {
	// Text is the input with punctuation and capitalization restored.
	Text string `json:"text"`
}

// Provider is the interface that punctuation-restoration backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Restore returns the text with punctuation and truecasing applied.
	Restore(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a new provider registry for restoration backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
