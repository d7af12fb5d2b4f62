// Package provider defines the generic factory/registry plumbing used by
// the capability packages (asr, restore, diarize, llm). Each capability
// exposes an interface embedding provider.Provider and registers concrete
// backends by name.
package provider
