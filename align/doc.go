// Package align is the third stage of the transcript cascade. It merges
// word-timestamped utterances with independently produced diarization
// segments into speaker-attributed utterances using a maximum-overlap rule
// with a deterministic tie-break.
package align
