// Package normalize is the first stage of the transcript cascade. It calls
// the punctuation/truecasing capability and then removes filler tokens,
// guaranteeing well-formed sentence boundaries for every downstream
// sentence-aware stage.
package normalize
