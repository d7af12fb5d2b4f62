// Package segment is the fourth stage of the transcript cascade. It detects
// topic-shift boundaries via lexical cohesion, enforces a per-chunk word
// budget, and annotates each chunk with a metadata header (index, speaker
// set, time range) for the map stage.
package segment
