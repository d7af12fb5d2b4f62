// Package transcript defines the data model shared by the pipeline stages:
// words and utterances with second-precision time intervals, speaker
// segments from diarization, and topic chunks with metadata headers.
//
// Values are handed off between stages by value; no stage mutates data it
// did not produce.
package transcript
