// Package summarize is the final stage of the transcript cascade: an
// independent extraction per chunk (map), one synthesis over the ordered
// concatenation (reduce), and an optional bounded density refinement. A
// failed chunk is isolated and reported, never silently absorbed.
package summarize
