// Package jargon is the second stage of the transcript cascade. It
// fuzzy-matches tokens against a canonical term list and substitutes
// high-confidence matches, fixing domain vocabulary the speech model
// mishears. Substitution is deterministic, including the tie-break rule.
package jargon
