package model

import "strings"

// CandidateClaim is a factual assertion proposed by the claim extractor
// It is unvalidated until it passes the word-count and non-empty checks
type CandidateClaim struct {
	Claim       string `json:"claim"`       // The claim text itself
	Explanation string `json:"explanation"` // Terse explanation supplied by the model
	Sentinel    bool   `json:"-"`           // Placeholder substituted by the extractor, never grounded
}

// EnrichedClaim is the unit returned to the caller: a claim plus zero or one source
type EnrichedClaim struct {
	Claim               string  `json:"claim"`
	GroundedExplanation string  `json:"grounded_explanation"`
	Source              *Source `json:"source"` // nil when no source was found
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}
