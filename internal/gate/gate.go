// Package gate rejects transcripts too short to analyze.
package gate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// DefaultMinWords is the minimum transcript length in words
const DefaultMinWords = 5

// Verdict is the outcome of checking one transcript
type Verdict struct {
	Pass   bool
	Reason string // Set when Pass is false
	Words  int
}

// Gate checks transcripts against a minimum word count
type Gate struct {
	minWords int
}

// New creates a gate. A non-positive minimum falls back to DefaultMinWords.
func New(minWords int) *Gate {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &Gate{minWords: minWords}
}

// Check returns pass, or reject with a reason, for the trimmed transcript
func (g *Gate) Check(transcript string) Verdict {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return Verdict{Reason: "transcript is empty"}
	}

	words := model.WordCount(trimmed)
	if words < g.minWords {
		return Verdict{
			Reason: fmt.Sprintf("transcript has %d words, minimum is %d", words, g.minWords),
			Words:  words,
		}
	}

	return Verdict{Pass: true, Words: words}
}
