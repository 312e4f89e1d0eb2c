// Package extract turns a transcript into a bounded list of candidate claims.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/sirupsen/logrus"
)

// Sentinel claim texts
const (
	FailedClaim             = "Automated content analysis failed for this video"
	FailedExplanation       = "The content could not be parsed into structured claims."
	InconclusiveClaim       = "Analysis inconclusive: no verifiable claims identified"
	InconclusiveExplanation = "The transcript did not contain factual claims specific enough to verify."
)

// FailedSentinel is substituted when model output cannot be parsed
func FailedSentinel() model.CandidateClaim {
	return model.CandidateClaim{Claim: FailedClaim, Explanation: FailedExplanation, Sentinel: true}
}

// InconclusiveSentinel is substituted when no claim survives filtering
func InconclusiveSentinel() model.CandidateClaim {
	return model.CandidateClaim{Claim: InconclusiveClaim, Explanation: InconclusiveExplanation, Sentinel: true}
}

const systemPrompt = `You are a fact-checking assistant. You read transcripts of short social videos and list the factual claims in them that are false or misleading.
Respond with a JSON array only, no prose and no code fences.`

// Defaults applied when Options leave a bound at zero
const (
	DefaultMaxClaims     = 5
	DefaultMinClaimWords = 4
)

// Options control extraction bounds
type Options struct {
	MaxClaims     int // Hard cap on returned claims
	MinClaimWords int // Claims shorter than this are dropped
}

// Extractor asks a language model for candidate claims
type Extractor struct {
	provider llm.Provider
	opts     Options
	log      logrus.FieldLogger
}

// New creates an extractor. Zero options fall back to 5 claims and 4 words.
func New(provider llm.Provider, opts Options, log logrus.FieldLogger) *Extractor {
	if opts.MaxClaims <= 0 {
		opts.MaxClaims = DefaultMaxClaims
	}
	if opts.MinClaimWords <= 0 {
		opts.MinClaimWords = DefaultMinClaimWords
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{provider: provider, opts: opts, log: log}
}

// Extract returns between one and MaxClaims candidates. Only context
// cancellation is returned as an error; every other failure degrades to a sentinel.
func (e *Extractor) Extract(ctx context.Context, transcript string) ([]model.CandidateClaim, error) {
	text, err := llm.Complete(ctx, e.provider, systemPrompt, BuildPrompt(transcript, e.opts.MaxClaims), 0.2)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.log.WithError(err).Warn("claim extraction call failed")
		return []model.CandidateClaim{FailedSentinel()}, nil
	}

	result := Parse(text)
	if result.Malformed {
		e.log.WithError(result.Err).WithField("raw_len", len(result.Raw)).Warn("model output was not a claim list")
	}

	claims := Filter(Truncate(result.Recover(), e.opts.MaxClaims), e.opts.MinClaimWords)
	if len(claims) == 0 {
		return []model.CandidateClaim{InconclusiveSentinel()}, nil
	}

	e.log.WithField("claims", len(claims)).Debug("claims extracted")
	return claims, nil
}

// BuildPrompt renders the extraction request for one transcript
func BuildPrompt(transcript string, maxClaims int) string {
	return fmt.Sprintf(`Identify at most %d false or misleading factual claims in the transcript below.

Return a JSON array with at most %d entries, each an object:
{"claim": "the claim as stated, in one sentence", "explanation": "one or two sentences on why it is false or misleading"}

Return [] if there are no such claims.

Transcript:
"""
%s
"""`, maxClaims, maxClaims, strings.TrimSpace(transcript))
}

// Truncate keeps the first max claims
func Truncate(claims []model.CandidateClaim, max int) []model.CandidateClaim {
	if max > 0 && len(claims) > max {
		return claims[:max]
	}
	return claims
}

// Filter drops empty and too-short claims. Sentinels are kept as-is.
func Filter(claims []model.CandidateClaim, minWords int) []model.CandidateClaim {
	kept := make([]model.CandidateClaim, 0, len(claims))

	for _, c := range claims {
		if c.Sentinel {
			kept = append(kept, c)
			continue
		}

		text := strings.TrimSpace(c.Claim)
		if text == "" || model.WordCount(text) < minWords {
			continue
		}

		c.Claim = text
		kept = append(kept, c)
	}

	return kept
}
