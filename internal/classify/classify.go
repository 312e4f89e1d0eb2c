// Package classify labels a transcript as claim-bearing speech or not.
package classify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You label transcripts of short social videos. Answer with exactly one label and nothing else:
music - song lyrics, singing, or background music
speech_casual - everyday talk with no verifiable factual claims (greetings, jokes, opinions, vlogs)
speech_claims - speech that asserts facts about the world that could be checked`

// casualMarkers identify a casual or non-claim answer. "music" is checked first.
var casualMarkers = []string{"speech_casual", "casual", "non_claim", "non-claim"}

// negatedClaims matches answers such as "no verifiable claims" or "doesn't make any claims"
var negatedClaims = regexp.MustCompile(`(?:\bno|\bwithout|\bzero|\bnot\s+\w+|n't\s+\w+)\s+(?:\w+\s+){0,3}claims?\b`)

// Classifier labels transcripts using a language model
type Classifier struct {
	provider llm.Provider
	log      logrus.FieldLogger
}

// New creates a classifier
func New(provider llm.Provider, log logrus.FieldLogger) *Classifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Classifier{provider: provider, log: log}
}

// Classify asks the model for a label. Model failures other than context
// cancellation yield ClassUndetermined so the pipeline falls through to extraction.
func (c *Classifier) Classify(ctx context.Context, transcript string) (model.Classification, error) {
	text, err := llm.Complete(ctx, c.provider, systemPrompt, BuildPrompt(transcript), 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ClassUndetermined, ctxErr
		}
		c.log.WithError(err).Warn("classifier call failed, continuing to extraction")
		return model.ClassUndetermined, nil
	}

	label := ParseLabel(text)
	c.log.WithField("label", label).Debug("transcript classified")
	return label, nil
}

// BuildPrompt renders the user message for one transcript
func BuildPrompt(transcript string) string {
	return fmt.Sprintf("Transcript:\n\"\"\"\n%s\n\"\"\"\n\nLabel:", strings.TrimSpace(transcript))
}

// ParseLabel maps a raw model answer to a classification by case-insensitive
// substring match. An answer naming none of the labels is undetermined.
func ParseLabel(raw string) model.Classification {
	lower := strings.ToLower(raw)

	if strings.Contains(lower, "music") {
		return model.ClassMusic
	}
	for _, marker := range casualMarkers {
		if strings.Contains(lower, marker) {
			return model.ClassSpeechCasual
		}
	}
	if negatedClaims.MatchString(lower) {
		return model.ClassSpeechCasual
	}
	if strings.Contains(lower, "speech_claims") || strings.Contains(lower, "claims") {
		return model.ClassSpeechClaims
	}
	return model.ClassUndetermined
}
