// Package ground attaches a source and a source-backed explanation to each claim.
package ground

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
)

// Finder selects the best available source for a claim, or nil
type Finder interface {
	Best(ctx context.Context, query string) (*model.Source, error)
}

const systemPrompt = `You are a fact-checking assistant writing short corrections for social media viewers.
Use only the source you are given. Do not mention or link any other website.`

// Grounder enriches candidate claims one at a time, in order
type Grounder struct {
	finder   Finder
	provider llm.Provider
	strict   bool
	log      logrus.FieldLogger
}

// New creates a grounder. With strict set, synthesized text citing any URL
// other than the selected source is rejected.
func New(finder Finder, provider llm.Provider, strict bool, log logrus.FieldLogger) *Grounder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Grounder{finder: finder, provider: provider, strict: strict, log: log}
}

// GroundAll grounds claims sequentially. A claim whose grounding panics is
// logged and dropped; context errors abort the whole request. If nothing
// survives, the inconclusive sentinel is returned ungrounded.
func (g *Grounder) GroundAll(ctx context.Context, claims []model.CandidateClaim) ([]model.EnrichedClaim, error) {
	enriched := make([]model.EnrichedClaim, 0, len(claims))

	for i, c := range claims {
		ec, err := g.groundIsolated(ctx, c)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			g.log.WithError(err).WithField("claim_index", i).Warn("grounding failed, dropping claim")
			continue
		}
		enriched = append(enriched, ec)
	}

	if len(enriched) == 0 {
		return []model.EnrichedClaim{Ungrounded(extract.InconclusiveSentinel())}, nil
	}
	return enriched, nil
}

// groundIsolated converts a panic while grounding one claim into an error
func (g *Grounder) groundIsolated(ctx context.Context, c model.CandidateClaim) (ec model.EnrichedClaim, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while grounding claim: %v", r)
		}
	}()
	return g.Ground(ctx, c)
}

// Ground enriches one claim. Search and synthesis failures degrade to the
// extractor's explanation; only context errors are returned.
func (g *Grounder) Ground(ctx context.Context, c model.CandidateClaim) (model.EnrichedClaim, error) {
	if c.Sentinel {
		return Ungrounded(c), nil
	}

	src, err := g.finder.Best(ctx, c.Claim)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.EnrichedClaim{}, ctxErr
		}
		g.log.WithError(err).Warn("evidence search failed, no source")
		src = nil
	}
	if src == nil {
		return Ungrounded(c), nil
	}

	text, err := g.synthesize(ctx, c, *src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.EnrichedClaim{}, ctxErr
		}
		g.log.WithError(err).WithField("source", src.URL).Warn("synthesis failed, keeping extractor explanation")
		text = c.Explanation
	}

	return model.EnrichedClaim{
		Claim:               c.Claim,
		GroundedExplanation: text,
		Source:              src,
	}, nil
}

func (g *Grounder) synthesize(ctx context.Context, c model.CandidateClaim, src model.Source) (string, error) {
	text, err := llm.Complete(ctx, g.provider, systemPrompt, BuildPrompt(c, src), 0.3)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty synthesis")
	}

	if g.strict {
		if _, err := llm.CheckCitations(text, []string{src.URL}); err != nil {
			return "", err
		}
	}
	return text, nil
}

// BuildPrompt renders the synthesis request for one claim and its source
func BuildPrompt(c model.CandidateClaim, src model.Source) string {
	return fmt.Sprintf(`Claim: %s

Source title: %s
Source URL: %s

In 2 to 3 sentences, explain why the claim is false or misleading, referring to the source by title and citing its URL. Do not cite any other URL.`, c.Claim, src.Title, src.URL)
}

// Ungrounded carries a candidate through with its own explanation and no source
func Ungrounded(c model.CandidateClaim) model.EnrichedClaim {
	return model.EnrichedClaim{
		Claim:               c.Claim,
		GroundedExplanation: c.Explanation,
	}
}
