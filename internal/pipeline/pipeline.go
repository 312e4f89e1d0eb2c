// Package pipeline sequences the claim-verification stages for one video:
// gate, classify, extract, ground, assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/classify"
	"github.com/ppiankov/claimcheck/internal/evidence"
	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/gate"
	"github.com/ppiankov/claimcheck/internal/ground"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/media"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/transcribe"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// ErrNoMedia is returned by AnalyzeURL when no fetcher or transcriber is configured
var ErrNoMedia = errors.New("media fetching is not configured")

// Classifier labels a transcript
type Classifier interface {
	Classify(ctx context.Context, transcript string) (model.Classification, error)
}

// Extractor proposes candidate claims for a transcript
type Extractor interface {
	Extract(ctx context.Context, transcript string) ([]model.CandidateClaim, error)
}

// Grounder enriches candidate claims in order
type Grounder interface {
	GroundAll(ctx context.Context, claims []model.CandidateClaim) ([]model.EnrichedClaim, error)
}

// Options tune an Orchestrator
type Options struct {
	MaxClaims int
	Timeout   time.Duration    // Whole-request budget, zero for none
	Now       func() time.Time // Clock, time.Now when nil
}

// Orchestrator runs the pipeline. It holds no per-request state, so one
// value serves concurrent requests.
type Orchestrator struct {
	gate       *gate.Gate
	classifier Classifier // nil lets the extractor decide
	extractor  Extractor
	grounder   Grounder
	opts       Options

	provider llm.Provider // probed by Ready, may be nil

	workspace   *media.Workspace
	fetcher     media.Fetcher
	transcriber transcribe.Transcriber

	log logrus.FieldLogger
}

// New creates an orchestrator over the given stages
func New(g *gate.Gate, classifier Classifier, extractor Extractor, grounder Grounder, opts Options, log logrus.FieldLogger) *Orchestrator {
	if opts.MaxClaims <= 0 {
		opts.MaxClaims = extract.DefaultMaxClaims
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		gate:       g,
		classifier: classifier,
		extractor:  extractor,
		grounder:   grounder,
		opts:       opts,
		log:        log,
	}
}

// WithMedia enables AnalyzeURL
func (o *Orchestrator) WithMedia(ws *media.Workspace, fetcher media.Fetcher, transcriber transcribe.Transcriber) *Orchestrator {
	o.workspace = ws
	o.fetcher = fetcher
	o.transcriber = transcriber
	return o
}

// NewFromConfig wires every stage from configuration
func NewFromConfig(cfg *model.Config, log logrus.FieldLogger) (*Orchestrator, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	paced := llm.NewPaced(provider, worker.NewLimiter(cfg.LLM.RateLimit, cfg.LLM.Burst), cfg.Pipeline.InterCallDelay)

	search, err := evidence.NewServiceFromConfig(cfg, cache.NewFromConfig(cfg.Cache), log)
	if err != nil {
		return nil, fmt.Errorf("create evidence search: %w", err)
	}

	var classifier Classifier
	if cfg.Pipeline.Classify {
		classifier = classify.New(paced, log)
	}

	extractor := extract.New(paced, extract.Options{
		MaxClaims:     cfg.Pipeline.MaxClaims,
		MinClaimWords: cfg.Pipeline.MinClaimWords,
	}, log)

	o := New(
		gate.New(cfg.Pipeline.MinTranscriptWords),
		classifier,
		extractor,
		ground.New(search, paced, cfg.LLM.StrictEvidence, log),
		Options{MaxClaims: cfg.Pipeline.MaxClaims, Timeout: cfg.Pipeline.Timeout},
		log,
	)

	fetcher, err := media.NewFetcher(cfg.Media, cfg.HTTP, nil, log)
	if err != nil {
		return nil, err
	}
	transcriber, err := transcribe.New(cfg, nil, log)
	if err != nil {
		return nil, err
	}

	o.provider = provider
	return o.WithMedia(media.NewWorkspace(cfg.Media.WorkDir, log), fetcher, transcriber), nil
}

// Ready reports whether the language model backend answers
func (o *Orchestrator) Ready(ctx context.Context) error {
	if o.provider == nil {
		return nil
	}
	if !o.provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not available", o.provider.Name())
	}
	return nil
}

// AnalyzeTranscript runs the pipeline on a transcript that is already available
func (o *Orchestrator) AnalyzeTranscript(ctx context.Context, videoID, transcript string) (*model.AnalysisReport, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	start := o.opts.Now()
	log := o.log.WithField("video_id", videoID)

	r, err := o.drive(ctx, newRun(videoID, transcript), log)
	if err != nil {
		return nil, err
	}

	report := r.report()
	report.ProcessingTime = model.Seconds(o.opts.Now().Sub(start))

	log.WithFields(logrus.Fields{
		"status":          report.Status,
		"claims":          len(report.Claims),
		"processing_time": report.ProcessingTime,
	}).Info("Analysis complete")

	return report, nil
}

// AnalyzeURL downloads the video, transcribes it and runs the pipeline.
// Media artifacts are removed on every exit path; a panic anywhere inside
// is returned as an error after cleanup.
func (o *Orchestrator) AnalyzeURL(ctx context.Context, rawURL string) (report *model.AnalysisReport, err error) {
	if o.workspace == nil || o.fetcher == nil || o.transcriber == nil {
		return nil, ErrNoMedia
	}

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	start := o.opts.Now()
	err = o.workspace.Acquire(ctx, o.fetcher, rawURL, func(a *media.Artifacts) error {
		text, terr := o.transcriber.Transcribe(ctx, a.AudioPath)
		if terr != nil {
			return fmt.Errorf("transcribe (%s): %w", o.transcriber.Name(), terr)
		}

		log := o.log.WithField("video_id", a.VideoID)
		log.WithField("words", model.WordCount(text)).Debug("Transcribed")

		r, derr := o.drive(ctx, newRun(a.VideoID, text), log)
		if derr != nil {
			return derr
		}
		report = r.report()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Measured after Acquire so download and cleanup are included
	report.ProcessingTime = model.Seconds(o.opts.Now().Sub(start))
	o.log.WithFields(logrus.Fields{
		"video_id":        report.VideoID,
		"status":          report.Status,
		"claims":          len(report.Claims),
		"processing_time": report.ProcessingTime,
	}).Info("Analysis complete")

	return report, nil
}

// drive steps the state machine until the report is assembled
func (o *Orchestrator) drive(ctx context.Context, r run, log logrus.FieldLogger) (run, error) {
	for r.state != StateAssembled {
		next, err := o.step(ctx, r)
		if err != nil {
			return r, fmt.Errorf("%s: %w", r.state, err)
		}
		log.WithFields(logrus.Fields{"from": r.state, "to": next.state}).Debug("Pipeline transition")
		r = next
	}
	return r, nil
}

// step performs the single external call the current state needs and
// hands its result to the matching transition.
func (o *Orchestrator) step(ctx context.Context, r run) (run, error) {
	if err := ctx.Err(); err != nil {
		return r, err
	}

	switch r.state {
	case StateStart:
		return afterGate(r, o.gate.Check(r.transcript)), nil

	case StateGated:
		if o.classifier == nil {
			return afterClassify(r, model.ClassSpeechClaims), nil
		}
		c, err := o.classifier.Classify(ctx, r.transcript)
		if err != nil {
			return r, err
		}
		return afterClassify(r, c), nil

	case StateClassified:
		candidates, err := o.extractor.Extract(ctx, r.transcript)
		if err != nil {
			return r, err
		}
		return afterExtract(r, candidates, o.opts.MaxClaims), nil

	case StateExtracted:
		claims, err := o.grounder.GroundAll(ctx, r.candidates)
		if err != nil {
			return r, err
		}
		return afterGround(r, claims), nil

	case StateGrounded:
		return assemble(r), nil
	}

	return r, fmt.Errorf("unknown pipeline state %q", r.state)
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.Timeout > 0 {
		return context.WithTimeout(ctx, o.opts.Timeout)
	}
	return context.WithCancel(ctx)
}
