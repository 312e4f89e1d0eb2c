package pipeline

import (
	"github.com/ppiankov/claimcheck/internal/gate"
	"github.com/ppiankov/claimcheck/internal/model"
)

// State is a step of one analysis run
type State string

const (
	StateStart      State = "start"
	StateGated      State = "gated"
	StateClassified State = "classified"
	StateExtracted  State = "extracted"
	StateGrounded   State = "grounded"
	StateAssembled  State = "assembled"
)

// Reasons attached to short-circuit reports
const (
	ReasonMusic  = "content appears to be music or song lyrics"
	ReasonCasual = "speech contains no verifiable factual claims"
	ReasonSpeech = "no meaningful speech detected"
)

// run is the request-local state threaded through the transitions.
// Every transition returns a new value; nothing is mutated in place.
type run struct {
	state          State
	videoID        string
	transcript     string
	status         model.Status
	reason         string
	classification model.Classification
	candidates     []model.CandidateClaim
	claims         []model.EnrichedClaim
}

func newRun(videoID, transcript string) run {
	return run{state: StateStart, videoID: videoID, transcript: transcript}
}

// afterGate moves to gated, or straight to assembled as non_verbal
func afterGate(r run, v gate.Verdict) run {
	if !v.Pass {
		r.state = StateAssembled
		r.status = model.StatusNonVerbal
		r.classification = model.ClassNonVerbal
		r.reason = v.Reason
		return r
	}
	r.state = StateGated
	return r
}

// afterClassify short-circuits music and casual speech. An undetermined
// label is treated as claim-bearing so the extractor gets a chance.
func afterClassify(r run, c model.Classification) run {
	r.classification = c
	if c.ShortCircuits() {
		r.state = StateAssembled
		r.status = c.Status()
		r.reason = shortCircuitReason(c)
		return r
	}
	r.state = StateClassified
	return r
}

// afterExtract caps the candidate list before any grounding happens
func afterExtract(r run, candidates []model.CandidateClaim, maxClaims int) run {
	if maxClaims > 0 && len(candidates) > maxClaims {
		candidates = candidates[:maxClaims]
	}
	r.candidates = append([]model.CandidateClaim(nil), candidates...)
	r.state = StateExtracted
	return r
}

func afterGround(r run, claims []model.EnrichedClaim) run {
	r.claims = append([]model.EnrichedClaim(nil), claims...)
	r.state = StateGrounded
	return r
}

func assemble(r run) run {
	if r.status == "" {
		r.status = model.StatusSuccess
	}
	r.state = StateAssembled
	return r
}

// report builds the wire report. Claims is never nil.
func (r run) report() *model.AnalysisReport {
	claims := r.claims
	if claims == nil {
		claims = []model.EnrichedClaim{}
	}
	return &model.AnalysisReport{
		Status:     r.status,
		VideoID:    r.videoID,
		Reason:     r.reason,
		Transcript: r.transcript,
		Claims:     claims,
	}
}

func shortCircuitReason(c model.Classification) string {
	switch c {
	case model.ClassMusic:
		return ReasonMusic
	case model.ClassSpeechCasual:
		return ReasonCasual
	case model.ClassNonVerbal:
		return ReasonSpeech
	}
	return ""
}
