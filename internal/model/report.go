package model

import (
	"math"
	"time"
)

// Classification labels a transcript before any claim work is done
type Classification string

const (
	ClassNonVerbal    Classification = "non_verbal"    // Too little speech to analyze
	ClassMusic        Classification = "music"         // Song lyrics or background music
	ClassSpeechCasual Classification = "speech_casual" // Speech without verifiable claims
	ClassSpeechClaims Classification = "speech_claims" // Speech carrying factual claims
	ClassUndetermined Classification = "undetermined"  // Classifier gave no usable answer
)

// ShortCircuits reports whether the classification ends the pipeline before extraction
func (c Classification) ShortCircuits() bool {
	switch c {
	case ClassNonVerbal, ClassMusic, ClassSpeechCasual:
		return true
	default:
		return false
	}
}

// Status returns the report status the classification maps to
func (c Classification) Status() Status {
	switch c {
	case ClassNonVerbal:
		return StatusNonVerbal
	case ClassMusic:
		return StatusMusic
	case ClassSpeechCasual:
		return StatusSpeechNonClaim
	default:
		return StatusSuccess
	}
}

// Status is the terminal status of an analysis report
type Status string

const (
	StatusSuccess        Status = "success"
	StatusNonVerbal      Status = "non_verbal"
	StatusMusic          Status = "music"
	StatusSpeechNonClaim Status = "speech_non_claim"
)

// AnalysisReport is the terminal artifact of one analysis request
// It exists only for the duration of one request and is never persisted
type AnalysisReport struct {
	Status         Status          `json:"status"`
	VideoID        string          `json:"video_id"`
	Reason         string          `json:"reason,omitempty"` // Set on short-circuit exits
	Transcript     string          `json:"transcript"`
	Claims         []EnrichedClaim `json:"false_claims"`
	ProcessingTime float64         `json:"processing_time"` // Seconds
}

// Seconds converts a duration to seconds rounded to two decimals
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
