package ground

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/logger"
	"github.com/ppiankov/claimcheck/internal/model"
)

// MockFinder implements Finder for testing
type MockFinder struct {
	Sources map[string]*model.Source
	Err     error
	PanicOn string
	Queries []string
}

func (m *MockFinder) Best(ctx context.Context, query string) (*model.Source, error) {
	m.Queries = append(m.Queries, query)
	if query == m.PanicOn {
		panic("nil map in search backend")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Sources[query], nil
}

// MockProvider implements llm.Provider for testing
type MockProvider struct {
	Text  string
	Err   error
	Calls int
	Last  llm.ChatRequest
}

func (m *MockProvider) Name() string                         { return "mock" }
func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *MockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.Calls++
	m.Last = req
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.ChatResponse{Text: m.Text}, nil
}

var (
	flatClaim = model.CandidateClaim{Claim: "The earth is flat and everyone knows it", Explanation: "disproven by physics"}
	flatSrc   = &model.Source{Title: "Is the Earth Flat?", URL: "https://www.snopes.com/fact-check/flat-earth/", Origin: model.OriginFactCheckRegistry}
)

func TestGround_NoSourceKeepsExplanationVerbatim(t *testing.T) {
	provider := &MockProvider{Text: "should not be used"}
	g := New(&MockFinder{}, provider, true, logger.Discard())

	ec, err := g.Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.Source != nil {
		t.Errorf("expected no source, got %+v", ec.Source)
	}
	if ec.GroundedExplanation != flatClaim.Explanation {
		t.Errorf("expected verbatim explanation, got %q", ec.GroundedExplanation)
	}
	if provider.Calls != 0 {
		t.Errorf("expected no synthesis call without a source, got %d", provider.Calls)
	}
}

func TestGround_WithSourceUsesSynthesis(t *testing.T) {
	synth := "Snopes' \"Is the Earth Flat?\" shows satellite imagery of a round planet (https://www.snopes.com/fact-check/flat-earth/)."
	provider := &MockProvider{Text: synth}
	finder := &MockFinder{Sources: map[string]*model.Source{flatClaim.Claim: flatSrc}}
	g := New(finder, provider, true, logger.Discard())

	ec, err := g.Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.GroundedExplanation != synth {
		t.Errorf("expected synthesized text, got %q", ec.GroundedExplanation)
	}
	if ec.GroundedExplanation == flatClaim.Explanation {
		t.Error("grounded explanation must not be the extractor explanation")
	}
	if ec.Source == nil || ec.Source.URL != flatSrc.URL {
		t.Errorf("expected source attached, got %+v", ec.Source)
	}

	prompt := provider.Last.Messages[len(provider.Last.Messages)-1].Content
	for _, want := range []string{flatClaim.Claim, flatSrc.Title, flatSrc.URL} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestGround_SourceURLWithParentheses(t *testing.T) {
	src := &model.Source{
		Title:  "Flat Earth (disambiguation)",
		URL:    "https://en.wikipedia.org/wiki/Flat_Earth_(disambiguation)",
		Origin: model.OriginAcademicSearch,
	}
	synth := "Wikipedia's Flat Earth entry (" + src.URL + ") describes the idea as a long-debunked belief."
	finder := &MockFinder{Sources: map[string]*model.Source{flatClaim.Claim: src}}

	ec, err := New(finder, &MockProvider{Text: synth}, true, logger.Discard()).Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.GroundedExplanation != synth {
		t.Errorf("expected synthesized text citing the selected source, got %q", ec.GroundedExplanation)
	}
	if ec.Source == nil || ec.Source.URL != src.URL {
		t.Errorf("expected source attached, got %+v", ec.Source)
	}
}

func TestGround_CitationLeakDegrades(t *testing.T) {
	provider := &MockProvider{Text: "See https://random-blog.example/flat for details."}
	finder := &MockFinder{Sources: map[string]*model.Source{flatClaim.Claim: flatSrc}}

	ec, err := New(finder, provider, true, logger.Discard()).Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.GroundedExplanation != flatClaim.Explanation {
		t.Errorf("expected fallback explanation on leak, got %q", ec.GroundedExplanation)
	}
	if ec.Source == nil {
		t.Error("source should be kept when synthesis degrades")
	}

	lenient, err := New(finder, provider, false, logger.Discard()).Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lenient.GroundedExplanation != provider.Text {
		t.Errorf("non-strict mode should accept any citation, got %q", lenient.GroundedExplanation)
	}
}

func TestGround_SynthesisErrorDegrades(t *testing.T) {
	provider := &MockProvider{Err: errors.New("model overloaded")}
	finder := &MockFinder{Sources: map[string]*model.Source{flatClaim.Claim: flatSrc}}

	ec, err := New(finder, provider, true, logger.Discard()).Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.GroundedExplanation != flatClaim.Explanation || ec.Source == nil {
		t.Errorf("expected degraded claim with source, got %+v", ec)
	}
}

func TestGround_SearchErrorMeansNoSource(t *testing.T) {
	ec, err := New(&MockFinder{Err: errors.New("dns failure")}, &MockProvider{}, true, logger.Discard()).Ground(context.Background(), flatClaim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.Source != nil || ec.GroundedExplanation != flatClaim.Explanation {
		t.Errorf("expected ungrounded claim, got %+v", ec)
	}
}

func TestGround_SentinelNotSearched(t *testing.T) {
	finder := &MockFinder{}
	ec, err := New(finder, &MockProvider{}, true, logger.Discard()).Ground(context.Background(), extract.FailedSentinel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(finder.Queries) != 0 {
		t.Errorf("sentinel should not be searched, got %v", finder.Queries)
	}
	if ec.Claim != extract.FailedClaim || ec.GroundedExplanation != extract.FailedExplanation {
		t.Errorf("unexpected sentinel enrichment %+v", ec)
	}
}

func TestGroundAll_PanicDropsOnlyThatClaim(t *testing.T) {
	second := model.CandidateClaim{Claim: "Vaccines contain tracking microchips", Explanation: "no such devices exist"}
	finder := &MockFinder{PanicOn: flatClaim.Claim}

	enriched, err := New(finder, &MockProvider{}, true, logger.Discard()).GroundAll(context.Background(), []model.CandidateClaim{flatClaim, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enriched) != 1 || enriched[0].Claim != second.Claim {
		t.Fatalf("expected only the second claim, got %+v", enriched)
	}
	if len(finder.Queries) != 2 || finder.Queries[0] != flatClaim.Claim {
		t.Errorf("expected claims grounded in extraction order, got %v", finder.Queries)
	}
}

func TestGroundAll_AllDroppedYieldsInconclusive(t *testing.T) {
	finder := &MockFinder{PanicOn: flatClaim.Claim}

	enriched, err := New(finder, &MockProvider{}, true, logger.Discard()).GroundAll(context.Background(), []model.CandidateClaim{flatClaim})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enriched) != 1 || enriched[0].Claim != extract.InconclusiveClaim || enriched[0].Source != nil {
		t.Fatalf("expected inconclusive sentinel, got %+v", enriched)
	}
}

func TestGroundAll_ContextErrorAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&MockFinder{Err: context.Canceled}, &MockProvider{}, true, logger.Discard()).GroundAll(ctx, []model.CandidateClaim{flatClaim})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
