package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/logger"
	"github.com/ppiankov/claimcheck/internal/model"
)

func testOptions() ClientOptions {
	return ClientOptions{
		Timeout:         2 * time.Second,
		RetryMaxElapsed: 0,
		UserAgent:       "claimcheck-test",
		Log:             logger.Discard(),
	}
}

// MockSearcher implements Searcher for testing
type MockSearcher struct {
	CorpusName string
	Sources    []model.Source
	Err        error
	Calls      int32
}

func (m *MockSearcher) Name() string { return m.CorpusName }

func (m *MockSearcher) Search(ctx context.Context, query string) ([]model.Source, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Sources, nil
}

func TestFactCheckClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "the earth is flat" {
			t.Errorf("unexpected query %q", q.Get("query"))
		}
		if q.Get("key") != "fc-key" {
			t.Errorf("expected api key, got %q", q.Get("key"))
		}
		if q.Get("languageCode") != "en" {
			t.Errorf("expected languageCode en, got %q", q.Get("languageCode"))
		}
		_, _ = w.Write([]byte(`{
			"claims": [
				{"text": "The earth is flat", "claimReview": [
					{"publisher": {"name": "Snopes"}, "url": "https://www.snopes.com/fact-check/flat-earth/", "title": "Is the Earth <b>Flat</b>?", "textualRating": "False"},
					{"publisher": {"name": "PolitiFact"}, "url": "https://www.politifact.com/flat/", "title": "", "textualRating": "Pants on Fire"}
				]},
				{"text": "Flat earth maps", "claimReview": [
					{"publisher": {"name": "X"}, "url": "", "title": "no url"}
				]}
			]
		}`))
	}))
	defer server.Close()

	client := NewFactCheckClient(server.URL, "fc-key", "en", 5, testOptions())
	sources, err := client.Search(context.Background(), "the earth is flat")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %+v", len(sources), sources)
	}
	if sources[0].Title != "Is the Earth Flat?" {
		t.Errorf("expected markup stripped from title, got %q", sources[0].Title)
	}
	if sources[0].Origin != model.OriginFactCheckRegistry {
		t.Errorf("unexpected origin %q", sources[0].Origin)
	}
	if sources[1].Title != "PolitiFact" {
		t.Errorf("expected publisher name as title fallback, got %q", sources[1].Title)
	}
}

func TestFactCheckClient_MissingKey(t *testing.T) {
	client := NewFactCheckClient("http://127.0.0.1:0", "", "en", 3, testOptions())
	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestAcademicClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "s2-key" {
			t.Errorf("expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.URL.Query().Get("fields") != "title,url" {
			t.Errorf("unexpected fields %q", r.URL.Query().Get("fields"))
		}
		if r.URL.Query().Get("limit") != "2" {
			t.Errorf("unexpected limit %q", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(`{"total": 2, "offset": 0, "data": [
			{"paperId": "a1", "title": "Measuring the curvature of the Earth", "url": "https://www.semanticscholar.org/paper/a1"},
			{"paperId": "a2", "title": "No link", "url": ""}
		]}`))
	}))
	defer server.Close()

	client := NewAcademicClient(server.URL, "s2-key", 2, testOptions())
	sources, err := client.Search(context.Background(), "earth curvature")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].Origin != model.OriginAcademicSearch {
		t.Errorf("unexpected origin %q", sources[0].Origin)
	}
}

func TestClient_NonRetryableStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	opts := testOptions()
	opts.RetryMaxElapsed = 2 * time.Second
	client := NewAcademicClient(server.URL, "", 3, opts)

	_, err := client.Search(context.Background(), "q")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected no retry on 403, got %d calls", calls)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"paperId": "p", "title": "T", "url": "https://example.org/p"}]}`))
	}))
	defer server.Close()

	opts := testOptions()
	opts.RetryMaxElapsed = 10 * time.Second
	client := NewAcademicClient(server.URL, "", 3, opts)

	sources, err := client.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(sources))
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_RateLimitedGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewAcademicClient(server.URL, "", 3, testOptions())
	_, err := client.Search(context.Background(), "q")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 StatusError, got %v", err)
	}
}

func TestService_PrecedenceAndDegrade(t *testing.T) {
	registry := &MockSearcher{CorpusName: "registry", Sources: []model.Source{
		{Title: "Snopes", URL: "https://www.snopes.com/a", Origin: model.OriginFactCheckRegistry},
	}}
	academic := &MockSearcher{CorpusName: "academic", Sources: []model.Source{
		{Title: "Paper", URL: "https://doi.org/10.1/x", Origin: model.OriginAcademicSearch},
	}}
	auth := NewAuthorityClassifier(model.DefaultConfig().Evidence.Authority)

	svc := NewService(registry, academic, RegistryFirst, auth, nil, logger.Discard())
	sources, err := svc.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(sources) != 2 || sources[0].Title != "Snopes" || sources[1].Title != "Paper" {
		t.Fatalf("expected registry then academic, got %+v", sources)
	}
	if sources[0].Authority != model.TierSecondary || sources[1].Authority != model.TierPrimary {
		t.Errorf("unexpected authority tiers: %v, %v", sources[0].Authority, sources[1].Authority)
	}

	svc = NewService(registry, academic, AcademicFirst, nil, nil, logger.Discard())
	best, err := svc.Best(context.Background(), "q")
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best == nil || best.Title != "Paper" {
		t.Errorf("expected academic source first, got %+v", best)
	}

	registry.Err = errors.New("boom")
	svc = NewService(registry, academic, RegistryFirst, nil, nil, logger.Discard())
	best, err = svc.Best(context.Background(), "q")
	if err != nil {
		t.Fatalf("corpus error should degrade, got %v", err)
	}
	if best == nil || best.Title != "Paper" {
		t.Errorf("expected academic fallback, got %+v", best)
	}
}

func TestService_NoResults(t *testing.T) {
	svc := NewService(&MockSearcher{CorpusName: "r", Err: errors.New("down")}, &MockSearcher{CorpusName: "a"}, RegistryFirst, nil, nil, logger.Discard())

	best, err := svc.Best(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best != nil {
		t.Errorf("expected no source, got %+v", best)
	}
}

func TestService_ContextErrorPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(&MockSearcher{CorpusName: "r", Err: context.Canceled}, nil, RegistryFirst, nil, nil, logger.Discard())
	if _, err := svc.Search(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestService_RequireReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := &MockSearcher{CorpusName: "r", Sources: []model.Source{
		{Title: "Dead", URL: server.URL + "/dead"},
		{Title: "Alive", URL: server.URL + "/alive"},
	}}

	svc := NewService(registry, nil, RegistryFirst, nil, NewReachabilityChecker(testOptions()), logger.Discard())
	best, err := svc.Best(context.Background(), "q")
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best == nil || best.Title != "Alive" {
		t.Errorf("expected reachable source, got %+v", best)
	}
}

func TestCachedSearcher(t *testing.T) {
	inner := &MockSearcher{CorpusName: "academic", Sources: []model.Source{
		{Title: "Paper", URL: "https://doi.org/10.1/x", Origin: model.OriginAcademicSearch, Authority: model.TierPrimary},
	}}
	cached := NewCachedSearcher(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0)

	for i := 0; i < 3; i++ {
		sources, err := cached.Search(context.Background(), "  Earth   IS flat ")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(sources) != 1 || sources[0].Authority != model.TierPrimary {
			t.Fatalf("unexpected sources: %+v", sources)
		}
	}
	if _, err := cached.Search(context.Background(), "earth is flat"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if inner.Calls != 1 {
		t.Errorf("expected one upstream call for equivalent queries, got %d", inner.Calls)
	}

	inner.Err = errors.New("down")
	if _, err := cached.Search(context.Background(), "new query"); err == nil {
		t.Error("expected upstream error to surface")
	}
	if _, err := cached.Search(context.Background(), "new query"); err == nil {
		t.Error("errors must not be cached")
	}
}

func TestParsePrecedence(t *testing.T) {
	if p, err := ParsePrecedence(""); err != nil || p != RegistryFirst {
		t.Errorf("expected default registry_first, got %v %v", p, err)
	}
	if p, err := ParsePrecedence("ACADEMIC_FIRST"); err != nil || p != AcademicFirst {
		t.Errorf("expected academic_first, got %v %v", p, err)
	}
	if _, err := ParsePrecedence("random"); err == nil {
		t.Error("expected error for unknown precedence")
	}
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		"Plain   title\n":              "Plain title",
		"<i>Italic</i> and &amp; more": "Italic and & more",
		"A <b>bold</b> claim":          "A bold claim",
		"":                             "",
	}
	for in, want := range tests {
		if got := CleanTitle(in); got != want {
			t.Errorf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
