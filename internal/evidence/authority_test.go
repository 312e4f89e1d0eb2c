package evidence

import (
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
)

func TestAuthorityClassifier_Classify(t *testing.T) {
	classifier := NewAuthorityClassifier(model.AuthorityConfig{
		PrimaryDomains:   []string{"doi.org", "who.int"},
		SecondaryDomains: []string{"snopes.com", "wikipedia.org"},
		DomainMap:        map[string]string{"example.org": "secondary"},
	})

	tests := []struct {
		url      string
		expected model.AuthorityTier
		desc     string
	}{
		{"https://doi.org/10.1234/example", model.TierPrimary, "primary exact"},
		{"https://www.who.int/news", model.TierPrimary, "primary with www"},
		{"https://en.wikipedia.org/wiki/Flat_Earth", model.TierSecondary, "secondary subdomain"},
		{"https://www.snopes.com/fact-check/x/", model.TierSecondary, "fact-check outlet"},
		{"https://example.org/page", model.TierSecondary, "explicit domain map"},
		{"https://www.cdc.gov/vaccines", model.TierPrimary, "gov TLD"},
		{"https://www.ox.ac.uk/research", model.TierPrimary, "ac.uk TLD"},
		{"https://mit.edu:8443/paper", model.TierPrimary, "edu with port"},
		{"https://someblog.wordpress.com/post", model.TierTertiary, "blog default"},
		{"not a url", model.TierTertiary, "invalid URL"},
		{"https://notdoi.org/x", model.TierTertiary, "suffix without dot boundary"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classifier.Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%s) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestAuthorityClassifier_Annotate(t *testing.T) {
	classifier := NewAuthorityClassifier(model.DefaultConfig().Evidence.Authority)
	sources := []model.Source{{URL: "https://www.reuters.com/fact-check/x"}, {URL: "https://arxiv.org/abs/1"}}

	classifier.Annotate(sources)
	if sources[0].Authority != model.TierSecondary {
		t.Errorf("expected reuters secondary, got %v", sources[0].Authority)
	}
	if sources[1].Authority != model.TierPrimary {
		t.Errorf("expected arxiv primary, got %v", sources[1].Authority)
	}
}

func TestParseTierString(t *testing.T) {
	tests := map[string]model.AuthorityTier{
		"primary":   model.TierPrimary,
		"2":         model.TierSecondary,
		"TERTIARY":  model.TierTertiary,
		"whatever":  model.TierTertiary,
	}
	for in, want := range tests {
		if got := parseTierString(in); got != want {
			t.Errorf("parseTierString(%q) = %v, want %v", in, got, want)
		}
	}
}
