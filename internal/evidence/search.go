// Package evidence searches external corpora for sources that bear on a claim.
package evidence

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// Searcher is one evidence corpus
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]model.Source, error)
}

// Precedence decides which corpus is queried, and therefore ranked, first
type Precedence string

const (
	RegistryFirst Precedence = "registry_first"
	AcademicFirst Precedence = "academic_first"
)

// ParsePrecedence maps a config value to a Precedence, defaulting to RegistryFirst
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(strings.ToLower(strings.TrimSpace(s))) {
	case "", RegistryFirst:
		return RegistryFirst, nil
	case AcademicFirst:
		return AcademicFirst, nil
	default:
		return RegistryFirst, fmt.Errorf("unknown evidence precedence %q (supported: registry_first, academic_first)", s)
	}
}

// Service queries both corpora and ranks their results by corpus order
type Service struct {
	corpora   []Searcher
	authority *AuthorityClassifier
	reach     *ReachabilityChecker // nil unless sources must be reachable
	log       logrus.FieldLogger
}

// NewService builds a service over registry and academic searchers. Either may be nil.
func NewService(registry, academic Searcher, precedence Precedence, authority *AuthorityClassifier, reach *ReachabilityChecker, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}

	ordered := []Searcher{registry, academic}
	if precedence == AcademicFirst {
		ordered = []Searcher{academic, registry}
	}

	var corpora []Searcher
	for _, s := range ordered {
		if s != nil {
			corpora = append(corpora, s)
		}
	}

	return &Service{corpora: corpora, authority: authority, reach: reach, log: log}
}

// NewServiceFromConfig wires both corpus clients, the optional cache and the
// authority classifier from configuration. Empty API keys fall back to
// FACTCHECK_API_KEY and S2_API_KEY.
func NewServiceFromConfig(cfg *model.Config, c cache.Cache, log logrus.FieldLogger) (*Service, error) {
	precedence, err := ParsePrecedence(cfg.Evidence.Precedence)
	if err != nil {
		return nil, err
	}

	opts := ClientOptions{
		Timeout:         cfg.Evidence.Timeout,
		RetryMaxElapsed: cfg.Evidence.RetryMaxElapsed,
		UserAgent:       cfg.Media.UserAgent,
		Limiter:         worker.NewLimiter(cfg.Evidence.RequestsPerSec, cfg.Evidence.Burst),
		HTTPProxy:       cfg.HTTP.HTTPProxy,
		HTTPSProxy:      cfg.HTTP.HTTPSProxy,
		NoProxy:         cfg.HTTP.NoProxy,
		Log:             log,
	}

	var registry, academic Searcher
	if cfg.Evidence.FactCheckURL != "" {
		registry = NewFactCheckClient(cfg.Evidence.FactCheckURL,
			resolveKey(cfg.Evidence.FactCheckAPIKey, "FACTCHECK_API_KEY"),
			cfg.Evidence.Language, cfg.Evidence.MaxResults, opts)
	}
	if cfg.Evidence.AcademicURL != "" {
		academic = NewAcademicClient(cfg.Evidence.AcademicURL,
			resolveKey(cfg.Evidence.AcademicAPIKey, "S2_API_KEY"),
			cfg.Evidence.MaxResults, opts)
	}

	if c != nil {
		if registry != nil {
			registry = NewCachedSearcher(registry, c, 0)
		}
		if academic != nil {
			academic = NewCachedSearcher(academic, c, 0)
		}
	}

	var reach *ReachabilityChecker
	if cfg.Evidence.RequireReachable {
		reach = NewReachabilityChecker(opts)
	}

	return NewService(registry, academic, precedence, NewAuthorityClassifier(cfg.Evidence.Authority), reach, log), nil
}

func resolveKey(explicit, env string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(env)
}

// Search queries every corpus in precedence order and concatenates results.
// A failing corpus contributes zero results; only context errors are returned.
func (s *Service) Search(ctx context.Context, query string) ([]model.Source, error) {
	var all []model.Source
	seen := make(map[string]bool)

	for _, corpus := range s.corpora {
		sources, err := corpus.Search(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.WithError(err).WithField("corpus", corpus.Name()).Warn("evidence search failed, treating as no results")
			continue
		}

		for _, src := range sources {
			if seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			all = append(all, src)
		}
	}

	if s.authority != nil {
		s.authority.Annotate(all)
	}
	return all, nil
}

// Best returns the first source for the query, or nil when there is none.
// When reachability is required, unreachable sources are skipped.
func (s *Service) Best(ctx context.Context, query string) (*model.Source, error) {
	sources, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	for i := range sources {
		if s.reach != nil && !s.reach.Reachable(ctx, sources[i].URL) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.WithField("url", sources[i].URL).Debug("skipping unreachable source")
			continue
		}
		best := sources[i]
		return &best, nil
	}

	return nil, nil
}
