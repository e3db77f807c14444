package extract

import (
	"github.com/oakline/sitetruth/internal/config"
	"github.com/oakline/sitetruth/internal/parser"
	"go.uber.org/zap"
)

// Page is the immutable input an extractor sees: one parsed document plus
// where it was found. Depth 0 is the homepage.
type Page struct {
	Doc   *parser.Document
	URL   string
	Depth int
}

// Extractor pulls candidates for one or more fields out of a single page.
// Implementations must not fetch, block, or hold state across pages.
type Extractor interface {
	Name() string
	Extract(page Page) []Candidate
}

// Registry runs the full extractor set over a page and feeds the results
// into the shared candidate pool.
type Registry struct {
	extractors []Extractor
	logger     *zap.Logger
}

// NewRegistry wires the standard extractor set from configuration. The
// services extractor falls back to the embedded taxonomy when loading an
// override fails.
func NewRegistry(cfg config.ExtractConfig, logger *zap.Logger) (*Registry, error) {
	scorer := NewScorer(cfg)

	taxonomy, err := LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	return &Registry{
		logger: logger,
		extractors: []Extractor{
			&StructuredDataExtractor{Scorer: scorer},
			&BrandNameExtractor{Scorer: scorer},
			&ContactExtractor{Scorer: scorer},
			&SocialsExtractor{Scorer: scorer, Platforms: DefaultPlatforms},
			&ServicesExtractor{Scorer: scorer, Taxonomy: taxonomy, MaxCount: cfg.ServicesMaxCount},
			&ColorsExtractor{Scorer: scorer},
			&LogoExtractor{Scorer: scorer},
			&TextBitsExtractor{Scorer: scorer, BackgroundMaxWords: cfg.BackgroundMaxWords, SloganMaxWords: cfg.SloganMaxWords},
		},
	}, nil
}

// Run applies every extractor to the page and adds the candidates to pool.
// Returns how many candidates the page produced.
func (r *Registry) Run(page Page, pool *Pool) int {
	total := 0
	for _, ex := range r.extractors {
		cs := ex.Extract(page)
		pool.AddAll(cs)
		total += len(cs)
		if len(cs) > 0 && r.logger != nil {
			r.logger.Debug("extracted candidates",
				zap.String("extractor", ex.Name()),
				zap.String("url", page.URL),
				zap.Int("count", len(cs)))
		}
	}
	return total
}
