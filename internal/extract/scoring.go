package extract

import "github.com/oakline/sitetruth/internal/config"

// Scorer maps an evidence class and a within-band quality estimate to a
// candidate confidence. Structured data always outranks page-text guesses:
// the bands are configured so Structured > Meta > DOM > Text at equal
// quality.
type Scorer struct {
	cfg config.ExtractConfig
}

// NewScorer builds a scorer over the configured bands.
func NewScorer(cfg config.ExtractConfig) *Scorer { return &Scorer{cfg: cfg} }

func (s *Scorer) band(m Method) config.Band {
	switch m {
	case MethodJSONLD, MethodMicrodata:
		return s.cfg.Structured
	case MethodMetaTag, MethodOpenGraph:
		return s.cfg.Meta
	case MethodDOM, MethodCSSVars, MethodTelLink, MethodMailto:
		return s.cfg.DOM
	default:
		return s.cfg.Text
	}
}

// Score computes lo + quality*(hi-lo) for the method's band, then applies the
// homepage bonus (depth 0) and a validator bonus capped by configuration.
// Quality and the result are clamped to [0,1].
func (s *Scorer) Score(m Method, quality float64, depth int, validatorBonus float64) float64 {
	quality = clamp01(quality)
	b := s.band(m)
	score := b.Lo + quality*(b.Hi-b.Lo)
	if depth == 0 {
		score += s.cfg.HomepageBonus
	}
	if validatorBonus > s.cfg.ValidatorBonusCap {
		validatorBonus = s.cfg.ValidatorBonusCap
	}
	if validatorBonus > 0 {
		score += validatorBonus
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
