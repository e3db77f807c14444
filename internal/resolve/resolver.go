// Package resolve turns per-page candidates into one answer per field. It is
// deterministic and offline: the same candidate set always produces the same
// record, and nothing here touches the network.
package resolve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/oakline/sitetruth/internal/config"
	"github.com/oakline/sitetruth/internal/extract"
	"go.uber.org/zap"
)

// Resolution is the final answer for one field. A nil Value means the field
// was not found anywhere on the site.
type Resolution struct {
	Value      *extract.Value       `json:"value"`
	Confidence float64              `json:"confidence"`
	Provenance []extract.Provenance `json:"provenance"`
	Notes      string               `json:"notes"`
}

// Resolver groups equal values, rewards cross-page agreement, and picks a
// winner per field.
type Resolver struct {
	cfg    config.ResolveConfig
	logger *zap.Logger
}

// New returns a resolver with the given corroboration tuning.
func New(cfg config.ResolveConfig, logger *zap.Logger) *Resolver {
	return &Resolver{cfg: cfg, logger: logger}
}

// Resolve produces a resolution for every known field, including explicit
// not-found entries for fields with no candidates.
func (r *Resolver) Resolve(pool *extract.Pool) map[string]Resolution {
	r.mergeServices(pool)
	byField := pool.ByField()
	out := make(map[string]Resolution, len(extract.AllFields))
	for _, field := range extract.AllFields {
		out[field] = r.resolveField(field, byField[field])
	}
	return out
}

type group struct {
	candidates []extract.Candidate
	score      float64
	pages      int
}

func (r *Resolver) resolveField(field string, candidates []extract.Candidate) Resolution {
	candidates = discardInvalid(field, candidates)
	if len(candidates) == 0 {
		return Resolution{
			Value:      nil,
			Confidence: 0,
			Provenance: []extract.Provenance{},
			Notes:      "not found",
		}
	}

	groups := r.groupByValue(field, candidates)
	winner := pickWinner(groups)

	best := representative(winner.candidates)
	provenance := dedupeProvenance(winner.candidates)

	notes := ""
	if winner.pages > 1 {
		notes = fmt.Sprintf("corroborated across %d pages", winner.pages)
	}
	if r.logger != nil {
		r.logger.Debug("resolved field",
			zap.String("field", field),
			zap.Float64("confidence", winner.score),
			zap.Int("groups", len(groups)),
			zap.Int("corroborating_pages", winner.pages))
	}

	value := best.Value
	return Resolution{
		Value:      &value,
		Confidence: winner.score,
		Provenance: provenance,
		Notes:      notes,
	}
}

// discardInvalid drops candidates that fail hard validation before grouping.
// An email that cannot be an address or a phone that cannot be a number never
// becomes the resolved value; the audit candidate list still records it.
func discardInvalid(field string, candidates []extract.Candidate) []extract.Candidate {
	var valid func(extract.Candidate) bool
	switch field {
	case extract.FieldEmail:
		valid = func(c extract.Candidate) bool { return extract.ValidEmail(c.Value.Str) }
	case extract.FieldPhone:
		valid = func(c extract.Candidate) bool { return extract.ValidPhone(c.Value.Str, "") }
	default:
		return candidates
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if valid(c) {
			out = append(out, c)
		}
	}
	return out
}

// mergeServices adds a combined services candidate so pages with
// partially overlapping lists reinforce one another instead of competing.
// One copy of the union is appended per contributing page, each carrying
// that page's best confidence and method, so the combined group earns the
// normal cross-page corroboration bonus and the resolved value is still a
// value present in the pool.
func (r *Resolver) mergeServices(pool *extract.Pool) {
	candidates := pool.ByField()[extract.FieldServices]
	if len(candidates) < 2 {
		return
	}
	distinct := make(map[string]bool)
	for _, c := range candidates {
		distinct[c.Value.Canonical()] = true
	}
	if len(distinct) < 2 {
		return
	}

	var union []string
	seenItem := make(map[string]bool)
	type pageEvidence struct {
		url        string
		confidence float64
		method     extract.Method
	}
	var pages []pageEvidence
	pageIdx := make(map[string]int)
	for _, c := range candidates {
		for _, item := range c.Value.List {
			key := strings.ToLower(strings.TrimSpace(item))
			if key == "" || seenItem[key] {
				continue
			}
			seenItem[key] = true
			union = append(union, item)
		}
		i, ok := pageIdx[c.Provenance.URL]
		if !ok {
			pageIdx[c.Provenance.URL] = len(pages)
			pages = append(pages, pageEvidence{url: c.Provenance.URL, confidence: c.Confidence, method: c.Provenance.Method})
			continue
		}
		if c.Confidence > pages[i].confidence {
			pages[i].confidence = c.Confidence
			pages[i].method = c.Provenance.Method
		}
	}
	if len(union) == 0 {
		return
	}
	for _, p := range pages {
		pool.Add(extract.Candidate{
			Field:      extract.FieldServices,
			Value:      extract.List(union),
			Confidence: p.confidence,
			Provenance: extract.Provenance{URL: p.url, Method: p.method},
		})
	}
}

// groupByValue buckets candidates whose values are equal after normalization
// and scores each bucket: the best single observation plus a diminishing
// bonus for each additional distinct page that agrees.
func (r *Resolver) groupByValue(field string, candidates []extract.Candidate) []group {
	buckets := make(map[string][]extract.Candidate)
	var order []string
	for _, c := range candidates {
		key := groupKey(field, c.Value)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], c)
	}

	groups := make([]group, 0, len(order))
	for _, key := range order {
		cs := buckets[key]
		maxConf := 0.0
		pages := make(map[string]bool)
		for _, c := range cs {
			if c.Confidence > maxConf {
				maxConf = c.Confidence
			}
			pages[c.Provenance.URL] = true
		}
		n := float64(len(pages))
		score := maxConf + r.cfg.CorroborationBonus*(1-1/n)
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		groups = append(groups, group{candidates: cs, score: score, pages: len(pages)})
	}
	return groups
}

// pickWinner orders groups by score, then provenance count, then earliest
// discovery. The ordering is total, so resolution is deterministic.
func pickWinner(groups []group) group {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].score != groups[j].score {
			return groups[i].score > groups[j].score
		}
		if len(groups[i].candidates) != len(groups[j].candidates) {
			return len(groups[i].candidates) > len(groups[j].candidates)
		}
		return minSeq(groups[i].candidates) < minSeq(groups[j].candidates)
	})
	return groups[0]
}

// representative picks the candidate whose exact value the resolution
// carries: highest confidence, earliest discovery on ties.
func representative(cs []extract.Candidate) extract.Candidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.Confidence > best.Confidence || (c.Confidence == best.Confidence && c.Seq < best.Seq) {
			best = c
		}
	}
	return best
}

// dedupeProvenance unions the group's provenance entries, keeping one entry
// per {url, method} pair in first-seen order.
func dedupeProvenance(cs []extract.Candidate) []extract.Provenance {
	seen := make(map[extract.Provenance]bool, len(cs))
	out := make([]extract.Provenance, 0, len(cs))
	for _, c := range cs {
		if seen[c.Provenance] {
			continue
		}
		seen[c.Provenance] = true
		out = append(out, c.Provenance)
	}
	return out
}

func minSeq(cs []extract.Candidate) uint64 {
	m := cs[0].Seq
	for _, c := range cs[1:] {
		if c.Seq < m {
			m = c.Seq
		}
	}
	return m
}

var legalSuffixPattern = regexp.MustCompile(`(?i)[,\s]+(inc|incorporated|llc|l\.l\.c|ltd|limited|corp|corporation|co|company|gmbh|plc)\.?$`)

// groupKey normalizes a value for equality grouping. Brand names also drop a
// trailing legal suffix so "Acme Plumbing" and "Acme Plumbing LLC" merge;
// the representative keeps its original form.
func groupKey(field string, v extract.Value) string {
	if field == extract.FieldBrandName && v.Kind == extract.KindString {
		stripped := legalSuffixPattern.ReplaceAllString(strings.TrimSpace(v.Str), "")
		return extract.String(stripped).Canonical()
	}
	return v.Canonical()
}
