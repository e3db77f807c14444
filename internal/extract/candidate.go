// Package extract produces scored field candidates from parsed pages. Each
// extractor is a pure function of a single page; cross-page judgement is the
// resolver's job.
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Field names recorded across the pipeline. Every candidate and every
// resolved entry uses one of these.
const (
	FieldBrandName   = "brand_name"
	FieldLocation    = "location"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldSocials     = "socials"
	FieldServices    = "services"
	FieldBrandColors = "brand_colors"
	FieldLogo        = "logo"
	FieldBackground  = "background"
	FieldSlogan      = "slogan"
)

// AllFields lists every field in output order.
var AllFields = []string{
	FieldBrandName, FieldLocation, FieldEmail, FieldPhone, FieldSocials,
	FieldServices, FieldBrandColors, FieldLogo, FieldBackground, FieldSlogan,
}

// Method identifies the evidence class a candidate came from. The class
// determines its base confidence band.
type Method string

const (
	MethodJSONLD    Method = "jsonld"
	MethodMicrodata Method = "microdata"
	MethodMetaTag   Method = "meta"
	MethodOpenGraph Method = "opengraph"
	MethodTelLink   Method = "tel_link"
	MethodMailto    Method = "mailto_link"
	MethodDOM       Method = "dom"
	MethodCSSVars   Method = "css_vars"
	MethodText      Method = "text"
)

// ValueKind tags the shape of a candidate value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindList
	KindMap
)

// Value is a closed variant over the shapes a field can take. Strings cover
// most fields; services and brand_colors are lists; socials and structured
// locations are maps.
type Value struct {
	Kind ValueKind
	Str  string
	List []string
	Map  map[string]string
}

// String wraps a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List wraps a list value.
func List(items []string) Value { return Value{Kind: KindList, List: items} }

// Map wraps a map value.
func Map(m map[string]string) Value { return Value{Kind: KindMap, Map: m} }

// IsZero reports whether the value carries no content.
func (v Value) IsZero() bool {
	switch v.Kind {
	case KindString:
		return v.Str == ""
	case KindList:
		return len(v.List) == 0
	case KindMap:
		return len(v.Map) == 0
	}
	return true
}

// Canonical returns a deterministic encoding used for grouping equal values.
// Strings are lowercased with whitespace collapsed; lists keep order; map
// keys are sorted.
func (v Value) Canonical() string {
	switch v.Kind {
	case KindString:
		return "s:" + strings.Join(strings.Fields(strings.ToLower(v.Str)), " ")
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = strings.Join(strings.Fields(strings.ToLower(item)), " ")
		}
		return "l:" + strings.Join(parts, "\x1f")
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "\x1e" + strings.Join(strings.Fields(strings.ToLower(v.Map[k])), " ")
		}
		return "m:" + strings.Join(parts, "\x1f")
	}
	return ""
}

// MarshalJSON renders the wrapped value directly, so truth.json carries the
// natural JSON shape rather than the variant wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		if v.Map == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Map)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON accepts the natural JSON shapes back, so written records can
// be reloaded by downstream tooling.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = List(list)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*v = Map(m)
		return nil
	}
	return fmt.Errorf("value is not a string, string list, or string map: %s", data)
}

// Provenance records where a candidate was observed.
type Provenance struct {
	URL    string `json:"url"`
	Method Method `json:"method"`
}

// Candidate is one observation of a field value on one page, with its scored
// confidence and a monotonic discovery sequence for deterministic
// tie-breaking.
type Candidate struct {
	Field      string
	Value      Value
	Confidence float64
	Provenance Provenance
	Seq        uint64
}

// Pool accumulates candidates from concurrent page workers. The sequence
// counter orders candidates by discovery across all pages.
type Pool struct {
	mu         sync.Mutex
	candidates []Candidate
	seq        uint64
}

// NewPool returns an empty candidate pool.
func NewPool() *Pool { return &Pool{} }

// Add assigns the next discovery sequence and stores the candidate. Empty
// values are dropped.
func (p *Pool) Add(c Candidate) {
	if c.Value.IsZero() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c.Seq = p.seq
	p.seq++
	p.candidates = append(p.candidates, c)
}

// AddAll stores a batch under one lock, preserving the batch's order.
func (p *Pool) AddAll(cs []Candidate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range cs {
		if c.Value.IsZero() {
			continue
		}
		c.Seq = p.seq
		p.seq++
		p.candidates = append(p.candidates, c)
	}
}

// Candidates returns a snapshot of everything collected so far.
func (p *Pool) Candidates() []Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Candidate, len(p.candidates))
	copy(out, p.candidates)
	return out
}

// ByField returns collected candidates grouped by field name.
func (p *Pool) ByField() map[string][]Candidate {
	grouped := make(map[string][]Candidate)
	for _, c := range p.Candidates() {
		grouped[c.Field] = append(grouped[c.Field], c)
	}
	return grouped
}

// Len returns the number of collected candidates.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.candidates)
}
