package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oakline/sitetruth/internal/parser"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Taxonomy maps service keywords to canonical service names.
type Taxonomy struct {
	Services []TaxonomyEntry `yaml:"services"`
}

// TaxonomyEntry is one canonical service and its trigger phrases.
type TaxonomyEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// LoadTaxonomy reads a taxonomy override from path, or the embedded default
// when path is empty.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	raw := defaultTaxonomyYAML
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy: %w", err)
		}
	}
	var t Taxonomy
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Services) == 0 {
		return nil, fmt.Errorf("taxonomy has no services")
	}
	return &t, nil
}

// Match returns the canonical names whose keywords appear in text, in
// taxonomy order.
func (t *Taxonomy) Match(text string) []string {
	text = strings.ToLower(text)
	var out []string
	for _, entry := range t.Services {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, entry.Name)
				break
			}
		}
	}
	return out
}

// ServicesExtractor names what the business does. Navigation labels and
// services-section headings are the strongest page signals; full-text
// matches back them up.
type ServicesExtractor struct {
	Scorer   *Scorer
	Taxonomy *Taxonomy
	MaxCount int
}

func (e *ServicesExtractor) Name() string { return "services" }

func (e *ServicesExtractor) Extract(page Page) []Candidate {
	var out []Candidate

	if matched := e.matchNavAndSections(page.Doc); len(matched) > 0 {
		out = append(out, Candidate{
			Field:      FieldServices,
			Value:      List(e.cap(matched)),
			Confidence: e.Scorer.Score(MethodDOM, 0.7, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: MethodDOM},
		})
	}

	if matched := e.Taxonomy.Match(page.Doc.Text()); len(matched) > 0 {
		out = append(out, Candidate{
			Field:      FieldServices,
			Value:      List(e.cap(matched)),
			Confidence: e.Scorer.Score(MethodText, 0.5, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: MethodText},
		})
	}
	return out
}

func (e *ServicesExtractor) matchNavAndSections(doc *parser.Document) []string {
	var matched []string
	seen := make(map[string]bool)
	collect := func(text string) {
		for _, name := range e.Taxonomy.Match(text) {
			if !seen[name] {
				seen[name] = true
				matched = append(matched, name)
			}
		}
	}

	doc.Find("nav a, header a").Each(func(_ int, s *goquery.Selection) {
		collect(s.Text())
	})
	for _, section := range doc.SectionsByText("our services", "services", "what we do", "specialties") {
		section.Find("li, h3, h4").Each(func(_ int, s *goquery.Selection) {
			collect(s.Text())
		})
	}
	return matched
}

func (e *ServicesExtractor) cap(items []string) []string {
	items = dedupeStrings(items)
	if e.MaxCount > 0 && len(items) > e.MaxCount {
		items = items[:e.MaxCount]
	}
	return items
}
