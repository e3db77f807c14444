package extract

import (
	"regexp"
	"strings"

	"github.com/oakline/sitetruth/internal/parser"
)

// BrandNameExtractor finds the business name outside structured data:
// og:site_name and og:title meta tags, title-tag segments, the header h1,
// logo alt text, and copyright lines.
type BrandNameExtractor struct {
	Scorer *Scorer
}

func (e *BrandNameExtractor) Name() string { return "brand_name" }

var (
	titleSeparators  = regexp.MustCompile(`\s*[|\x{2013}\x{2014}:\x{00b7}]\s*|\s+-\s+`)
	copyrightPattern = regexp.MustCompile(`(?:©|\(c\)|&copy;|[Cc]opyright)\s*(?:\d{4}(?:\s*[-\x{2013}]\s*\d{4})?)?\s*(?:by\s+)?([A-Z][\w&.,' ]{1,60}?)(?:\.\s|\.$|\s+[Aa]ll\s|$|\s*[|.])`)
	phoneLikeText    = regexp.MustCompile(`\d{3}[\s.\-)]*\d{3}[\s.\-]*\d{4}|\(\d{3}\)\s*\d{3}|\+\d{1,3}\s*\d{3}`)
	genericSegments  = map[string]bool{
		"home": true, "homepage": true, "welcome": true, "index": true,
		"official site": true, "official website": true,
	}
	navTerms = map[string]bool{
		"about": true, "about us": true, "contact": true, "contact us": true,
		"services": true, "our services": true, "portfolio": true, "gallery": true,
		"blog": true, "news": true, "careers": true, "team": true, "our team": true,
		"our work": true, "get in touch": true, "menu": true, "pricing": true,
		"facebook": true, "instagram": true, "twitter": true, "linkedin": true,
		"youtube": true, "tiktok": true, "yelp": true, "logo": true,
	}
	ctaPhrases = []string{
		"call us", "call now", "call today", "contact us", "click here",
		"click to", "tap to", "learn more", "get started", "get a quote",
		"schedule", "book now", "free estimate", "request", "sign up",
		"subscribe", "follow us", "join us", "visit us", "find us", "reach us",
	}
)

func (e *BrandNameExtractor) Extract(page Page) []Candidate {
	var out []Candidate
	add := func(name string, m Method, quality float64) {
		out = append(out, Candidate{
			Field:      FieldBrandName,
			Value:      String(name),
			Confidence: e.Scorer.Score(m, quality, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: m},
		})
	}

	if siteName := page.Doc.MetaProperty("og:site_name"); siteName != "" {
		add(siteName, MethodOpenGraph, 0.9)
	}

	if ogTitle := strings.TrimSpace(page.Doc.MetaProperty("og:title")); looksLikeBusinessName(ogTitle) {
		add(ogTitle, MethodOpenGraph, 0.8)
	}

	if name := bestTitleSegment(page.Doc.Title()); name != "" {
		add(name, MethodDOM, 0.7)
	}

	if h1 := parser.CollapseText(page.Doc.Find("header h1").First(), 8); looksLikeBusinessName(h1) {
		add(h1, MethodDOM, 0.8)
	}

	for _, img := range page.Doc.Images("logo") {
		alt := strings.TrimSpace(img.Alt)
		if looksLikeBusinessName(alt) {
			add(alt, MethodDOM, 0.65)
			break
		}
	}

	if name := copyrightName(page.Doc.Text()); name != "" {
		add(name, MethodText, 0.6)
	}
	return out
}

// bestTitleSegment splits a title on common separators and returns the first
// segment that looks like a business name rather than a page label.
func bestTitleSegment(title string) string {
	for _, seg := range titleSeparators.Split(title, -1) {
		seg = strings.TrimSpace(seg)
		if looksLikeBusinessName(seg) {
			return seg
		}
	}
	return ""
}

// looksLikeBusinessName filters out everything a name cannot be: page
// labels, navigation terms, calls to action, phone numbers, emails, and
// URLs. What remains is 1 to 6 words starting with a letter or digit.
func looksLikeBusinessName(s string) bool {
	if len(s) < 3 {
		return false
	}
	lower := strings.ToLower(s)
	if genericSegments[lower] || navTerms[lower] {
		return false
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	if strings.ContainsAny(s, "?!@") {
		return false
	}
	if phoneLikeText.MatchString(s) {
		return false
	}
	if hasDigit(s) && (strings.Contains(lower, "call") || strings.Contains(lower, "phone") || strings.Contains(lower, "tel")) {
		return false
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.") || strings.Contains(lower, ".com") {
		return false
	}
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	first := rune(s[0])
	return (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z') || (first >= '0' && first <= '9')
}

func hasDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}

func copyrightName(text string) string {
	m := copyrightPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(strings.Trim(m[1], " .,"))
	if !looksLikeBusinessName(name) {
		return ""
	}
	return name
}
