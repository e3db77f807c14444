package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oakline/sitetruth/internal/parser"
)

// TextBitsExtractor covers the prose fields: the background blurb and the
// slogan. Meta descriptions and about-section paragraphs feed background;
// hero headings and tagline-classed elements feed slogan.
type TextBitsExtractor struct {
	Scorer             *Scorer
	BackgroundMaxWords int
	SloganMaxWords     int
}

func (e *TextBitsExtractor) Name() string { return "text_bits" }

func (e *TextBitsExtractor) Extract(page Page) []Candidate {
	var out []Candidate

	addBackground := func(text string, method Method, quality float64) {
		text = truncateWords(text, e.BackgroundMaxWords)
		if text == "" {
			return
		}
		out = append(out, Candidate{
			Field:      FieldBackground,
			Value:      String(text),
			Confidence: e.Scorer.Score(method, quality, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: method},
		})
	}

	if desc := page.Doc.Meta("description"); desc != "" {
		addBackground(desc, MethodMetaTag, 0.8)
	}
	if desc := page.Doc.MetaProperty("og:description"); desc != "" {
		addBackground(desc, MethodOpenGraph, 0.75)
	}
	if about := e.aboutParagraph(page.Doc); about != "" {
		addBackground(about, MethodText, 0.6)
	}

	for _, slogan := range e.slogans(page.Doc) {
		out = append(out, Candidate{
			Field:      FieldSlogan,
			Value:      String(slogan.text),
			Confidence: e.Scorer.Score(slogan.method, slogan.quality, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: slogan.method},
		})
	}
	return out
}

// aboutParagraph returns the first substantial paragraph in an about-flavored
// section.
func (e *TextBitsExtractor) aboutParagraph(doc *parser.Document) string {
	for _, section := range doc.SectionsByText("about us", "about", "our story", "who we are") {
		text := ""
		section.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidate := parser.CollapseText(s, 0)
			if len(strings.Fields(candidate)) >= 10 {
				text = candidate
				return false
			}
			return true
		})
		if text != "" {
			return text
		}
	}
	return ""
}

type sloganHit struct {
	text    string
	method  Method
	quality float64
}

func (e *TextBitsExtractor) slogans(doc *parser.Document) []sloganHit {
	var out []sloganHit
	seen := make(map[string]bool)
	add := func(text string, method Method, quality float64) {
		text = strings.TrimSpace(text)
		words := strings.Fields(text)
		if len(words) < 2 || len(words) > e.SloganMaxWords {
			return
		}
		key := strings.ToLower(text)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, sloganHit{text: text, method: method, quality: quality})
	}

	doc.Find(`[class*="tagline"], [class*="slogan"], [class*="motto"]`).Each(func(_ int, s *goquery.Selection) {
		add(parser.CollapseText(s, 0), MethodDOM, 0.8)
	})
	doc.Find("header h2, .hero h2, .hero p, h1 + p").Each(func(_ int, s *goquery.Selection) {
		add(parser.CollapseText(s, 0), MethodText, 0.6)
	})
	return out
}
