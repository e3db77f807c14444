// Package parser turns raw HTML plus its source URL into a normalized,
// queryable document for the candidate extractors. It is a pure
// transformation: nothing here fetches, writes, or mutates crawl state.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	cssVarPattern     = regexp.MustCompile(`--([a-zA-Z0-9-]+)\s*:\s*([^;}]+)[;}]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Image describes one <img> element with its resolved source URL.
type Image struct {
	Src    string
	Alt    string
	Class  string
	Width  string
	Height string
}

// Document is a parsed page ready for extraction.
type Document struct {
	doc     *goquery.Document
	pageURL *url.URL
	base    *url.URL
	text    string
	jsonld  []map[string]any
}

// New parses HTML against its source URL. Malformed embedded structured-data
// blocks are skipped rather than failing the page.
func New(html []byte, pageURL string) (*Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{doc: doc, pageURL: parsed, base: parsed}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, err := parsed.Parse(strings.TrimSpace(href)); err == nil {
			d.base = resolved
		}
	}
	d.text = extractText(html)
	d.jsonld = parseJSONLD(doc)
	return d, nil
}

// URL returns the page's own URL (not the <base> override).
func (d *Document) URL() string { return d.pageURL.String() }

// Find exposes goquery selection for extractor heuristics.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Title returns the trimmed <title> text, or "".
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Meta returns the content of <meta name=...>.
func (d *Document) Meta(name string) string {
	sel := d.doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// MetaProperty returns the content of <meta property=...> (OpenGraph style).
func (d *Document) MetaProperty(property string) string {
	sel := d.doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// AbsoluteURL resolves href against the document base. Returns "" when the
// reference cannot be resolved or is not http(s).
func (d *Document) AbsoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	resolved, err := d.base.Parse(href)
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// Links returns every absolute http(s) anchor target on the page.
func (d *Document) Links() []string {
	var links []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if abs := d.AbsoluteURL(href); abs != "" {
			links = append(links, abs)
		}
	})
	return links
}

// NavLinks returns absolute anchor targets found inside nav and header
// elements; these usually point at the site's important pages.
func (d *Document) NavLinks() []string {
	var links []string
	d.doc.Find("nav a[href], header a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if abs := d.AbsoluteURL(href); abs != "" {
			links = append(links, abs)
		}
	})
	return links
}

// Text returns the page's visible text with scripts and styles stripped and
// whitespace collapsed.
func (d *Document) Text() string { return d.text }

// JSONLD returns the parsed structured-data objects embedded in the page,
// with @graph containers flattened.
func (d *Document) JSONLD() []map[string]any { return d.jsonld }

// MailtoLinks returns the addresses of mailto: anchors, prefix stripped.
func (d *Document) MailtoLinks() []string {
	var out []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return
		}
		addr := strings.TrimSpace(strings.SplitN(href[len("mailto:"):], "?", 2)[0])
		if addr != "" {
			out = append(out, addr)
		}
	})
	return out
}

// TelLinks returns the numbers of tel: anchors, prefix stripped.
func (d *Document) TelLinks() []string {
	var out []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(strings.ToLower(href), "tel:") {
			return
		}
		num := strings.TrimSpace(href[len("tel:"):])
		if num != "" {
			out = append(out, num)
		}
	})
	return out
}

// CSSVariables returns custom property declarations found in <style> blocks.
func (d *Document) CSSVariables() map[string]string {
	vars := make(map[string]string)
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		for _, m := range cssVarPattern.FindAllStringSubmatch(s.Text(), -1) {
			vars["--"+m[1]] = strings.TrimSpace(m[2])
		}
	})
	return vars
}

// Images returns the page's images, optionally filtered to those whose
// src/alt/class matches any of the given substrings (case-insensitive).
func (d *Document) Images(patterns ...string) []Image {
	var out []Image
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		class, _ := s.Attr("class")
		if len(patterns) > 0 {
			combined := strings.ToLower(src + " " + alt + " " + class)
			matched := false
			for _, p := range patterns {
				if strings.Contains(combined, strings.ToLower(p)) {
					matched = true
					break
				}
			}
			if !matched {
				return
			}
		}
		abs := d.AbsoluteURL(src)
		if abs == "" {
			return
		}
		width, _ := s.Attr("width")
		height, _ := s.Attr("height")
		out = append(out, Image{Src: abs, Alt: alt, Class: class, Width: width, Height: height})
	})
	return out
}

// ItemProp returns elements carrying the given microdata itemprop.
func (d *Document) ItemProp(name string) *goquery.Selection {
	return d.doc.Find(fmt.Sprintf(`[itemprop=%q]`, name))
}

// StructuredAddresses returns schema.org PostalAddress microdata blocks as
// component maps.
func (d *Document) StructuredAddresses() []map[string]string {
	var out []map[string]string
	d.doc.Find(`[itemtype*="schema.org/PostalAddress"]`).Each(func(_ int, s *goquery.Selection) {
		addr := make(map[string]string)
		for _, prop := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
			val := strings.TrimSpace(s.Find(fmt.Sprintf(`[itemprop=%q]`, prop)).First().Text())
			if val != "" {
				addr[prop] = val
			}
		}
		if len(addr) > 0 {
			out = append(out, addr)
		}
	})
	return out
}

// SectionsByText returns headings, sections and divs whose text matches any
// of the given case-insensitive patterns. Used to locate contact/about/
// services regions.
func (d *Document) SectionsByText(patterns ...string) []*goquery.Selection {
	var matches []*goquery.Selection
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	d.doc.Find("h1, h2, h3, section, div").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(s.Text())
		for _, p := range lowered {
			if strings.Contains(text, p) {
				matches = append(matches, s)
				return
			}
		}
	})
	return matches
}

// CollapseText trims a selection's text to clean single-space form,
// optionally truncated to maxWords (0 means unlimited).
func CollapseText(s *goquery.Selection, maxWords int) string {
	text := whitespacePattern.ReplaceAllString(strings.TrimSpace(s.Text()), " ")
	if maxWords > 0 {
		words := strings.Fields(text)
		if len(words) > maxWords {
			text = strings.Join(words[:maxWords], " ")
		}
	}
	return text
}

func extractText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(doc.Text()), " ")
}
