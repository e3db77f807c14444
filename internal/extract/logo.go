package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LogoExtractor finds the site logo from img elements that advertise
// themselves as logos, plus apple-touch icons as a weak fallback. Vector and
// lossless formats score higher than lossy ones.
type LogoExtractor struct {
	Scorer *Scorer
}

func (e *LogoExtractor) Name() string { return "logo" }

var formatQuality = []struct {
	suffix  string
	quality float64
}{
	{".svg", 0.9},
	{".png", 0.8},
	{".webp", 0.7},
	{".jpg", 0.55},
	{".jpeg", 0.55},
	{".gif", 0.45},
	{".ico", 0.35},
}

func (e *LogoExtractor) Extract(page Page) []Candidate {
	var out []Candidate

	for _, img := range page.Doc.Images("logo") {
		out = append(out, Candidate{
			Field:      FieldLogo,
			Value:      String(img.Src),
			Confidence: e.Scorer.Score(MethodDOM, logoQuality(img.Src), page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: MethodDOM},
		})
	}

	if len(out) == 0 {
		page.Doc.Find(`link[rel="apple-touch-icon"]`).Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			abs := page.Doc.AbsoluteURL(href)
			if abs == "" {
				return
			}
			out = append(out, Candidate{
				Field:      FieldLogo,
				Value:      String(abs),
				Confidence: e.Scorer.Score(MethodDOM, 0.4, page.Depth, 0),
				Provenance: Provenance{URL: page.URL, Method: MethodDOM},
			})
		})
	}
	return out
}

// logoQuality maps the image format to a within-band quality.
func logoQuality(src string) float64 {
	lower := strings.ToLower(src)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, f := range formatQuality {
		if strings.HasSuffix(lower, f.suffix) {
			return f.quality
		}
	}
	return 0.5
}
