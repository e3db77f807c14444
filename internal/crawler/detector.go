package crawler

import (
	"bytes"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// ShellDetector flags statically fetched pages that are JavaScript shells:
// almost no visible text, a client-side redirect, or an empty framework
// mount point.
type ShellDetector struct {
	minTextChars int
}

// NewShellDetector treats pages with fewer than minTextChars of visible text
// as render candidates.
func NewShellDetector(minTextChars int) *ShellDetector {
	return &ShellDetector{minTextChars: minTextChars}
}

var clientRedirect = regexp.MustCompile(`(?i)window\.location|document\.location|http-equiv=["']?refresh`)

// mountIDs are the root element ids the common SPA frameworks render into.
var mountIDs = []string{"root", "app", "__next", "___gatsby"}

// NeedsRender implements Detector.
func (d *ShellDetector) NeedsRender(page Page) bool {
	if len(page.Body) == 0 {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return false
	}
	stripped := doc.Clone()
	stripped.Find("script, style, noscript").Remove()
	text := bytes.TrimSpace([]byte(stripped.Text()))

	if d.minTextChars > 0 && len(text) < d.minTextChars {
		return true
	}
	if len(text) < 4*d.minTextChars && clientRedirect.Match(page.Body) {
		return true
	}
	for _, id := range mountIDs {
		mount := doc.Find("#" + id)
		if mount.Length() == 1 && len(bytes.TrimSpace([]byte(mount.Text()))) == 0 {
			return true
		}
	}
	return false
}
