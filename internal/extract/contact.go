package extract

import (
	"regexp"
	"strings"
)

// ContactExtractor finds emails, phone numbers, and addresses outside
// structured data: tel:/mailto: anchors first, then page-text patterns.
type ContactExtractor struct {
	Scorer *Scorer
}

func (e *ContactExtractor) Name() string { return "contact" }

var (
	emailInText = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneInText = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}`)
	addrInText  = regexp.MustCompile(`(?i)\d{1,6}\s+[A-Za-z0-9.' ]+\b(?:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|way|ct|court|pl|place)\b\.?(?:,?\s+(?:suite|ste|unit|#)\s*\w+)?(?:,\s*[A-Za-z.' ]+)?(?:,\s*[A-Z]{2})?(?:\s+\d{5}(?:-\d{4})?)?`)

	imageEmailSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
)

func (e *ContactExtractor) Extract(page Page) []Candidate {
	var out []Candidate

	for _, addr := range dedupeStrings(page.Doc.MailtoLinks()) {
		addr = strings.ToLower(addr)
		bonus := 0.0
		if ValidEmail(addr) {
			bonus = 0.05
		}
		out = append(out, Candidate{
			Field:      FieldEmail,
			Value:      String(addr),
			Confidence: e.Scorer.Score(MethodMailto, 0.9, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodMailto},
		})
	}

	for _, num := range dedupeStrings(page.Doc.TelLinks()) {
		bonus := 0.0
		if ValidPhone(num, "") {
			bonus = 0.05
			num = FormatPhone(num, "")
		}
		out = append(out, Candidate{
			Field:      FieldPhone,
			Value:      String(num),
			Confidence: e.Scorer.Score(MethodTelLink, 0.9, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodTelLink},
		})
	}

	text := page.Doc.Text()

	for _, addr := range dedupeStrings(emailInText.FindAllString(text, -1)) {
		addr = strings.ToLower(addr)
		if isImageFilename(addr) {
			continue
		}
		bonus := 0.0
		if ValidEmail(addr) {
			bonus = 0.05
		}
		out = append(out, Candidate{
			Field:      FieldEmail,
			Value:      String(addr),
			Confidence: e.Scorer.Score(MethodText, 0.6, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodText},
		})
	}

	for _, num := range dedupeStrings(phoneInText.FindAllString(text, -1)) {
		num = strings.TrimSpace(num)
		bonus := 0.0
		if ValidPhone(num, "") {
			bonus = 0.05
			num = FormatPhone(num, "")
		}
		out = append(out, Candidate{
			Field:      FieldPhone,
			Value:      String(num),
			Confidence: e.Scorer.Score(MethodText, 0.6, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodText},
		})
	}

	if addr := addrInText.FindString(text); addr != "" {
		addr = strings.TrimSpace(addr)
		bonus := 0.0
		if PlausibleAddress(addr) {
			bonus = 0.05
		}
		out = append(out, Candidate{
			Field:      FieldLocation,
			Value:      String(addr),
			Confidence: e.Scorer.Score(MethodText, 0.5, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodText},
		})
	}
	return out
}

// isImageFilename filters the "name@2x.png" pattern that the email regex
// matches in srcset-heavy markup.
func isImageFilename(s string) bool {
	for _, suffix := range imageEmailSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
