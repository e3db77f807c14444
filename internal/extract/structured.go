package extract

import (
	"strings"

	"github.com/oakline/sitetruth/internal/parser"
)

// StructuredDataExtractor reads embedded schema.org objects: JSON-LD blocks
// and PostalAddress microdata. This is the highest-trust evidence on a page.
type StructuredDataExtractor struct {
	Scorer *Scorer
}

func (e *StructuredDataExtractor) Name() string { return "structured_data" }

func (e *StructuredDataExtractor) Extract(page Page) []Candidate {
	var out []Candidate
	for _, obj := range page.Doc.JSONLD() {
		if !isBusinessObject(obj) {
			continue
		}
		out = append(out, e.fromObject(page, obj)...)
	}

	for _, addr := range page.Doc.StructuredAddresses() {
		out = append(out, Candidate{
			Field:      FieldLocation,
			Value:      Map(renameAddressKeys(addr)),
			Confidence: e.Scorer.Score(MethodMicrodata, 0.85, page.Depth, 0),
			Provenance: Provenance{URL: page.URL, Method: MethodMicrodata},
		})
	}
	return out
}

func (e *StructuredDataExtractor) fromObject(page Page, obj map[string]any) []Candidate {
	var out []Candidate
	add := func(field string, v Value, quality, bonus float64) {
		if v.IsZero() {
			return
		}
		out = append(out, Candidate{
			Field:      field,
			Value:      v,
			Confidence: e.Scorer.Score(MethodJSONLD, quality, page.Depth, bonus),
			Provenance: Provenance{URL: page.URL, Method: MethodJSONLD},
		})
	}

	if name := parser.StringField(obj, "name"); name != "" {
		add(FieldBrandName, String(name), 0.9, 0)
	}
	if legal := parser.StringField(obj, "legalName"); legal != "" {
		add(FieldBrandName, String(legal), 0.8, 0)
	}

	if email := parser.StringField(obj, "email"); email != "" {
		email = strings.TrimPrefix(strings.ToLower(email), "mailto:")
		bonus := 0.0
		if ValidEmail(email) {
			bonus = 0.05
		}
		add(FieldEmail, String(email), 0.9, bonus)
	}

	if phone := parser.StringField(obj, "telephone"); phone != "" {
		bonus := 0.0
		if ValidPhone(phone, "") {
			bonus = 0.05
			phone = FormatPhone(phone, "")
		}
		add(FieldPhone, String(phone), 0.9, bonus)
	}

	switch addr := obj["address"].(type) {
	case string:
		bonus := 0.0
		if PlausibleAddress(addr) {
			bonus = 0.05
		}
		add(FieldLocation, String(strings.TrimSpace(addr)), 0.8, bonus)
	case map[string]any:
		m := make(map[string]string)
		for jsonKey, outKey := range addressKeyNames {
			if v := parser.StringField(addr, jsonKey); v != "" {
				m[outKey] = v
			}
		}
		add(FieldLocation, Map(m), 0.9, 0)
	}

	if logo := logoURL(obj["logo"]); logo != "" {
		add(FieldLogo, String(logo), 0.85, 0)
	}
	if slogan := parser.StringField(obj, "slogan"); slogan != "" {
		add(FieldSlogan, String(slogan), 0.85, 0)
	}
	if desc := parser.StringField(obj, "description"); desc != "" {
		add(FieldBackground, String(truncateWords(desc, 50)), 0.8, 0)
	}
	return out
}

var businessTypeMarkers = []string{"Organization", "Business", "Store", "Restaurant", "Service", "Corporation", "Company"}

func isBusinessObject(obj map[string]any) bool {
	for _, t := range parser.TypeOf(obj) {
		for _, marker := range businessTypeMarkers {
			if strings.Contains(t, marker) {
				return true
			}
		}
	}
	return false
}

// addressKeyNames maps schema.org address properties to the component names
// used in output records.
var addressKeyNames = map[string]string{
	"streetAddress":   "street",
	"addressLocality": "city",
	"addressRegion":   "region",
	"postalCode":      "postal_code",
	"addressCountry":  "country",
}

func renameAddressKeys(addr map[string]string) map[string]string {
	out := make(map[string]string, len(addr))
	for jsonKey, outKey := range addressKeyNames {
		if v, ok := addr[jsonKey]; ok {
			out[outKey] = v
		}
	}
	return out
}

func logoURL(v any) string {
	switch logo := v.(type) {
	case string:
		return strings.TrimSpace(logo)
	case map[string]any:
		return parser.StringField(logo, "url")
	}
	return ""
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if max <= 0 || len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ")
}

// SameAsLinks returns the sameAs URLs of every business object on the page.
// The socials extractor folds these into its per-page profile map.
func SameAsLinks(doc *parser.Document) []string {
	var out []string
	for _, obj := range doc.JSONLD() {
		if !isBusinessObject(obj) {
			continue
		}
		out = append(out, parser.StringsField(obj, "sameAs")...)
	}
	return out
}
