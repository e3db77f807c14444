package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ColorsExtractor reads brand colors from CSS custom properties and the
// theme-color meta tag. Every emitted value is normalized #rrggbb.
type ColorsExtractor struct {
	Scorer *Scorer
}

func (e *ColorsExtractor) Name() string { return "brand_colors" }

// brandVarMarkers order doubles as the output priority: a --primary-* value
// leads the list ahead of accents.
var brandVarMarkers = []string{"primary", "brand", "main", "theme", "accent", "secondary"}

var rgbPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)

func (e *ColorsExtractor) Extract(page Page) []Candidate {
	var out []Candidate

	if colors := brandColorsFromVars(page.Doc.CSSVariables()); len(colors) > 0 {
		out = append(out, Candidate{
			Field:      FieldBrandColors,
			Value:      List(colors),
			Confidence: e.Scorer.Score(MethodCSSVars, 0.7, page.Depth, colorBonus(colors)),
			Provenance: Provenance{URL: page.URL, Method: MethodCSSVars},
		})
	}

	if theme := NormalizeColor(page.Doc.Meta("theme-color")); theme != "" {
		out = append(out, Candidate{
			Field:      FieldBrandColors,
			Value:      List([]string{theme}),
			Confidence: e.Scorer.Score(MethodMetaTag, 0.6, page.Depth, 0.05),
			Provenance: Provenance{URL: page.URL, Method: MethodMetaTag},
		})
	}
	return out
}

func brandColorsFromVars(vars map[string]string) []string {
	type scored struct {
		color string
		rank  int
		name  string
	}
	var found []scored
	for name, raw := range vars {
		rank := markerRank(name)
		if rank < 0 {
			continue
		}
		color := NormalizeColor(raw)
		if color == "" {
			continue
		}
		found = append(found, scored{color: color, rank: rank, name: name})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].rank != found[j].rank {
			return found[i].rank < found[j].rank
		}
		return found[i].name < found[j].name
	})

	var out []string
	seen := make(map[string]bool)
	for _, f := range found {
		if seen[f.color] {
			continue
		}
		seen[f.color] = true
		out = append(out, f.color)
	}
	return out
}

func markerRank(varName string) int {
	lower := strings.ToLower(varName)
	for i, marker := range brandVarMarkers {
		if strings.Contains(lower, marker) {
			return i
		}
	}
	return -1
}

// NormalizeColor converts #rgb, #rrggbb, and rgb()/rgba() forms to lowercase
// #rrggbb. Unsupported forms (named colors, hsl, gradients) return "".
func NormalizeColor(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "#") {
		hex := raw[1:]
		switch len(hex) {
		case 3:
			if !isHex(hex) {
				return ""
			}
			return fmt.Sprintf("#%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
		case 6:
			if !isHex(hex) {
				return ""
			}
			return "#" + hex
		case 8:
			if !isHex(hex) {
				return ""
			}
			return "#" + hex[:6]
		}
		return ""
	}
	if m := rgbPattern.FindStringSubmatch(raw); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if r > 255 || g > 255 || b > 255 {
			return ""
		}
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return ""
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// colorBonus rewards a palette that is syntactically valid, and again when
// at least one color is usable as a brand color: WCAG AA contrast against
// white or black.
func colorBonus(colors []string) float64 {
	for _, c := range colors {
		if !ValidHexColor(c) {
			return 0
		}
	}
	bonus := 0.05
	for _, c := range colors {
		if ContrastAA(c, "#ffffff") || ContrastAA(c, "#000000") {
			bonus += 0.05
			break
		}
	}
	return bonus
}

// ContrastAA reports whether two #rrggbb colors meet the WCAG AA contrast
// ratio of 4.5:1.
func ContrastAA(a, b string) bool {
	la, okA := relativeLuminance(a)
	lb, okB := relativeLuminance(b)
	if !okA || !okB {
		return false
	}
	lighter, darker := la, lb
	if darker > lighter {
		lighter, darker = darker, lighter
	}
	return (lighter+0.05)/(darker+0.05) >= 4.5
}

func relativeLuminance(hex string) (float64, bool) {
	if !ValidHexColor(hex) {
		return 0, false
	}
	channel := func(i int) float64 {
		v, _ := strconv.ParseInt(hex[i:i+2], 16, 32)
		c := float64(v) / 255
		if c <= 0.03928 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(1) + 0.7152*channel(3) + 0.0722*channel(5), true
}
