package extract

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Offline plausibility checks. A passing check earns a small confidence
// bonus at scoring time; emails and phones that fail outright are discarded
// by the resolver before grouping.

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	zipPattern    = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	hexPattern    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	streetPattern = regexp.MustCompile(`(?i)\b\d+\s+\w+.*\b(st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|way|ct|court|pl|place|suite|ste)\b`)
)

// ValidEmail reports whether s has plausible address syntax.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidPhone parses s against the given region (falling back to US) and
// reports whether it is a possible number.
func ValidPhone(s, region string) bool {
	if region == "" {
		region = "US"
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(s), region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

// FormatPhone returns the E.164 form of s when it parses, else s unchanged.
func FormatPhone(s, region string) string {
	if region == "" {
		region = "US"
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(s), region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return s
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ValidHexColor reports whether s is a normalized #rrggbb color.
func ValidHexColor(s string) bool { return hexPattern.MatchString(s) }

// PlausibleAddress reports whether s looks like a street address: a street
// keyword after a leading number, or a ZIP code.
func PlausibleAddress(s string) bool {
	return streetPattern.MatchString(s) || zipPattern.MatchString(s)
}
