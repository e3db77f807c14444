package extract

import (
	"net/url"
	"strings"
)

// Platform describes one social network: the hostnames that serve it, path
// prefixes that are never profile pages, an optional prefix profile paths
// must carry, and an optional canonical host rewrite.
type Platform struct {
	Name          string
	Hosts         []string
	ExcludePaths  []string
	ProfilePrefix string
	CanonicalHost string
}

// DefaultPlatforms covers the networks small-business sites link to.
var DefaultPlatforms = []Platform{
	{Name: "facebook", Hosts: []string{"facebook.com", "fb.com"}, ExcludePaths: []string{"/sharer", "/share", "/plugins", "/dialog"}},
	{Name: "instagram", Hosts: []string{"instagram.com"}, ExcludePaths: []string{"/p/", "/explore"}},
	{Name: "x", Hosts: []string{"twitter.com", "x.com"}, ExcludePaths: []string{"/intent", "/share", "/search", "/hashtag"}, CanonicalHost: "x.com"},
	{Name: "linkedin", Hosts: []string{"linkedin.com"}, ExcludePaths: []string{"/share", "/shareArticle"}},
	{Name: "youtube", Hosts: []string{"youtube.com"}, ExcludePaths: []string{"/watch", "/embed", "/playlist", "/shorts"}},
	{Name: "tiktok", Hosts: []string{"tiktok.com"}, ExcludePaths: []string{"/share", "/video/"}},
	{Name: "pinterest", Hosts: []string{"pinterest.com"}, ExcludePaths: []string{"/pin/"}},
	{Name: "yelp", Hosts: []string{"yelp.com"}, ProfilePrefix: "/biz/"},
}

// SocialsExtractor collects the page's social profile links into a single
// platform-to-URL map candidate. Anchors and structured-data sameAs links
// both contribute; the first profile seen per platform wins.
type SocialsExtractor struct {
	Scorer    *Scorer
	Platforms []Platform
}

func (e *SocialsExtractor) Name() string { return "socials" }

func (e *SocialsExtractor) Extract(page Page) []Candidate {
	profiles := make(map[string]string)
	sawStructured := false

	for _, link := range SameAsLinks(page.Doc) {
		if name, profile, ok := e.classify(link); ok {
			if _, exists := profiles[name]; !exists {
				profiles[name] = profile
				sawStructured = true
			}
		}
	}
	for _, link := range page.Doc.Links() {
		if name, profile, ok := e.classify(link); ok {
			if _, exists := profiles[name]; !exists {
				profiles[name] = profile
			}
		}
	}
	if len(profiles) == 0 {
		return nil
	}

	method := MethodDOM
	quality := 0.7
	if sawStructured {
		method = MethodJSONLD
		quality = 0.85
	}
	return []Candidate{{
		Field:      FieldSocials,
		Value:      Map(profiles),
		Confidence: e.Scorer.Score(method, quality, page.Depth, 0),
		Provenance: Provenance{URL: page.URL, Method: method},
	}}
}

// classify returns the platform name and normalized profile URL for a
// social link, or false for non-social or share/widget URLs.
func (e *SocialsExtractor) classify(rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := u.Path
	if path == "" || path == "/" {
		return "", "", false
	}
	for _, p := range e.Platforms {
		for _, h := range p.Hosts {
			if host != h && !strings.HasSuffix(host, "."+h) {
				continue
			}
			for _, excluded := range p.ExcludePaths {
				if strings.HasPrefix(path, excluded) {
					return "", "", false
				}
			}
			if p.ProfilePrefix != "" && !strings.HasPrefix(path, p.ProfilePrefix) {
				return "", "", false
			}
			return p.Name, normalizeProfileURL(p, host, path), true
		}
	}
	return "", "", false
}

// normalizeProfileURL canonicalizes a profile link so the same profile seen
// on different pages groups as one value: https scheme, lowercase host with
// any platform host rewrite applied, no query or fragment, no trailing
// slash.
func normalizeProfileURL(p Platform, host, path string) string {
	if p.CanonicalHost != "" {
		host = p.CanonicalHost
	}
	path = strings.TrimRight(path, "/")
	return "https://" + host + path
}
