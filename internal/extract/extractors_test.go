package extract

import (
	"strings"
	"testing"

	"github.com/oakline/sitetruth/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testPage(t *testing.T, html string, depth int) Page {
	t.Helper()
	doc, err := parser.New([]byte(html), "https://acme.example/")
	require.NoError(t, err)
	return Page{Doc: doc, URL: "https://acme.example/", Depth: depth}
}

func candidatesFor(cs []Candidate, field string) []Candidate {
	var out []Candidate
	for _, c := range cs {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

func TestStructuredDataExtractor(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@type":"LocalBusiness",
 "name":"Acme Plumbing","email":"MAILTO:Info@Acme.example",
 "telephone":"(555) 867-5309",
 "address":{"@type":"PostalAddress","streetAddress":"12 Main St","addressLocality":"Springfield","postalCode":"62704"},
 "logo":{"@type":"ImageObject","url":"https://acme.example/logo.svg"},
 "slogan":"Pipes done right",
 "description":"Family owned plumbing since 1985."}
</script></head><body></body></html>`
	ex := &StructuredDataExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	names := candidatesFor(cs, FieldBrandName)
	require.Len(t, names, 1)
	assert.Equal(t, "Acme Plumbing", names[0].Value.Str)
	assert.GreaterOrEqual(t, names[0].Confidence, 0.85)

	emails := candidatesFor(cs, FieldEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "info@acme.example", emails[0].Value.Str)

	phones := candidatesFor(cs, FieldPhone)
	require.Len(t, phones, 1)
	assert.Equal(t, "+15558675309", phones[0].Value.Str, "valid numbers come back E.164")

	locs := candidatesFor(cs, FieldLocation)
	require.Len(t, locs, 1)
	assert.Equal(t, KindMap, locs[0].Value.Kind)
	assert.Equal(t, "12 Main St", locs[0].Value.Map["street"])
	assert.Equal(t, "Springfield", locs[0].Value.Map["city"])

	logos := candidatesFor(cs, FieldLogo)
	require.Len(t, logos, 1)
	assert.Equal(t, "https://acme.example/logo.svg", logos[0].Value.Str)

	assert.Len(t, candidatesFor(cs, FieldSlogan), 1)
	assert.Len(t, candidatesFor(cs, FieldBackground), 1)
}

func TestStructuredDataIgnoresNonBusinessObjects(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"BreadcrumbList","name":"Home"}
</script></head><body></body></html>`
	ex := &StructuredDataExtractor{Scorer: NewScorer(testExtractConfig())}
	assert.Empty(t, ex.Extract(testPage(t, html, 0)))
}

func TestBrandNameExtractor(t *testing.T) {
	html := `<html><head>
<title>Home | Acme Plumbing</title>
<meta property="og:site_name" content="Acme Plumbing Co">
</head><body>
<footer>© 2024 Acme Plumbing Inc. All rights reserved.</footer>
</body></html>`
	ex := &BrandNameExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 3)
	values := []string{cs[0].Value.Str, cs[1].Value.Str, cs[2].Value.Str}
	assert.Contains(t, values, "Acme Plumbing Co")
	assert.Contains(t, values, "Acme Plumbing")
	assert.Contains(t, values, "Acme Plumbing Inc")
}

func TestBestTitleSegment(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Home | Acme Plumbing", "Acme Plumbing"},
		{"Acme Plumbing - Springfield's Trusted Plumbers Since 1985 And More", "Acme Plumbing"},
		{"Welcome", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bestTitleSegment(tt.title), tt.title)
	}
}

func TestBrandNameHeaderAndLogoSources(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Acme Plumbing">
</head><body>
<header><h1>Acme Plumbing</h1><img class="site-logo" src="/logo.svg" alt="Acme Plumbing"></header>
</body></html>`
	ex := &BrandNameExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 3)
	methods := map[Method]int{}
	for _, c := range cs {
		assert.Equal(t, "Acme Plumbing", c.Value.Str)
		methods[c.Provenance.Method]++
	}
	assert.Equal(t, 1, methods[MethodOpenGraph], "og:title contributes")
	assert.Equal(t, 2, methods[MethodDOM], "header h1 and logo alt both contribute")
}

func TestLooksLikeBusinessNameGate(t *testing.T) {
	rejects := []string{
		"Call 555-123-4567",
		"Call us at (555) 123-4567",
		"Contact Us",
		"info@acme.example",
		"https://acme.example",
		"www.acme.com",
		"Learn More Today",
		"Our Services",
	}
	for _, s := range rejects {
		assert.False(t, looksLikeBusinessName(s), s)
	}

	accepts := []string{"Acme Plumbing", "7-Eleven", "Acme & Sons Plumbing"}
	for _, s := range accepts {
		assert.True(t, looksLikeBusinessName(s), s)
	}
}

func TestContactExtractor(t *testing.T) {
	html := `<html><body>
<a href="mailto:info@acme.example">Email</a>
<a href="tel:555-867-5309">Call</a>
<p>Reach us at info@acme.example or (555) 867-5309.</p>
<p>Visit us at 12 Main Street, Springfield, IL 62704</p>
<img srcset="hero@2x.png">
</body></html>`
	ex := &ContactExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 1))

	emails := candidatesFor(cs, FieldEmail)
	require.Len(t, emails, 2, "anchor and text evidence are separate candidates")
	assert.Greater(t, emails[0].Confidence, emails[1].Confidence, "mailto outranks text match")

	phones := candidatesFor(cs, FieldPhone)
	require.Len(t, phones, 2)
	for _, p := range phones {
		assert.Equal(t, "+15558675309", p.Value.Str)
	}

	locs := candidatesFor(cs, FieldLocation)
	require.Len(t, locs, 1)
	assert.Contains(t, locs[0].Value.Str, "12 Main Street")
}

func TestContactExtractorSkipsImageFilenames(t *testing.T) {
	html := `<html><body><p>background: url(hero@2x.png) team@2x.jpeg</p></body></html>`
	ex := &ContactExtractor{Scorer: NewScorer(testExtractConfig())}
	assert.Empty(t, candidatesFor(ex.Extract(testPage(t, html, 1)), FieldEmail))
}

func TestSocialsExtractor(t *testing.T) {
	html := `<html><body>
<a href="https://www.facebook.com/acmeplumbing">Facebook</a>
<a href="https://facebook.com/sharer/sharer.php?u=x">Share</a>
<a href="https://x.com/acmeplumb">X</a>
<a href="https://www.youtube.com/watch?v=abc">Video</a>
<a href="https://instagram.com/">Instagram home</a>
</body></html>`
	ex := &SocialsExtractor{Scorer: NewScorer(testExtractConfig()), Platforms: DefaultPlatforms}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 1)
	profiles := cs[0].Value.Map
	assert.Equal(t, "https://facebook.com/acmeplumbing", profiles["facebook"])
	assert.Equal(t, "https://x.com/acmeplumb", profiles["x"])
	assert.NotContains(t, profiles, "youtube", "watch pages are not profiles")
	assert.NotContains(t, profiles, "instagram", "bare platform root is not a profile")
}

func TestSocialsProfileNormalization(t *testing.T) {
	html := `<html><body>
<a href="http://Facebook.com/acme/?ref=footer">fb</a>
<a href="https://twitter.com/acmeplumb">tw</a>
<a href="https://www.yelp.com/biz/acme-plumbing-springfield">yelp</a>
<a href="https://yelp.com/search?q=plumber">yelp search</a>
</body></html>`
	ex := &SocialsExtractor{Scorer: NewScorer(testExtractConfig()), Platforms: DefaultPlatforms}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 1)
	profiles := cs[0].Value.Map
	assert.Equal(t, "https://facebook.com/acme", profiles["facebook"],
		"scheme, case, query, and trailing slash are normalized away")
	assert.Equal(t, "https://x.com/acmeplumb", profiles["x"], "twitter links canonicalize to x.com")
	assert.Equal(t, "https://yelp.com/biz/acme-plumbing-springfield", profiles["yelp"])
	assert.Len(t, profiles, 3, "yelp search pages are not profiles")
}

func TestSocialsExtractorPrefersSameAs(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@type":"Organization","name":"Acme","sameAs":["https://www.facebook.com/acme-official"]}
</script></head><body>
<a href="https://www.facebook.com/acme-fanpage">fb</a>
</body></html>`
	ex := &SocialsExtractor{Scorer: NewScorer(testExtractConfig()), Platforms: DefaultPlatforms}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 1)
	assert.Equal(t, "https://facebook.com/acme-official", cs[0].Value.Map["facebook"])
	assert.Equal(t, MethodJSONLD, cs[0].Provenance.Method)
}

func TestServicesExtractor(t *testing.T) {
	html := `<html><body>
<nav><a href="/drains">Drain Cleaning</a><a href="/heaters">Water Heater Repair</a></nav>
<h2>Our Services</h2>
<ul><li>Pipe repair</li><li>Emergency plumbing</li></ul>
<p>We also offer full HVAC and air conditioning service.</p>
</body></html>`
	taxonomy, err := LoadTaxonomy("")
	require.NoError(t, err)
	ex := &ServicesExtractor{Scorer: NewScorer(testExtractConfig()), Taxonomy: taxonomy, MaxCount: 8}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 2)
	assert.Contains(t, cs[0].Value.List, "plumbing")
	assert.Contains(t, cs[1].Value.List, "hvac")
	assert.Greater(t, cs[0].Confidence, cs[1].Confidence, "nav evidence outranks body text")
}

func TestServicesMaxCount(t *testing.T) {
	taxonomy, err := LoadTaxonomy("")
	require.NoError(t, err)
	ex := &ServicesExtractor{Scorer: NewScorer(testExtractConfig()), Taxonomy: taxonomy, MaxCount: 2}
	html := `<html><body><p>plumbing electrician hvac roofing landscaping</p></body></html>`
	cs := ex.Extract(testPage(t, html, 0))
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Value.List, 2)
}

func TestColorsExtractor(t *testing.T) {
	html := `<html><head>
<style>:root { --brand-primary: #1A2B3C; --accent-color: rgb(250, 150, 50); --spacing: 12px; }</style>
<meta name="theme-color" content="#e91">
</head><body></body></html>`
	ex := &ColorsExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 2)
	assert.Equal(t, []string{"#1a2b3c", "#fa9632"}, cs[0].Value.List, "primary leads, non-colors dropped")
	assert.Equal(t, []string{"#ee9911"}, cs[1].Value.List)
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#ABC", "#aabbcc"},
		{"#1a2b3c", "#1a2b3c"},
		{"#1a2b3cff", "#1a2b3c"},
		{"rgb(255, 0, 128)", "#ff0080"},
		{"rgba(0,0,0,0.5)", "#000000"},
		{"tomato", ""},
		{"hsl(120, 50%, 50%)", ""},
		{"#12", ""},
		{"rgb(300,0,0)", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeColor(tt.in), tt.in)
	}
}

func TestContrastAA(t *testing.T) {
	assert.True(t, ContrastAA("#000000", "#ffffff"))
	assert.True(t, ContrastAA("#1a2b3c", "#ffffff"), "a dark brand color reads on white")
	assert.False(t, ContrastAA("#ffff00", "#ffffff"), "yellow on white fails AA")
	assert.False(t, ContrastAA("#1a2b3c", "#000000"), "dark on dark fails AA")
	assert.False(t, ContrastAA("tomato", "#ffffff"))
}

func TestColorBonus(t *testing.T) {
	assert.InDelta(t, 0.10, colorBonus([]string{"#1a2b3c", "#fa9632"}), 1e-9,
		"valid palette with usable contrast earns the full bonus")
	assert.Zero(t, colorBonus([]string{"#1a2b3c", "blue"}), "any malformed color forfeits the bonus")
}

func TestLogoExtractor(t *testing.T) {
	html := `<html><body>
<img src="/img/logo.svg" alt="Acme">
<img src="/img/site-logo.jpg" alt="">
<img src="/img/team.jpg" alt="our team">
</body></html>`
	ex := &LogoExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 2)
	assert.Greater(t, cs[0].Confidence, cs[1].Confidence, "svg outranks jpg")
}

func TestLogoExtractorTouchIconFallback(t *testing.T) {
	html := `<html><head><link rel="apple-touch-icon" href="/icon.png"></head><body></body></html>`
	ex := &LogoExtractor{Scorer: NewScorer(testExtractConfig())}
	cs := ex.Extract(testPage(t, html, 0))

	require.Len(t, cs, 1)
	assert.Equal(t, "https://acme.example/icon.png", cs[0].Value.Str)
}

func TestTextBitsExtractor(t *testing.T) {
	html := `<html><head>
<meta name="description" content="Family owned plumbing serving Springfield since 1985.">
</head><body>
<header><h1>Acme Plumbing</h1><p class="tagline">Pipes done right</p></header>
<section><h2>About Us</h2>
<p>Short.</p>
<p>Acme Plumbing has served Springfield families for four decades with honest pricing and licensed master plumbers on every job.</p>
</section>
</body></html>`
	ex := &TextBitsExtractor{Scorer: NewScorer(testExtractConfig()), BackgroundMaxWords: 50, SloganMaxWords: 8}
	cs := ex.Extract(testPage(t, html, 0))

	backgrounds := candidatesFor(cs, FieldBackground)
	require.Len(t, backgrounds, 2)
	assert.Contains(t, backgrounds[1].Value.Str, "four decades")

	slogans := candidatesFor(cs, FieldSlogan)
	require.Len(t, slogans, 1)
	assert.Equal(t, "Pipes done right", slogans[0].Value.Str)
}

func TestBackgroundWordCap(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += "word "
	}
	html := `<html><head><meta name="description" content="` + long + `"></head><body></body></html>`
	ex := &TextBitsExtractor{Scorer: NewScorer(testExtractConfig()), BackgroundMaxWords: 50, SloganMaxWords: 8}
	cs := candidatesFor(ex.Extract(testPage(t, html, 0)), FieldBackground)
	require.Len(t, cs, 1)
	assert.Len(t, strings.Fields(cs[0].Value.Str), 50)
}

func TestRegistryRun(t *testing.T) {
	cfg := testExtractConfig()
	reg, err := NewRegistry(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	pool := NewPool()
	n := reg.Run(testPage(t, `<html><head><title>Home | Acme Plumbing</title></head><body><a href="mailto:a@b.co">m</a></body></html>`, 0), pool)
	assert.Equal(t, n, pool.Len())
	assert.NotEmpty(t, pool.ByField()[FieldBrandName])
	assert.NotEmpty(t, pool.ByField()[FieldEmail])
}
