package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>  Acme Plumbing | Home  </title>
<meta name="description" content="Trusted plumbers since 1985">
<meta property="og:site_name" content="Acme Plumbing">
<style>
:root { --primary-color: #1a2b3c; --accent: rgb(250, 150, 50); }
</style>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"LocalBusiness","name":"Acme Plumbing","email":"info@acme.example"}
</script>
<script type="application/ld+json">
{ this is not json }
</script>
</head>
<body>
<nav><a href="/about">About Us</a><a href="/contact">Contact</a></nav>
<div itemscope itemtype="https://schema.org/PostalAddress">
  <span itemprop="streetAddress">12 Main St</span>
  <span itemprop="addressLocality">Springfield</span>
  <span itemprop="postalCode">62704</span>
</div>
<a href="mailto:sales@acme.example?subject=hi">Email us</a>
<a href="tel:+1-555-867-5309">Call us</a>
<a href="https://www.facebook.com/acmeplumbing">Facebook</a>
<a href="javascript:void(0)">Noop</a>
<img src="/assets/logo.png" alt="Acme logo" class="site-logo" width="200" height="80">
<img src="/assets/banner.jpg" alt="banner">
<h2>Our Services</h2>
<script>console.log("invisible")</script>
<p>Drain   cleaning and
pipe repair.</p>
</body>
</html>`

func newTestDoc(t *testing.T, html, pageURL string) *Document {
	t.Helper()
	d, err := New([]byte(html), pageURL)
	require.NoError(t, err)
	return d
}

func TestDocumentBasics(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	assert.Equal(t, "Acme Plumbing | Home", d.Title())
	assert.Equal(t, "Trusted plumbers since 1985", d.Meta("description"))
	assert.Equal(t, "Acme Plumbing", d.MetaProperty("og:site_name"))
	assert.Empty(t, d.Meta("keywords"))
}

func TestDocumentLinks(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	links := d.Links()
	assert.Contains(t, links, "https://acme.example/about")
	assert.Contains(t, links, "https://acme.example/contact")
	assert.Contains(t, links, "https://www.facebook.com/acmeplumbing")
	for _, l := range links {
		assert.NotContains(t, l, "javascript:")
		assert.NotContains(t, l, "mailto:")
	}

	nav := d.NavLinks()
	assert.Equal(t, []string{"https://acme.example/about", "https://acme.example/contact"}, nav)
}

func TestDocumentBaseTag(t *testing.T) {
	html := `<html><head><base href="https://cdn.example/site/"></head>
<body><a href="page.html">x</a></body></html>`
	d := newTestDoc(t, html, "https://acme.example/deep/path")

	assert.Equal(t, "https://cdn.example/site/page.html", d.AbsoluteURL("page.html"))
	assert.Equal(t, "https://acme.example/deep/path", d.URL())
}

func TestDocumentContactAnchors(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	assert.Equal(t, []string{"sales@acme.example"}, d.MailtoLinks())
	assert.Equal(t, []string{"+1-555-867-5309"}, d.TelLinks())
}

func TestDocumentJSONLD(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	objs := d.JSONLD()
	require.Len(t, objs, 1, "malformed block must be skipped")
	assert.Equal(t, []string{"LocalBusiness"}, TypeOf(objs[0]))
	assert.Equal(t, "Acme Plumbing", StringField(objs[0], "name"))
}

func TestJSONLDGraphFlattening(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"Organization","name":"Acme"},
  {"@type":["WebSite","CreativeWork"],"name":"Acme Site"}
]}</script></head><body></body></html>`
	d := newTestDoc(t, html, "https://acme.example/")

	objs := d.JSONLD()
	require.Len(t, objs, 2)
	assert.Equal(t, []string{"Organization"}, TypeOf(objs[0]))
	assert.Equal(t, []string{"WebSite", "CreativeWork"}, TypeOf(objs[1]))
}

func TestDocumentText(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	text := d.Text()
	assert.Contains(t, text, "Drain cleaning and pipe repair.")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "--primary-color")
}

func TestDocumentCSSVariables(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	vars := d.CSSVariables()
	assert.Equal(t, "#1a2b3c", vars["--primary-color"])
	assert.Equal(t, "rgb(250, 150, 50)", vars["--accent"])
}

func TestDocumentImages(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	all := d.Images()
	assert.Len(t, all, 2)

	logos := d.Images("logo")
	require.Len(t, logos, 1)
	assert.Equal(t, "https://acme.example/assets/logo.png", logos[0].Src)
	assert.Equal(t, "Acme logo", logos[0].Alt)
	assert.Equal(t, "200", logos[0].Width)
}

func TestDocumentStructuredAddresses(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	addrs := d.StructuredAddresses()
	require.Len(t, addrs, 1)
	assert.Equal(t, "12 Main St", addrs[0]["streetAddress"])
	assert.Equal(t, "Springfield", addrs[0]["addressLocality"])
	assert.Equal(t, "62704", addrs[0]["postalCode"])
}

func TestDocumentSectionsByText(t *testing.T) {
	d := newTestDoc(t, samplePage, "https://acme.example/")

	sections := d.SectionsByText("our services")
	assert.NotEmpty(t, sections)
	assert.Empty(t, d.SectionsByText("careers"))
}

func TestStringsField(t *testing.T) {
	obj := map[string]any{
		"sameAs": []any{"https://x.example/a", " https://x.example/b ", 42},
		"name":   "Acme",
	}
	assert.Equal(t, []string{"https://x.example/a", "https://x.example/b"}, StringsField(obj, "sameAs"))
	assert.Equal(t, []string{"Acme"}, StringsField(obj, "name"))
	assert.Nil(t, StringsField(obj, "missing"))
}
