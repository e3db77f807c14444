package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oakline/sitetruth/internal/extract"
	"github.com/oakline/sitetruth/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBusinessIDStable(t *testing.T) {
	a := BusinessID("acme.example")
	b := BusinessID("acme.example")
	c := BusinessID("other.example")

	assert.Equal(t, a, b, "same domain yields same id across runs")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func testRecord(t *testing.T) *TruthRecord {
	t.Helper()
	pool := extract.NewPool()
	pool.Add(extract.Candidate{
		Field:      extract.FieldBrandName,
		Value:      extract.String("Acme Plumbing"),
		Confidence: 0.9,
		Provenance: extract.Provenance{URL: "https://acme.example/", Method: extract.MethodJSONLD},
	})

	name := extract.String("Acme Plumbing")
	fields := map[string]resolve.Resolution{
		extract.FieldBrandName: {
			Value:      &name,
			Confidence: 0.9,
			Provenance: []extract.Provenance{{URL: "https://acme.example/", Method: extract.MethodJSONLD}},
		},
		extract.FieldEmail: {
			Value:      nil,
			Confidence: 0,
			Provenance: []extract.Provenance{},
			Notes:      "not found",
		},
	}
	return NewTruthRecord("acme.example", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 3, fields, pool)
}

func TestTruthRecordJSONShape(t *testing.T) {
	data, err := json.Marshal(testRecord(t))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "acme.example", doc["domain"])
	assert.Equal(t, float64(3), doc["pages_visited"])
	assert.NotEmpty(t, doc["business_id"])

	fields := doc["fields"].(map[string]any)
	name := fields["brand_name"].(map[string]any)
	assert.Equal(t, "Acme Plumbing", name["value"])
	assert.Equal(t, 0.9, name["confidence"])

	email := fields["email"].(map[string]any)
	assert.Nil(t, email["value"], "missing field is an explicit null, not a missing key")
	assert.Equal(t, float64(0), email["confidence"])
	assert.Equal(t, []any{}, email["provenance"])
	assert.Equal(t, "not found", email["notes"])

	candidates := doc["candidates"].(map[string]any)
	names := candidates["brand_name"].([]any)
	require.Len(t, names, 1)
	audit := names[0].(map[string]any)
	assert.Equal(t, 0.9, audit["score"])
	prov := audit["provenance"].([]any)
	require.Len(t, prov, 1)
	assert.Equal(t, "jsonld", prov[0].(map[string]any)["method"])

	assert.Equal(t, []any{}, candidates["email"], "fields with no candidates carry empty arrays")
}

func TestCrawlSummaryCounters(t *testing.T) {
	s := NewCrawlSummary("https://acme.example/", "acme.example")
	s.AddPage(PageResult{URL: "https://acme.example/", Title: "Home", Success: true, StatusCode: 200, Depth: 0, ElapsedMs: 120}, 2048)
	s.AddPage(PageResult{URL: "https://acme.example/about", Success: true, StatusCode: 200, Depth: 1, FromCache: true}, 1024)
	s.AddPage(PageResult{URL: "https://acme.example/missing", Success: false, StatusCode: 404, Depth: 1}, 0)

	assert.Equal(t, 3, s.PagesAttempted)
	assert.Equal(t, 2, s.PagesSuccess)
	assert.Equal(t, 1, s.PagesFailed)
	assert.Equal(t, 1, s.PagesCached)
	assert.Equal(t, int64(3072), s.TotalBytes)
	assert.Equal(t, []string{"https://acme.example/missing"}, s.FailedURLs)
	assert.Len(t, s.Pages, 3)
}

func TestWriterArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "out"), zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := testRecord(t)
	require.NoError(t, w.WriteTruth(rec))

	summary := NewCrawlSummary("https://acme.example/", "acme.example")
	summary.AddPage(PageResult{URL: "https://acme.example/", Success: true, StatusCode: 200}, 100)
	require.NoError(t, w.WriteCrawl(summary))
	require.NoError(t, w.WriteSummaryCSV(rec))

	var truth TruthRecord
	raw, err := os.ReadFile(filepath.Join(w.Dir(), "truth.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &truth))
	assert.Equal(t, rec.BusinessID, truth.BusinessID)

	var crawl CrawlSummary
	raw, err = os.ReadFile(filepath.Join(w.Dir(), "crawl.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &crawl))
	assert.Equal(t, 1, crawl.PagesAttempted)

	csvRaw, err := os.ReadFile(filepath.Join(w.Dir(), "summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvRaw), "field,value,confidence,sources")
	assert.Contains(t, string(csvRaw), "brand_name,Acme Plumbing,0.900,1")
}
