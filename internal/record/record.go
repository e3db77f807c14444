// Package record defines the output artifacts of a run: the truth record
// consumed by downstream tooling and the crawl summary consumed by
// operational tooling. The JSON shapes here are a contract; readers must
// never need to know how the data was produced.
package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/oakline/sitetruth/internal/extract"
	"github.com/oakline/sitetruth/internal/resolve"
)

// TruthRecord is the complete result of one run: every field resolved, plus
// the full candidate audit trail.
type TruthRecord struct {
	BusinessID   string                        `json:"business_id"`
	Domain       string                        `json:"domain"`
	CrawledAt    time.Time                     `json:"crawled_at"`
	PagesVisited int                           `json:"pages_visited"`
	Fields       map[string]resolve.Resolution `json:"fields"`
	Candidates   map[string][]CandidateAudit   `json:"candidates"`
}

// CandidateAudit is one candidate as recorded for review, independent of the
// in-memory extraction types.
type CandidateAudit struct {
	Value      extract.Value        `json:"value"`
	Score      float64              `json:"score"`
	Provenance []extract.Provenance `json:"provenance"`
	Notes      string               `json:"notes"`
}

// BusinessID derives a stable identifier from the domain, so re-crawling the
// same site yields the same id.
func BusinessID(domain string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(domain)).String()
}

// NewTruthRecord assembles the record from resolver output and the raw pool.
func NewTruthRecord(domain string, crawledAt time.Time, pagesVisited int, fields map[string]resolve.Resolution, pool *extract.Pool) *TruthRecord {
	audits := make(map[string][]CandidateAudit, len(extract.AllFields))
	for _, field := range extract.AllFields {
		audits[field] = []CandidateAudit{}
	}
	for _, c := range pool.Candidates() {
		audits[c.Field] = append(audits[c.Field], CandidateAudit{
			Value:      c.Value,
			Score:      c.Confidence,
			Provenance: []extract.Provenance{c.Provenance},
			Notes:      string(c.Provenance.Method),
		})
	}
	return &TruthRecord{
		BusinessID:   BusinessID(domain),
		Domain:       domain,
		CrawledAt:    crawledAt,
		PagesVisited: pagesVisited,
		Fields:       fields,
		Candidates:   audits,
	}
}

// PageResult is the per-page line of the crawl summary.
type PageResult struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Depth      int    `json:"depth"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	FromCache  bool   `json:"from_cache"`
}

// CrawlSummary is the operational account of one run.
type CrawlSummary struct {
	StartURL       string       `json:"start_url"`
	Domain         string       `json:"domain"`
	PagesAttempted int          `json:"pages_attempted"`
	PagesSuccess   int          `json:"pages_success"`
	PagesFailed    int          `json:"pages_failed"`
	PagesCached    int          `json:"pages_cached"`
	TotalBytes     int64        `json:"total_bytes"`
	ElapsedMs      int64        `json:"elapsed_ms"`
	FailedURLs     []string     `json:"failed_urls"`
	Pages          []PageResult `json:"pages"`
}

// NewCrawlSummary returns an empty summary with non-nil slices, so the JSON
// always carries arrays rather than nulls.
func NewCrawlSummary(startURL, domain string) *CrawlSummary {
	return &CrawlSummary{
		StartURL:   startURL,
		Domain:     domain,
		FailedURLs: []string{},
		Pages:      []PageResult{},
	}
}

// AddPage appends a page result and updates the counters.
func (s *CrawlSummary) AddPage(p PageResult, bytes int64) {
	s.Pages = append(s.Pages, p)
	s.PagesAttempted++
	if p.Success {
		s.PagesSuccess++
	} else {
		s.PagesFailed++
		s.FailedURLs = append(s.FailedURLs, p.URL)
	}
	if p.FromCache {
		s.PagesCached++
	}
	s.TotalBytes += bytes
}
