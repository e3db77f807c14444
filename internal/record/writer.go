package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/oakline/sitetruth/internal/extract"
	"go.uber.org/zap"
)

// Writer persists run artifacts under one output directory: truth.json,
// crawl.json, and a summary.csv for spreadsheet review.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteTruth writes truth.json.
func (w *Writer) WriteTruth(rec *TruthRecord) error {
	if err := w.writeJSON("truth.json", rec); err != nil {
		return err
	}
	w.logger.Info("wrote truth record",
		zap.String("path", filepath.Join(w.dir, "truth.json")),
		zap.String("business_id", rec.BusinessID),
		zap.Int("pages_visited", rec.PagesVisited))
	return nil
}

// WriteCrawl writes crawl.json.
func (w *Writer) WriteCrawl(summary *CrawlSummary) error {
	if err := w.writeJSON("crawl.json", summary); err != nil {
		return err
	}
	w.logger.Info("wrote crawl summary",
		zap.String("path", filepath.Join(w.dir, "crawl.json")),
		zap.Int("pages_attempted", summary.PagesAttempted),
		zap.Int("pages_failed", summary.PagesFailed))
	return nil
}

// WriteSummaryCSV writes a one-row-per-field overview of the resolved
// record.
func (w *Writer) WriteSummaryCSV(rec *TruthRecord) error {
	path := filepath.Join(w.dir, "summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary.csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"field", "value", "confidence", "sources"}); err != nil {
		return fmt.Errorf("write summary.csv: %w", err)
	}
	for _, field := range extract.AllFields {
		res, ok := rec.Fields[field]
		if !ok {
			continue
		}
		value := ""
		if res.Value != nil {
			value = flattenValue(*res.Value)
		}
		row := []string{
			field,
			value,
			strconv.FormatFloat(res.Confidence, 'f', 3, 64),
			strconv.Itoa(len(res.Provenance)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write summary.csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush summary.csv: %w", err)
	}
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// flattenValue renders any value shape as a single CSV cell.
func flattenValue(v extract.Value) string {
	switch v.Kind {
	case extract.KindString:
		return v.Str
	case extract.KindList, extract.KindMap:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}
