package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseJSONLD collects every <script type="application/ld+json"> block,
// skipping blocks that do not parse. Top-level arrays and @graph containers
// are flattened so callers see a flat list of objects.
func parseJSONLD(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}
		out = append(out, flattenJSONLD(parsed)...)
	})
	return out
}

func flattenJSONLD(v any) []map[string]any {
	switch node := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range node {
			out = append(out, flattenJSONLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := node["@graph"].([]any); ok {
			var out []map[string]any
			for _, item := range graph {
				out = append(out, flattenJSONLD(item)...)
			}
			return out
		}
		return []map[string]any{node}
	default:
		return nil
	}
}

// TypeOf returns the @type of a structured-data object, handling both the
// string and array forms. Matching is caller's concern.
func TypeOf(obj map[string]any) []string {
	switch t := obj["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// StringField returns obj[key] when it holds a non-empty string.
func StringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// StringsField returns obj[key] as a list of strings, accepting both the
// scalar and array forms that appear in real structured data.
func StringsField(obj map[string]any, key string) []string {
	switch v := obj[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

// ObjectField returns obj[key] when it holds a nested object.
func ObjectField(obj map[string]any, key string) map[string]any {
	if m, ok := obj[key].(map[string]any); ok {
		return m
	}
	return nil
}
