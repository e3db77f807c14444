package crawler

import (
	"net/url"
	"path"
	"strings"
)

// linkFilter drops discovered URLs that cannot be content pages: binary and
// asset extensions, and well-known non-content path segments such as admin
// or checkout areas.
type linkFilter struct {
	extensions map[string]struct{}
	pathParts  []string
}

func newLinkFilter(extensions, pathParts []string) *linkFilter {
	f := &linkFilter{extensions: make(map[string]struct{})}
	for _, raw := range extensions {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = struct{}{}
	}
	for _, raw := range pathParts {
		part := strings.ToLower(strings.TrimSpace(raw))
		if part != "" {
			f.pathParts = append(f.pathParts, part)
		}
	}
	if len(f.extensions) == 0 && len(f.pathParts) == 0 {
		return nil
	}
	return f
}

// Allows reports whether the URL may be enqueued. A nil filter allows
// everything.
func (f *linkFilter) Allows(rawURL string) bool {
	if f == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(parsed.EscapedPath())
	if ext := path.Ext(p); ext != "" {
		if _, blocked := f.extensions[ext]; blocked {
			return false
		}
	}
	for _, part := range f.pathParts {
		if strings.Contains(p, part) {
			return false
		}
	}
	return true
}
