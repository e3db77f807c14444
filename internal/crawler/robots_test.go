package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func robotsServer(t *testing.T, robotsBody string, robotsStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(robotsStatus)
			_, _ = w.Write([]byte(robotsBody))
			return
		}
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobotsEnforcerDisallow(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK)
	policy := NewRobotsPolicy(true, "sitetruth/1.0", zaptest.NewLogger(t))

	ctx := context.Background()
	assert.True(t, policy.Allowed(ctx, srv.URL+"/"))
	assert.True(t, policy.Allowed(ctx, srv.URL+"/about"))
	assert.False(t, policy.Allowed(ctx, srv.URL+"/private/notes"))
}

func TestRobotsEnforcerDisallowAll(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /\n", http.StatusOK)
	policy := NewRobotsPolicy(true, "sitetruth/1.0", zaptest.NewLogger(t))

	assert.False(t, policy.Allowed(context.Background(), srv.URL+"/"))
}

func TestRobotsMissingFileAllows(t *testing.T) {
	srv := robotsServer(t, "", http.StatusNotFound)
	policy := NewRobotsPolicy(true, "sitetruth/1.0", zaptest.NewLogger(t))

	assert.True(t, policy.Allowed(context.Background(), srv.URL+"/anything"))
}

func TestRobotsRespectOff(t *testing.T) {
	policy := NewRobotsPolicy(false, "sitetruth/1.0", zaptest.NewLogger(t))
	assert.True(t, policy.Allowed(context.Background(), "https://acme.example/private/"))
}

func TestRobotsUnparseableURL(t *testing.T) {
	policy := NewRobotsPolicy(true, "sitetruth/1.0", zaptest.NewLogger(t))
	assert.False(t, policy.Allowed(context.Background(), "http://bad url with spaces"))
}
