package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	require.Equal(t, 20, cfg.Crawl.MaxPages)
	require.Equal(t, 2, cfg.Crawl.MaxDepth)
	require.Equal(t, 10*time.Second, cfg.Crawl.RequestTimeout)
	require.True(t, cfg.Crawl.RespectRobots)
	require.Equal(t, 1.0, cfg.Crawl.DomainRPS)
	require.False(t, cfg.Render.Enabled)
	require.Equal(t, 0.85, cfg.Extract.Structured.Lo)
	require.Equal(t, 1.0, cfg.Extract.Structured.Hi)
	require.Equal(t, 0.15, cfg.Resolve.CorroborationBonus)
	require.Equal(t, "out", cfg.Output.Dir)
	require.Contains(t, cfg.Crawl.SkipExtensions, ".pdf")
	require.Contains(t, cfg.Crawl.SkipPaths, "/wp-admin")
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
crawl:
  max_pages: 5
  max_depth: 1
  concurrency: 2
  domain_rps: 0.5
  politeness: cautious
  user_agent: test-agent
render:
  enabled: true
  timeout: 45s
  max_concurrency: 2
extract:
  services_max_count: 4
resolve:
  corroboration_bonus: 0.2
output:
  dir: /tmp/sitetruth-test
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Crawl.MaxPages)
	require.Equal(t, "test-agent", cfg.Crawl.UserAgent)
	require.True(t, cfg.Render.Enabled)
	require.Equal(t, 45*time.Second, cfg.Render.Timeout)
	require.Equal(t, 4, cfg.Extract.ServicesMaxCount)
	require.Equal(t, 0.2, cfg.Resolve.CorroborationBonus)
	require.Equal(t, "/tmp/sitetruth-test", cfg.Output.Dir)
}

func TestValidateErrors(t *testing.T) {
	base, err := Load(viper.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "zero pages",
			mutate: func(c *Config) { c.Crawl.MaxPages = 0 },
			want:   "max_pages",
		},
		{
			name:   "negative depth",
			mutate: func(c *Config) { c.Crawl.MaxDepth = -1 },
			want:   "max_depth",
		},
		{
			name:   "bad politeness",
			mutate: func(c *Config) { c.Crawl.Politeness = "rude" },
			want:   "politeness",
		},
		{
			name:   "inverted band",
			mutate: func(c *Config) { c.Extract.Meta = Band{Lo: 0.9, Hi: 0.5} },
			want:   "extract.meta",
		},
		{
			name:   "band out of range",
			mutate: func(c *Config) { c.Extract.Text = Band{Lo: 0.2, Hi: 1.5} },
			want:   "extract.text",
		},
		{
			name:   "empty output dir",
			mutate: func(c *Config) { c.Output.Dir = "" },
			want:   "output.dir",
		},
		{
			name: "no user agent",
			mutate: func(c *Config) {
				c.Crawl.UserAgent = ""
				c.Crawl.UserAgents = nil
			},
			want: "user_agent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEffectiveDomainRPS(t *testing.T) {
	c := CrawlConfig{DomainRPS: 2, Politeness: PolitenessCautious}
	require.Equal(t, 1.0, c.EffectiveDomainRPS())
	c.Politeness = PolitenessEager
	require.Equal(t, 4.0, c.EffectiveDomainRPS())
	c.Politeness = PolitenessDefault
	require.Equal(t, 2.0, c.EffectiveDomainRPS())
}

func TestEffectiveUserAgent(t *testing.T) {
	c := CrawlConfig{UserAgent: "solo-agent"}
	require.Equal(t, "solo-agent", c.EffectiveUserAgent("acme.example"))

	c.UserAgents = []string{"agent-a", "agent-b", "agent-c"}
	picked := c.EffectiveUserAgent("acme.example")
	require.Contains(t, c.UserAgents, picked)

	// Same domain always maps to the same agent, regardless of case.
	require.Equal(t, picked, c.EffectiveUserAgent("acme.example"))
	require.Equal(t, picked, c.EffectiveUserAgent("ACME.Example"))

	// An empty domain still picks deterministically from the pool.
	require.Equal(t, c.EffectiveUserAgent(""), c.EffectiveUserAgent(""))
}
