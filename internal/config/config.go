// Package config loads and validates sitetruth configuration via Viper.
package config

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences an extraction run. All values
// originate from Viper so the pipeline can be configured via file, env vars,
// or CLI flags.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Render  RenderConfig  `mapstructure:"render"`
	Extract ExtractConfig `mapstructure:"extract"`
	Resolve ResolveConfig `mapstructure:"resolve"`
	Output  OutputConfig  `mapstructure:"output"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlConfig controls the crawler and its politeness behavior.
type CrawlConfig struct {
	MaxPages       int           `mapstructure:"max_pages"`
	MaxDepth       int           `mapstructure:"max_depth"`
	Concurrency    int           `mapstructure:"concurrency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TimeBudget     time.Duration `mapstructure:"time_budget"`
	DomainRPS      float64       `mapstructure:"domain_rps"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Politeness     string        `mapstructure:"politeness"`
	SkipExtensions []string      `mapstructure:"skip_extensions"`
	SkipPaths      []string      `mapstructure:"skip_paths"`
	UserAgents     []string      `mapstructure:"user_agents"`
}

// RenderConfig controls the headless-browser fallback for JS-only pages.
type RenderConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MinTextChars   int           `mapstructure:"min_text_chars"`
}

// Band is an inclusive score range for one extraction method class.
type Band struct {
	Lo float64 `mapstructure:"lo"`
	Hi float64 `mapstructure:"hi"`
}

// ExtractConfig holds the tunable scoring bands and text limits.
type ExtractConfig struct {
	Structured         Band    `mapstructure:"structured"`
	Meta               Band    `mapstructure:"meta"`
	DOM                Band    `mapstructure:"dom"`
	Text               Band    `mapstructure:"text"`
	HomepageBonus      float64 `mapstructure:"homepage_bonus"`
	ValidatorBonusCap  float64 `mapstructure:"validator_bonus_cap"`
	BackgroundMaxWords int     `mapstructure:"background_max_words"`
	SloganMaxWords     int     `mapstructure:"slogan_max_words"`
	ServicesMaxCount   int     `mapstructure:"services_max_count"`
	TaxonomyPath       string  `mapstructure:"taxonomy_path"`
}

// ResolveConfig tunes conflict resolution.
type ResolveConfig struct {
	// CorroborationBonus is the ceiling of the diminishing-returns bonus a
	// group earns from additional corroborating pages.
	CorroborationBonus float64 `mapstructure:"corroboration_bonus"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir         string        `mapstructure:"dir"`
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles development-mode logging.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Politeness levels recognized for crawl pacing.
const (
	PolitenessCautious = "cautious"
	PolitenessDefault  = "default"
	PolitenessEager    = "eager"
)

const defaultUserAgent = "sitetruth/1.0 (+https://github.com/oakline/sitetruth)"

// SetDefaults registers every default on the provided Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_pages", 20)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("crawl.request_timeout", 10*time.Second)
	v.SetDefault("crawl.time_budget", 2*time.Minute)
	v.SetDefault("crawl.domain_rps", 1.0)
	v.SetDefault("crawl.respect_robots", true)
	v.SetDefault("crawl.user_agent", defaultUserAgent)
	v.SetDefault("crawl.max_retries", 3)
	v.SetDefault("crawl.politeness", PolitenessDefault)
	v.SetDefault("crawl.skip_extensions", []string{
		".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
		".css", ".js", ".xml", ".zip", ".mp4", ".mp3", ".doc", ".docx", ".xls", ".xlsx",
	})
	v.SetDefault("crawl.skip_paths", []string{
		"/wp-admin", "/admin", "/login", "/search", "/cart", "/checkout",
	})
	v.SetDefault("crawl.user_agents", []string{})

	v.SetDefault("render.enabled", false)
	v.SetDefault("render.timeout", 30*time.Second)
	v.SetDefault("render.max_concurrency", 1)
	v.SetDefault("render.min_text_chars", 80)

	v.SetDefault("extract.structured.lo", 0.85)
	v.SetDefault("extract.structured.hi", 1.0)
	v.SetDefault("extract.meta.lo", 0.60)
	v.SetDefault("extract.meta.hi", 0.85)
	v.SetDefault("extract.dom.lo", 0.40)
	v.SetDefault("extract.dom.hi", 0.70)
	v.SetDefault("extract.text.lo", 0.20)
	v.SetDefault("extract.text.hi", 0.50)
	v.SetDefault("extract.homepage_bonus", 0.05)
	v.SetDefault("extract.validator_bonus_cap", 0.10)
	v.SetDefault("extract.background_max_words", 50)
	v.SetDefault("extract.slogan_max_words", 8)
	v.SetDefault("extract.services_max_count", 8)

	v.SetDefault("resolve.corroboration_bonus", 0.15)

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.cache_max_age", 24*time.Hour)

	v.SetDefault("server.port", 8077)
	v.SetDefault("logging.development", false)
}

// Load constructs a Config from the provided Viper instance.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if c.Crawl.TimeBudget <= 0 {
		return fmt.Errorf("crawl.time_budget must be > 0")
	}
	if c.Crawl.UserAgent == "" && len(c.Crawl.UserAgents) == 0 {
		return fmt.Errorf("crawl.user_agent or crawl.user_agents must be set")
	}
	if c.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must be >= 0")
	}
	switch c.Crawl.Politeness {
	case PolitenessCautious, PolitenessDefault, PolitenessEager:
	default:
		return fmt.Errorf("crawl.politeness must be one of cautious, default, eager")
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be > 0")
	}
	if c.Render.MaxConcurrency < 0 {
		return fmt.Errorf("render.max_concurrency must be >= 0")
	}
	for name, b := range map[string]Band{
		"structured": c.Extract.Structured,
		"meta":       c.Extract.Meta,
		"dom":        c.Extract.DOM,
		"text":       c.Extract.Text,
	} {
		if b.Lo < 0 || b.Hi > 1 || b.Lo > b.Hi {
			return fmt.Errorf("extract.%s band must satisfy 0 <= lo <= hi <= 1", name)
		}
	}
	if c.Extract.HomepageBonus < 0 || c.Extract.HomepageBonus > 1 {
		return fmt.Errorf("extract.homepage_bonus must be in [0,1]")
	}
	if c.Resolve.CorroborationBonus < 0 || c.Resolve.CorroborationBonus > 1 {
		return fmt.Errorf("resolve.corroboration_bonus must be in [0,1]")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port")
	}
	return nil
}

// EffectiveUserAgent picks the request identity for one run. With a pool
// configured, the choice is keyed on the domain so re-runs against the same
// site present the same agent; otherwise the single configured agent is used.
func (c CrawlConfig) EffectiveUserAgent(domain string) string {
	if len(c.UserAgents) == 0 {
		return c.UserAgent
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(domain))))
	return c.UserAgents[int(h.Sum32())%len(c.UserAgents)]
}

// EffectiveDomainRPS applies the politeness level to the configured rate.
func (c CrawlConfig) EffectiveDomainRPS() float64 {
	rps := c.DomainRPS
	if rps <= 0 {
		rps = 1.0
	}
	switch c.Politeness {
	case PolitenessCautious:
		return rps / 2
	case PolitenessEager:
		return rps * 2
	default:
		return rps
	}
}
