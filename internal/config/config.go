package config

import (
	"time"
)

// Default configuration values.
const (
	defaultServiceName       = "newsperspective"
	defaultServiceVersion    = "1.0.0"
	defaultTotalArticles     = 500
	defaultBatchSize         = 20
	defaultBatchDelay        = 10 * time.Second
	defaultConcurrency       = 5
	defaultSourceMode        = "mixed"
	defaultMetricsAddr       = ":9090"
	defaultNewsAPIBaseURL    = "https://newsapi.org/v2"
	defaultNewsAPICountry    = "gb"
	defaultNewsAPIPageSize   = 100
	defaultFetchDelay        = 1 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultMaxAttempts       = 3
	defaultRateLimitWait     = 60 * time.Second
	defaultMaxRateLimitWait  = 300 * time.Second
	defaultRewriterModel     = "gpt-35-turbo-instruct"
	defaultRewriteMaxTokens  = 80
	defaultSearchURL         = "http://localhost:9200"
	defaultSearchIndex       = "news-perspective-index"
	defaultReliabilityPath   = "data/source_reliability.json"
	defaultPositiveSkip      = 80.0
	defaultNegativeRewrite   = 60.0
	defaultNegativeLean      = 40.0
	defaultMinConfidence     = 60.0
	defaultMaxArticleAgeDays = 7
	defaultTitleSimilarity   = 0.85
)

// Config holds all configuration for the pipeline.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	NewsAPI        NewsAPIConfig        `yaml:"newsapi"`
	RSS            RSSConfig            `yaml:"rss"`
	Client         ClientConfig         `yaml:"client"`
	Analyzer       AnalyzerConfig       `yaml:"analyzer"`
	Rewriter       RewriterConfig       `yaml:"rewriter"`
	Search         SearchConfig         `yaml:"search"`
	Reliability    ReliabilityConfig    `yaml:"reliability"`
	Classification ClassificationConfig `yaml:"classification"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServiceConfig holds run-level settings for a processing session.
type ServiceConfig struct {
	Name          string        `yaml:"name"`
	Version       string        `yaml:"version"`
	TotalArticles int           `env:"BATCH_TOTAL_ARTICLES" yaml:"total_articles"`
	BatchSize     int           `env:"BATCH_SIZE"           yaml:"batch_size"`
	BatchDelay    time.Duration `env:"BATCH_DELAY"          yaml:"batch_delay"`
	Concurrency   int           `env:"BATCH_CONCURRENCY"    yaml:"concurrency"`
	SourceMode    string        `env:"ARTICLE_SOURCE_MODE"  yaml:"source_mode"`
	MetricsAddr   string        `env:"METRICS_ADDR"         yaml:"metrics_addr"`
}

// NewsAPIConfig holds the paged headline source settings.
type NewsAPIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `env:"NEWS_API_KEY" yaml:"api_key"`
	Country    string        `yaml:"country"`
	Category   string        `yaml:"category"`
	PageSize   int           `yaml:"page_size"`
	FetchDelay time.Duration `yaml:"fetch_delay"`
}

// RSSConfig holds RSS feed source settings.
type RSSConfig struct {
	Feeds           []string `env:"RSS_FEEDS" yaml:"feeds"`
	MaxAgeDays      int      `yaml:"max_age_days"`
	TitleSimilarity float64  `yaml:"title_similarity"`
}

// ClientConfig holds HTTP client and retry settings shared by all outbound
// calls.
type ClientConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RateLimitWait    time.Duration `yaml:"rate_limit_wait"`
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait"`
}

// AnalyzerConfig holds the sentiment analysis collaborator settings.
// When URL is empty the analyzer degrades to a low-confidence stub.
type AnalyzerConfig struct {
	URL     string        `env:"ANALYZER_URL" yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RewriterConfig holds the headline rewrite collaborator settings.
type RewriterConfig struct {
	Endpoint  string        `env:"REWRITER_ENDPOINT" yaml:"endpoint"`
	APIKey    string        `env:"REWRITER_API_KEY"  yaml:"api_key"`
	Model     string        `env:"REWRITER_MODEL"    yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SearchConfig holds Elasticsearch settings for the article index.
type SearchConfig struct {
	URL      string        `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	APIKey   string        `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`
	Index    string        `env:"SEARCH_INDEX"           yaml:"index"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ReliabilityConfig holds source reliability tracker persistence settings.
// Backend selects one of "file", "redis", or "postgres".
type ReliabilityConfig struct {
	Backend  string         `env:"RELIABILITY_BACKEND" yaml:"backend"`
	FilePath string         `env:"RELIABILITY_FILE"    yaml:"file_path"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds redis connection settings for the reliability store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     yaml:"addr"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig holds postgres connection settings for the reliability store.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
}

// ClassificationConfig holds decision engine thresholds and lexical rules.
// Thresholds are percentages (0-100) matching analyzer confidence scores.
type ClassificationConfig struct {
	PositiveSkipThreshold    float64  `yaml:"positive_skip_threshold"`
	NegativeRewriteThreshold float64  `yaml:"negative_rewrite_threshold"`
	NegativeLeanThreshold    float64  `yaml:"negative_lean_threshold"`
	MinConfidence            float64  `yaml:"min_confidence"`
	SensationalPhrases       []string `yaml:"sensational_phrases"`
	FetchContent             bool     `yaml:"fetch_content"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultSensationalPhrases is the built-in lexical rule set applied when the
// config file does not override it.
var DefaultSensationalPhrases = []string{
	"threat", "threatens", "crisis", "crash", "collapse", "scandal",
	"outrage", "fury", "slams", "blasts", "attacks", "destroys",
	"fails", "failure", "disaster", "chaos", "panic", "fear",
	"war", "conflict", "violence", "death", "killed", "murdered",
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return LoadFileWithDefaults[Config](path, SetDefaults)
}

// SetDefaults applies default values to the config.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setNewsAPIDefaults(&cfg.NewsAPI)
	setRSSDefaults(&cfg.RSS)
	setClientDefaults(&cfg.Client)
	setAnalyzerDefaults(&cfg.Analyzer)
	setRewriterDefaults(&cfg.Rewriter)
	setSearchDefaults(&cfg.Search)
	setReliabilityDefaults(&cfg.Reliability)
	setClassificationDefaults(&cfg.Classification)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.TotalArticles <= 0 {
		s.TotalArticles = defaultTotalArticles
	}
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.BatchDelay <= 0 {
		s.BatchDelay = defaultBatchDelay
	}
	if s.Concurrency <= 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.SourceMode == "" {
		s.SourceMode = defaultSourceMode
	}
	if s.MetricsAddr == "" {
		s.MetricsAddr = defaultMetricsAddr
	}
}

func setNewsAPIDefaults(n *NewsAPIConfig) {
	if n.BaseURL == "" {
		n.BaseURL = defaultNewsAPIBaseURL
	}
	if n.Country == "" {
		n.Country = defaultNewsAPICountry
	}
	if n.PageSize <= 0 {
		n.PageSize = defaultNewsAPIPageSize
	}
	if n.FetchDelay <= 0 {
		n.FetchDelay = defaultFetchDelay
	}
}

func setRSSDefaults(r *RSSConfig) {
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = defaultMaxArticleAgeDays
	}
	if r.TitleSimilarity <= 0 {
		r.TitleSimilarity = defaultTitleSimilarity
	}
}

func setClientDefaults(c *ClientConfig) {
	if c.Timeout <= 0 {
		c.Timeout = defaultClientTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = defaultRateLimitWait
	}
	if c.MaxRateLimitWait <= 0 {
		c.MaxRateLimitWait = defaultMaxRateLimitWait
	}
}

func setAnalyzerDefaults(a *AnalyzerConfig) {
	if a.Timeout <= 0 {
		a.Timeout = defaultClientTimeout
	}
}

func setRewriterDefaults(r *RewriterConfig) {
	if r.Model == "" {
		r.Model = defaultRewriterModel
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = defaultRewriteMaxTokens
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultClientTimeout
	}
}

func setSearchDefaults(s *SearchConfig) {
	if s.URL == "" {
		s.URL = defaultSearchURL
	}
	if s.Index == "" {
		s.Index = defaultSearchIndex
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultClientTimeout
	}
}

func setReliabilityDefaults(r *ReliabilityConfig) {
	if r.Backend == "" {
		r.Backend = "file"
	}
	if r.FilePath == "" {
		r.FilePath = defaultReliabilityPath
	}
	if r.Redis.Addr == "" {
		r.Redis.Addr = "localhost:6379"
	}
	if r.Postgres.Host == "" {
		r.Postgres.Host = "localhost"
	}
	if r.Postgres.Port <= 0 {
		r.Postgres.Port = 5432
	}
	if r.Postgres.User == "" {
		r.Postgres.User = "postgres"
	}
	if r.Postgres.Database == "" {
		r.Postgres.Database = "newsperspective"
	}
	if r.Postgres.SSLMode == "" {
		r.Postgres.SSLMode = "disable"
	}
}

func setClassificationDefaults(c *ClassificationConfig) {
	if c.PositiveSkipThreshold <= 0 {
		c.PositiveSkipThreshold = defaultPositiveSkip
	}
	if c.NegativeRewriteThreshold <= 0 {
		c.NegativeRewriteThreshold = defaultNegativeRewrite
	}
	if c.NegativeLeanThreshold <= 0 {
		c.NegativeLeanThreshold = defaultNegativeLean
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = defaultMinConfidence
	}
	if len(c.SensationalPhrases) == 0 {
		c.SensationalPhrases = DefaultSensationalPhrases
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
}
