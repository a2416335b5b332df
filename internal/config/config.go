package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Match    MatchConfig    `mapstructure:"match"`
	Ratings  RatingsConfig  `mapstructure:"ratings"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Search   SearchConfig   `mapstructure:"search"`
	Prefetch PrefetchConfig `mapstructure:"prefetch"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

// CacheConfig selects the key-value backend and the TTL of each namespace.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // memory or database
	MaxEntries    int           `mapstructure:"max_entries"`
	AggregateTTL  time.Duration `mapstructure:"aggregate_ttl"`
	NormalizedTTL time.Duration `mapstructure:"normalized_ttl"`
	MatchTTL      time.Duration `mapstructure:"match_ttl"`
	CompanyTTL    time.Duration `mapstructure:"company_ttl"`
	RatingTTL     time.Duration `mapstructure:"rating_ttl"`
}

type SourcesConfig struct {
	JSearch        JSearchConfig `mapstructure:"jsearch"`
	Adzuna         AdzunaConfig  `mapstructure:"adzuna"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	DefaultCountry string        `mapstructure:"default_country"`
}

type JSearchConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Host    string        `mapstructure:"host"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AdzunaConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	AppID   string        `mapstructure:"app_id"`
	AppKey  string        `mapstructure:"app_key"`
	Country string        `mapstructure:"country"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the completion backend shared by every agent.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // openai, gemini or none
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyEnv    string        `mapstructure:"api_key_env"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	Burst        int           `mapstructure:"burst"`
}

// ResolveEnvVars fills APIKey from APIKeyEnv when no key is set directly.
func (c *LLMConfig) ResolveEnvVars() {
	if c.APIKey == "" && c.APIKeyEnv != "" {
		c.APIKey = os.Getenv(c.APIKeyEnv)
	}
}

// Enabled reports whether a backend can be constructed.
func (c *LLMConfig) Enabled() bool {
	switch strings.ToLower(c.Provider) {
	case "", "none", "disabled":
		return false
	}
	return c.APIKey != ""
}

// Validate rejects unknown providers.
func (c *LLMConfig) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "", "none", "disabled", "openai", "gemini":
		return nil
	}
	return fmt.Errorf("llm: unknown provider %q", c.Provider)
}

type MatchConfig struct {
	ExplainTimeout   time.Duration `mapstructure:"explain_timeout"`
	DistributedClaim bool          `mapstructure:"distributed_claim"`
	ClaimTTL         time.Duration `mapstructure:"claim_ttl"`
}

type RatingsConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Host    string        `mapstructure:"host"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type SearchConfig struct {
	PageSize    int `mapstructure:"page_size"`
	ScoringPool int `mapstructure:"scoring_pool"`
}

type PrefetchConfig struct {
	Workers int      `mapstructure:"workers"`
	TopJobs int      `mapstructure:"top_jobs"`
	Roles   []string `mapstructure:"roles"`
}

func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets come from the environment.
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("sources.jsearch.api_key", "JSEARCH_API_KEY")
	v.BindEnv("sources.adzuna.app_id", "ADZUNA_APP_ID")
	v.BindEnv("sources.adzuna.app_key", "ADZUNA_APP_KEY")
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("ratings.api_key", "RATINGS_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaultKeyEnv(cfg.LLM.Provider)
	}
	cfg.LLM.ResolveEnvVars()
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultKeyEnv(provider string) string {
	if strings.EqualFold(provider, "gemini") {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/jobfinder.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", 5000)
	v.SetDefault("cache.aggregate_ttl", 5*time.Minute)
	v.SetDefault("cache.normalized_ttl", 24*time.Hour)
	v.SetDefault("cache.match_ttl", 6*time.Hour)
	v.SetDefault("cache.company_ttl", 24*time.Hour)
	v.SetDefault("cache.rating_ttl", 72*time.Hour)

	v.SetDefault("sources.jsearch.enabled", true)
	v.SetDefault("sources.jsearch.host", "jsearch.p.rapidapi.com")
	v.SetDefault("sources.jsearch.base_url", "https://jsearch.p.rapidapi.com")
	v.SetDefault("sources.jsearch.timeout", 20*time.Second)
	v.SetDefault("sources.adzuna.enabled", false)
	v.SetDefault("sources.adzuna.country", "us")
	v.SetDefault("sources.adzuna.base_url", "https://api.adzuna.com")
	v.SetDefault("sources.adzuna.timeout", 20*time.Second)
	v.SetDefault("sources.cooldown", 60*time.Second)
	v.SetDefault("sources.default_country", "us")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", 45*time.Second)
	v.SetDefault("llm.rate_limit_rps", 2.0)
	v.SetDefault("llm.burst", 4)

	v.SetDefault("match.explain_timeout", 60*time.Second)
	v.SetDefault("match.distributed_claim", false)
	v.SetDefault("match.claim_ttl", 2*time.Minute)

	v.SetDefault("ratings.enabled", false)
	v.SetDefault("ratings.timeout", 10*time.Second)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "job-snapshots")

	v.SetDefault("search.page_size", 5)
	v.SetDefault("search.scoring_pool", 30)

	v.SetDefault("prefetch.workers", 4)
	v.SetDefault("prefetch.top_jobs", 10)
	v.SetDefault("prefetch.roles", []string{})
}
