// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Registry   RegistryConfig          `mapstructure:"registry"`
	Counseling CounselingConfig        `mapstructure:"counseling"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RegistryConfig points at the activity registry describing worker inputs and outputs.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// --- Counseling engine ---

// Index strategies.
const (
	IndexStrategyMemory   = "memory"
	IndexStrategyPostgres = "postgres"
	IndexStrategyLinear   = "linear"
)

type CounselingConfig struct {
	DataDir               string              `mapstructure:"data_dir"`
	IndexStrategy         string              `mapstructure:"index_strategy"`
	ChanceMargin          int                 `mapstructure:"chance_margin"`
	SlowQueryMs           int                 `mapstructure:"slow_query_ms"`
	MaxFanOut             int                 `mapstructure:"max_fan_out"`
	ResultCacheTTLSeconds int                 `mapstructure:"result_cache_ttl_seconds"`
	LookupCacheTTLSeconds int                 `mapstructure:"lookup_cache_ttl_seconds"`
	Supplementary         SupplementaryConfig `mapstructure:"supplementary"`
	Directory             DirectoryConfig     `mapstructure:"directory"`
}

type SupplementaryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	RedisKey string `mapstructure:"redis_key"`
}

type DirectoryConfig struct {
	ElasticsearchEnabled bool   `mapstructure:"elasticsearch_enabled"`
	Index                string `mapstructure:"index"`
}

func (c CounselingConfig) SlowQueryThreshold() time.Duration {
	return GetDuration(c.SlowQueryMs)
}

func (c CounselingConfig) ResultCacheTTL() time.Duration {
	return time.Duration(c.ResultCacheTTLSeconds) * time.Second
}

func (c CounselingConfig) LookupCacheTTL() time.Duration {
	return time.Duration(c.LookupCacheTTLSeconds) * time.Second
}

// NeedsRedis reports whether any configured component talks to Redis. The
// result cache is used whenever an address is set.
func (c *Config) NeedsRedis() bool {
	return c.Counseling.Supplementary.Enabled || c.Database.Redis.Address != ""
}

func (c *Config) NeedsPostgres() bool {
	return c.Counseling.IndexStrategy == IndexStrategyPostgres
}

func (c *Config) NeedsElasticsearch() bool {
	return c.Counseling.Directory.ElasticsearchEnabled
}
