// Package config loads and validates the module's configuration,
// mirroring the teacher's pkg/config/config.go (struct tags +
// Validate() + setDefaults() + viper-backed LoadConfig) extended with
// a Graph section carrying every default from spec §6.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

var (
	ErrConfigNotFound = errors.New("config: file not found")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)

// Config is the top-level configuration object.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Chunker  ChunkerConfig  `mapstructure:"chunker"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Embedder ServiceConfig  `mapstructure:"embedder"`
}

// ServerConfig is the HTTP server's bind address.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds the Postgres DSN.
type DatabaseConfig struct {
	DSN       string `mapstructure:"dsn"`
	Dimension int    `mapstructure:"dimension"`
}

// RedisConfig holds rueidis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig holds the blob-store connection settings.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	UseSSL    bool   `mapstructure:"useSSL"`
	Bucket    string `mapstructure:"bucket"`
}

// ServiceConfig describes an external HTTP-backed service (the
// embedding worker).
type ServiceConfig struct {
	BaseURL string `mapstructure:"baseURL"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"apiKey"`
}

// ChunkerConfig mirrors spec §6's chunker defaults.
type ChunkerConfig struct {
	MaxTokens int `mapstructure:"maxTokens"`
	MinTokens int `mapstructure:"minTokens"`
}

// GraphConfig carries every numeric default from spec §6's
// "Configuration defaults" table.
type GraphConfig struct {
	MaxNeighbors               int     `mapstructure:"maxNeighbors"`
	CandidateLimit             int     `mapstructure:"candidateLimit"`
	BundleTopK                 int     `mapstructure:"bundleTopK"`
	SimilarityThreshold        float64 `mapstructure:"similarityThreshold"`
	ApproximateThreshold       int     `mapstructure:"approximateThreshold"`
	ApproximateProjectionCount int     `mapstructure:"approximateProjectionCount"`
	ApproximateBandSize        int     `mapstructure:"approximateBandSize"`
	ApproximateOversample      int     `mapstructure:"approximateOversample"`
	ApproximateSeed            uint32  `mapstructure:"approximateSeed"`
}

// Validate fills defaults then checks cross-field constraints, the
// same two-step idiom as the teacher's ChunkingConfig.Validate.
func (c *Config) Validate() error {
	c.setDefaults()

	if c.Chunker.MinTokens > c.Chunker.MaxTokens {
		return fmt.Errorf("%w: chunker.minTokens (%d) must be <= chunker.maxTokens (%d)", ErrInvalidConfig, c.Chunker.MinTokens, c.Chunker.MaxTokens)
	}
	if c.Database.Dimension <= 0 {
		return fmt.Errorf("%w: database.dimension must be positive", ErrInvalidConfig)
	}
	if c.Graph.SimilarityThreshold < -1 || c.Graph.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: graph.similarityThreshold must be within [-1,1]", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.MinIO.Endpoint == "" {
		c.MinIO.Endpoint = "localhost:9000"
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = "codegraph-fixtures"
	}
	if c.Chunker.MaxTokens == 0 {
		c.Chunker.MaxTokens = 180
	}
	if c.Chunker.MinTokens == 0 {
		c.Chunker.MinTokens = 60
	}
	if c.Graph.MaxNeighbors == 0 {
		c.Graph.MaxNeighbors = 8
	}
	if c.Graph.CandidateLimit == 0 {
		c.Graph.CandidateLimit = 20
	}
	if c.Graph.BundleTopK == 0 {
		c.Graph.BundleTopK = 3
	}
	if c.Graph.SimilarityThreshold == 0 {
		c.Graph.SimilarityThreshold = 0.65
	}
	// ApproximateThreshold is deliberately not defaulted here: this
	// method runs post-unmarshal, where an omitted key and an explicit
	// 0 are indistinguishable. LoadConfig seeds the §6 default of 600
	// via viper's SetDefault before unmarshalling, which does tell
	// them apart (a present "approximateThreshold: 0" key overrides the
	// default; an absent key takes it). Config values built directly
	// in code (tests, programmatic callers) skip that path entirely,
	// so a zero value there is honored as "never auto-enable" per
	// spec §9; pkg/candidates applies the same rule.
	if c.Graph.ApproximateProjectionCount == 0 {
		c.Graph.ApproximateProjectionCount = 12
	}
	if c.Graph.ApproximateBandSize == 0 {
		c.Graph.ApproximateBandSize = 24
	}
	if c.Graph.ApproximateOversample == 0 {
		c.Graph.ApproximateOversample = 2
	}
	if c.Graph.ApproximateSeed == 0 {
		c.Graph.ApproximateSeed = 1337
	}
}

// LoadConfig reads configuration from configPath (directory) via
// viper, same structure/type/env-binding as the teacher's LoadConfig.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Seeded before ReadInConfig so viper can tell an omitted key
	// (falls back to this default) from an explicit "approximateThreshold: 0"
	// (overrides it) — see the comment on setDefaults for why that
	// distinction can't be made after unmarshalling.
	v.SetDefault("graph.approximateThreshold", 600)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoadConfig panics on error, for main() wiring where a bad
// config is unrecoverable at startup.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}
