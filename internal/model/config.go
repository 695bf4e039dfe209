package model

import "time"

// Config is the complete runtime configuration.
// Field tags serve viper (mapstructure) and `config init` (yaml).
type Config struct {
	DataDir      string             `mapstructure:"data_dir" yaml:"data_dir"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Thresholds   Thresholds         `mapstructure:"thresholds" yaml:"thresholds"`
	Watch        WatchConfig        `mapstructure:"watch" yaml:"watch"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format        string `mapstructure:"format" yaml:"format"` // json or yaml
	Verbose       bool   `mapstructure:"verbose" yaml:"verbose"`
	IncludeFooter bool   `mapstructure:"include_footer" yaml:"include_footer"`
}

// CacheConfig controls the session read cache and the narrative cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskDir   string        `mapstructure:"disk_dir" yaml:"disk_dir"` // Empty = <data_dir>/cache
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// RateLimitingConfig throttles narrator calls per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// LLMConfig configures the optional narrator
type LLMConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model      string `mapstructure:"model" yaml:"model"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout    int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	StrictRefs bool   `mapstructure:"strict_refs" yaml:"strict_refs"`
	MaxTokens  int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	HTTPProxy  string `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy    string `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// Thresholds drive assessment signals. They never alter metric values.
type Thresholds struct {
	High            float64 `mapstructure:"high" yaml:"high"`
	Medium          float64 `mapstructure:"medium" yaml:"medium"`
	MinSDD          float64 `mapstructure:"min_sdd" yaml:"min_sdd"`
	MaxOrphanRatio  float64 `mapstructure:"max_orphan_ratio" yaml:"max_orphan_ratio"`
	MinTRR          float64 `mapstructure:"min_trr" yaml:"min_trr"`
	MinLBR          float64 `mapstructure:"min_lbr" yaml:"min_lbr"`
	RegressionDelta float64 `mapstructure:"regression_delta" yaml:"regression_delta"`
}

// WatchConfig controls the session watcher
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// DefaultThresholds returns the standard assessment thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:            0.7,
		Medium:          0.4,
		MinSDD:          0.05,
		MaxOrphanRatio:  0.25,
		MinTRR:          0.5,
		MinLBR:          0.2,
		RegressionDelta: 0.05,
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir: "",
		Output: OutputConfig{
			Format:        "json",
			IncludeFooter: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 5 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		LLM: LLMConfig{
			Timeout:    30,
			StrictRefs: true,
			MaxTokens:  600,
		},
		Thresholds: DefaultThresholds(),
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}
