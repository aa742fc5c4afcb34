package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Logger    Logger    `mapstructure:"logger"`
	Database  Database  `mapstructure:"database"`
	Price     Price     `mapstructure:"price"`
	OpenAI    OpenAI    `mapstructure:"openai"`
	Analysis  Analysis  `mapstructure:"analysis"`
	Simulator Simulator `mapstructure:"simulator"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database holds the configuration for the record store.
type Database struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	DSN    string `mapstructure:"dsn"`
}

// Price holds the configuration for the SOL/USD price lookup.
type Price struct {
	BaseURL        string        `mapstructure:"base_url"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	Fallback       float64       `mapstructure:"fallback"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// OpenAI holds the configuration for the chat completions API.
type OpenAI struct {
	ApiKey         string        `mapstructure:"apiKey"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// Analysis holds the configuration for analysis reuse.
type Analysis struct {
	ReuseWindow time.Duration `mapstructure:"reuse_window"`
}

// Simulator holds the configuration for the trade simulator.
type Simulator struct {
	// SeedFallback is "random" or "charsum".
	SeedFallback string `mapstructure:"seed_fallback"`
	// MinAddressLength is the shortest wallet address the HTTP API accepts.
	MinAddressLength int `mapstructure:"min_address_length"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "analyzer.db")

	v.SetDefault("price.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price.cache_ttl", 15*time.Minute)
	v.SetDefault("price.fallback", 180.0)
	v.SetDefault("price.timeout", 10*time.Second)
	v.SetDefault("price.rate_limit", 0.5) // requests per second
	v.SetDefault("price.rate_limit_burst", 2)

	v.SetDefault("openai.apiKey", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 2000)
	v.SetDefault("openai.timeout", 2*time.Minute)
	v.SetDefault("openai.rate_limit", 1)
	v.SetDefault("openai.rate_limit_burst", 1)

	v.SetDefault("analysis.reuse_window", 24*time.Hour)

	v.SetDefault("simulator.seed_fallback", "random")
	v.SetDefault("simulator.min_address_length", 32)
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
