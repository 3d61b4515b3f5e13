package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Model     ModelConfig     `mapstructure:"model"`
	Decisions DecisionsConfig `mapstructure:"decisions"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Capacity int           `mapstructure:"capacity"`
	Window   time.Duration `mapstructure:"window"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

// ModelConfig controls how the classifier is fitted and cached.
type ModelConfig struct {
	Samples           int           `mapstructure:"samples"`
	Seed              int64         `mapstructure:"seed"`
	Iterations        int           `mapstructure:"iterations"`
	GradientTolerance float64       `mapstructure:"gradient_tolerance"`
	L2Penalty         float64       `mapstructure:"l2_penalty"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

type DecisionsConfig struct {
	MemoryCapacity int `mapstructure:"memory_capacity"`
}

type NarrativeConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	APIURL  string        `mapstructure:"api_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env, config.yaml (./configs or .) and environment overrides
// such as SERVER_ADDRESS or REDIS_ENABLED.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults also registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("rate_limit.capacity", 5)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_connections", 10)
	v.SetDefault("postgres.max_idle", 2)

	v.SetDefault("model.samples", 1000)
	v.SetDefault("model.seed", 42)
	v.SetDefault("model.iterations", 200)
	v.SetDefault("model.gradient_tolerance", 1e-6)
	v.SetDefault("model.l2_penalty", 1e-3)
	v.SetDefault("model.cache_ttl", 24*time.Hour)

	v.SetDefault("decisions.memory_capacity", 10000)

	v.SetDefault("narrative.api_key", "")
	v.SetDefault("narrative.api_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("narrative.model", "gpt-4o-mini")
	v.SetDefault("narrative.timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if cfg.RateLimit.Capacity <= 0 || cfg.RateLimit.Window <= 0 {
		return errors.New("rate_limit.capacity and rate_limit.window must be positive")
	}
	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		return errors.New("redis.address is required when redis is enabled")
	}
	if cfg.Postgres.Enabled && cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required when postgres is enabled")
	}
	if cfg.Model.Samples <= 0 {
		return errors.New("model.samples must be positive")
	}
	if cfg.Model.Iterations <= 0 || cfg.Model.GradientTolerance <= 0 {
		return errors.New("model.iterations and model.gradient_tolerance must be positive")
	}
	if cfg.Model.L2Penalty < 0 {
		return errors.New("model.l2_penalty must not be negative")
	}
	// The notice is generated while the request is open.
	if cfg.Narrative.Timeout <= 0 || cfg.Narrative.Timeout >= cfg.Server.WriteTimeout {
		return fmt.Errorf("narrative.timeout (%s) must be positive and shorter than server.write_timeout (%s)",
			cfg.Narrative.Timeout, cfg.Server.WriteTimeout)
	}
	return nil
}
