package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Usage       UsageConfig     `mapstructure:"usage"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// GeminiConfig 文字生成服務配置
type GeminiConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Transport string        `mapstructure:"transport"` // rest 或 sdk
}

// UsageConfig 免費配額設定
type UsageConfig struct {
	MaxFreeUses   int    `mapstructure:"max_free_uses"`
	CounterKey    string `mapstructure:"counter_key"`
	Premium       bool   `mapstructure:"premium"`
	CommitRetries int    `mapstructure:"commit_retries"`
}

// StorageConfig 鍵值存儲設定
type StorageConfig struct {
	Driver string      `mapstructure:"driver"` // memory、file、sqlite、redis
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig AI 回應快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// StorageDrivers 支援的存儲驅動
var StorageDrivers = []string{"memory", "file", "sqlite", "redis"}

// LoadConfig 載入設定（.env 不存在時只使用環境變數與預設值）
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"gemini.enabled":         "GEMINI_ENABLED",
		"gemini.api_key":         "GEMINI_API_KEY",
		"gemini.base_url":        "GEMINI_BASE_URL",
		"gemini.model":           "GEMINI_MODEL",
		"gemini.timeout":         "GEMINI_TIMEOUT",
		"gemini.transport":       "GEMINI_TRANSPORT",
		"usage.max_free_uses":    "USAGE_MAX_FREE_USES",
		"usage.premium":          "USAGE_PREMIUM",
		"storage.driver":         "STORAGE_DRIVER",
		"storage.path":           "STORAGE_PATH",
		"storage.redis.addr":     "REDIS_ADDR",
		"storage.redis.db":       "REDIS_DB",
		"storage.redis.password": "REDIS_PASSWORD",
		"cache.enabled":          "CACHE_ENABLED",
		"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
		"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
		"rate_limit.window":      "RATE_LIMIT_WINDOW",
		"server.port":            "PORT",
		"server.request_timeout": "REQUEST_TIMEOUT",
		"dedup_window":           "DEDUP_WINDOW",
		"log_level":              "LOG_LEVEL",
		"log_dir":                "LOG_DIR",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "smartlist")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Gemini 設定
	v.SetDefault("gemini.enabled", true)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.0-flash-exp")
	v.SetDefault("gemini.timeout", "20s")
	v.SetDefault("gemini.transport", "rest")

	// 配額設定
	v.SetDefault("usage.max_free_uses", 3)
	v.SetDefault("usage.counter_key", "recipe_free_uses")
	v.SetDefault("usage.premium", false)
	v.SetDefault("usage.commit_retries", 2)

	// 存儲設定
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data/smartlist.json")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "2s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Gemini.Timeout <= 0 {
		return fmt.Errorf("invalid gemini timeout")
	}
	// 請求超時必須長於 AI 呼叫超時
	if config.Server.RequestTimeout > 0 && config.Server.RequestTimeout <= config.Gemini.Timeout {
		return fmt.Errorf("server request timeout (%s) must exceed gemini timeout (%s)",
			config.Server.RequestTimeout, config.Gemini.Timeout)
	}
	switch config.Gemini.Transport {
	case "rest", "sdk":
	default:
		return fmt.Errorf("unknown gemini transport %q", config.Gemini.Transport)
	}

	if config.Usage.MaxFreeUses < 0 {
		return fmt.Errorf("invalid usage max free uses")
	}
	if config.Usage.CounterKey == "" {
		return fmt.Errorf("usage counter key is required")
	}
	if config.Usage.CommitRetries < 0 {
		return fmt.Errorf("invalid usage commit retries")
	}

	if !isKnownDriver(config.Storage.Driver) {
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
	if (config.Storage.Driver == "file" || config.Storage.Driver == "sqlite") && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required for driver %q", config.Storage.Driver)
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}

func isKnownDriver(driver string) bool {
	for _, d := range StorageDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

// AIAvailable 是否可呼叫外部生成服務
func (c *Config) AIAvailable() bool {
	return c.Gemini.Enabled && c.Gemini.APIKey != ""
}
