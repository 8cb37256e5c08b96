package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	ImageSearch ImageSearchConfig `mapstructure:"image_search"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Auth        AuthConfig        `mapstructure:"auth"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogMode     string            `mapstructure:"log_mode"`
	LogDir      string            `mapstructure:"log_dir"`
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
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	Model            string        `mapstructure:"model" validate:"required"`
	Temperature      float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	ExtractMaxTokens int           `mapstructure:"extract_max_tokens" validate:"gt=0"`
	ScaleMaxTokens   int           `mapstructure:"scale_max_tokens" validate:"gt=0"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Referer          string        `mapstructure:"referer"`
	Title            string        `mapstructure:"title"`
}

// FetchConfig 食譜頁面抓取設定
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxContentChars int           `mapstructure:"max_content_chars" validate:"gt=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	UserAgent       string        `mapstructure:"user_agent"`
	// Renderer 為 "http" 或 "chrome"（以 headless Chrome 渲染 JS 頁面）
	Renderer string `mapstructure:"renderer" validate:"oneof=http chrome"`
}

// ImageSearchConfig 後備圖片搜尋設定
type ImageSearchConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	AccessKey string        `mapstructure:"access_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig 頁面快取配置
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers" validate:"gt=0"`
	MaxSize int `mapstructure:"max_size" validate:"gt=0"`
}

// BreakerConfig AI 服務斷路器設定
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `mapstructure:"min_requests"`
}

// MongoConfig 文件資料庫設定；URI 為空時使用記憶體儲存
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig 權限設定
type AuthConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	Issuer          string `mapstructure:"issuer"`
	MutatePrivilege string `mapstructure:"mutate_privilege"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"openrouter.api_key":      "OPENROUTER_API_KEY",
		"openrouter.model":        "OPENROUTER_MODEL",
		"fetch.renderer":          "FETCH_RENDERER",
		"image_search.access_key": "UNSPLASH_ACCESS_KEY",
		"cache.enabled":           "CACHE_ENABLED",
		"cache.backend":           "CACHE_BACKEND",
		"redis.addr":              "REDIS_ADDR",
		"mongo.uri":               "MONGO_URI",
		"mongo.database":          "MONGO_DATABASE",
		"auth.enabled":            "AUTH_ENABLED",
		"auth.jwt_secret":         "JWT_SECRET",
		"rate_limit.enabled":      "RATE_LIMIT_ENABLED",
		"rate_limit.requests":     "RATE_LIMIT_REQUESTS",
		"rate_limit.window":       "RATE_LIMIT_WINDOW",
		"dedup_window":            "DEDUP_WINDOW",
		"log_level":               "LOG_LEVEL",
		"log_mode":                "LOG_MODE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
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
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "meal-planner")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// OpenRouter 設定；溫度接近 0 以維持擷取與換算的穩定性
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.temperature", 0.1)
	v.SetDefault("openrouter.extract_max_tokens", 2500)
	v.SetDefault("openrouter.scale_max_tokens", 1500)
	v.SetDefault("openrouter.timeout", "90s")
	v.SetDefault("openrouter.referer", "https://meal-planner.local")
	v.SetDefault("openrouter.title", "Meal Planner")

	// 頁面抓取
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.max_content_chars", 6000)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; MealPlannerBot/1.0)")
	v.SetDefault("fetch.renderer", "http")

	// 後備圖片搜尋
	v.SetDefault("image_search.enabled", true)
	v.SetDefault("image_search.base_url", "https://api.unsplash.com")
	v.SetDefault("image_search.timeout", "5s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "6h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "meal-planner:")

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 64)

	// 斷路器
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "60s")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure_threshold", 0.6)
	v.SetDefault("breaker.min_requests", 5)

	// 資料庫
	v.SetDefault("mongo.database", "meal_planner")
	v.SetDefault("mongo.timeout", "10s")

	// 權限
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.mutate_privilege", "edit")

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
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	if config.Cache.Enabled {
		if config.Cache.Backend == "memory" && config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.Backend == "redis" && config.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis cache backend")
		}
	}

	if config.Auth.Enabled && config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when auth is enabled")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
