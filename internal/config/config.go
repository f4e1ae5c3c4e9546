package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Session  SessionConfig  `mapstructure:"session"`
	Store    StoreConfig    `mapstructure:"store"`
	Render   RenderConfig   `mapstructure:"render"`
	AI       AIConfig       `mapstructure:"ai"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `mapstructure:"port"`
	MaxImportBytes int64    `mapstructure:"max_import_bytes"`
	MetricsToken   string   `mapstructure:"metrics_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig 控制 slog 输出格式：text 或 json。
type LogConfig struct {
	Format string `mapstructure:"format"`
}

// NewLogger 按配置构造 slog.Logger：默认 text，LOG_FORMAT=json 时输出 JSON。
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	PublicEndpoint   string `mapstructure:"public_endpoint"` // 浏览器可访问的预签名链接地址
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// SessionConfig 配置会话令牌的签名与有效期。
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure_cookie"`
}

// 简历存储后端
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// StoreConfig 选择简历快照的持久化后端。
type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// 渲染引擎
const (
	EngineNative   = "native"
	EngineChromium = "chromium"
)

// RenderConfig 控制 PDF 引擎与字体。
type RenderConfig struct {
	Engine       string        `mapstructure:"engine"`
	FontsDir     string        `mapstructure:"fonts_dir"`
	ChromeBin    string        `mapstructure:"chrome_bin"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PresignedTTL time.Duration `mapstructure:"presigned_ttl"`
}

// AIConfig 配置外部文本润色服务。BaseURL 为空时禁用。
type AIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Attempts  int           `mapstructure:"attempts"`
	RateLimit int           `mapstructure:"rate_limit"` // 每会话每分钟请求上限，0 表示不限
}

// Enabled reports whether an AI collaborator is configured.
func (a AIConfig) Enabled() bool { return a.BaseURL != "" }

// ClamdConfig 配置导入文件的病毒扫描。Address 为空时跳过扫描。
type ClamdConfig struct {
	Address string `mapstructure:"address"`
}

// WorkerConfig 配置 asynq worker。
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Render.Engine = strings.ToLower(cfg.Render.Engine)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.max_import_bytes", 1<<20)
	v.SetDefault("log.format", "text")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "buildmecv")
	v.SetDefault("database.user", "buildmecv")
	v.SetDefault("database.password", "buildmecv")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cookie_name", "cv_session")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("store.backend", StoreBackendRedis)
	v.SetDefault("store.ttl", 30*24*time.Hour)
	v.SetDefault("render.engine", EngineNative)
	v.SetDefault("render.fonts_dir", "assets/fonts")
	v.SetDefault("render.timeout", 30*time.Second)
	v.SetDefault("render.presigned_ttl", 15*time.Minute)
	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.attempts", 3)
	v.SetDefault("ai.rate_limit", 20)
	v.SetDefault("worker.concurrency", 4)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.max_import_bytes":     "API_MAX_IMPORT_BYTES",
		"api.metrics_token":        "API_METRICS_TOKEN",
		"api.allowed_origins":      "API_ALLOWED_ORIGINS",
		"log.format":               "LOG_FORMAT",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"session.secret":           "SESSION_SECRET",
		"session.ttl":              "SESSION_TTL",
		"session.cookie_name":      "SESSION_COOKIE_NAME",
		"session.secure_cookie":    "SESSION_SECURE_COOKIE",
		"store.backend":            "STORE_BACKEND",
		"store.ttl":                "STORE_TTL",
		"render.engine":            "RENDER_ENGINE",
		"render.fonts_dir":         "RENDER_FONTS_DIR",
		"render.chrome_bin":        "RENDER_CHROME_BIN",
		"render.timeout":           "RENDER_TIMEOUT",
		"render.presigned_ttl":     "RENDER_PRESIGNED_TTL",
		"ai.base_url":              "AI_BASE_URL",
		"ai.timeout":               "AI_TIMEOUT",
		"ai.attempts":              "AI_ATTEMPTS",
		"ai.rate_limit":            "AI_RATE_LIMIT",
		"clamd.address":            "CLAMD_ADDRESS",
		"worker.concurrency":       "WORKER_CONCURRENCY",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.API.MaxImportBytes <= 0 {
		return errors.New("api max import bytes must be positive")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", cfg.Log.Format)
	}
	if cfg.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	// 导出记录总是写入 PostgreSQL，与快照后端无关
	if err := validateDatabase(cfg.Database); err != nil {
		return err
	}
	switch cfg.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendPostgres:
	default:
		return fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	switch cfg.Render.Engine {
	case EngineNative, EngineChromium:
	default:
		return fmt.Errorf("unsupported render engine %q", cfg.Render.Engine)
	}
	if cfg.Render.Timeout <= 0 {
		return errors.New("render timeout must be positive")
	}
	if cfg.AI.Attempts <= 0 {
		return errors.New("ai attempts must be positive")
	}
	if cfg.AI.RateLimit < 0 {
		return errors.New("ai rate limit must not be negative")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.MinIO.PublicEndpoint == "" {
		return errors.New("minio public endpoint is required")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if d.Host == "" {
		return errors.New("database host is required")
	}
	if d.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if d.Name == "" {
		return errors.New("database name is required")
	}
	if d.User == "" {
		return errors.New("database user is required")
	}
	if d.Password == "" {
		return errors.New("database password is required")
	}
	return nil
}
