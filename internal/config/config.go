package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration loaded from environment variables,
// optionally seeded from a YAML file named by CONFIG_FILE.
type Config struct {
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"-"`

	AdminPassword     string `yaml:"-"`
	AdminPasswordHash string `yaml:"-"`
	SessionSecret     string `yaml:"-"`
	SessionTTLHours   int    `yaml:"session_ttl_hours"`

	CorsOrigins    []string `yaml:"cors_origins"`
	AdminAssetsDir string   `yaml:"admin_assets_dir"`

	ImageStore    string         `yaml:"image_store"`
	ImageMaxWidth int            `yaml:"image_max_width"`
	ImageKit      ImageKitConfig `yaml:"imagekit"`
	S3            S3Config       `yaml:"s3"`
	MediaDir      string         `yaml:"media_dir"`

	RedisURL          string `yaml:"redis_url"`
	RevalidateChannel string `yaml:"revalidate_channel"`

	Log LogConfig `yaml:"log"`

	MetricsDiskPath   string `yaml:"metrics_disk_path"`
	HostSampleSeconds int    `yaml:"host_sample_seconds"`
}

type ImageKitConfig struct {
	PrivateKey  string `yaml:"-"`
	PublicKey   string `yaml:"public_key"`
	URLEndpoint string `yaml:"url_endpoint"`
	Folder      string `yaml:"folder"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
	AccessKey     string `yaml:"-"`
	SecretKey     string `yaml:"-"`
}

type LogConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads CONFIG_FILE (if set) and then applies the environment on top.
// Secrets are only ever read from the environment.
func Load() (Config, error) {
	cfg := Config{}
	if path := envOr("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = envOr("ENVIRONMENT", cfg.Environment)
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)

	cfg.AdminPassword = envOr("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.AdminPasswordHash = envOr("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)
	cfg.SessionSecret = envOr("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTLHours = envOrInt("SESSION_TTL_HOURS", cfg.SessionTTLHours)

	if origins := parseCSV(envOr("CORS_ORIGINS", "")); len(origins) > 0 {
		cfg.CorsOrigins = origins
	}
	cfg.AdminAssetsDir = envOr("ADMIN_ASSETS_DIR", cfg.AdminAssetsDir)

	cfg.ImageStore = envOr("IMAGE_STORE", cfg.ImageStore)
	cfg.ImageMaxWidth = envOrInt("IMAGE_MAX_WIDTH", cfg.ImageMaxWidth)
	cfg.ImageKit.PrivateKey = envOr("IMAGEKIT_PRIVATE_KEY", cfg.ImageKit.PrivateKey)
	cfg.ImageKit.PublicKey = envOr("IMAGEKIT_PUBLIC_KEY", cfg.ImageKit.PublicKey)
	cfg.ImageKit.URLEndpoint = envOr("IMAGEKIT_URL_ENDPOINT", cfg.ImageKit.URLEndpoint)
	cfg.ImageKit.Folder = envOr("IMAGEKIT_FOLDER", cfg.ImageKit.Folder)
	cfg.MediaDir = envOr("MEDIA_DIR", cfg.MediaDir)
	cfg.S3.Bucket = envOr("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = envOr("S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = envOr("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.PublicBaseURL = envOr("S3_PUBLIC_BASE_URL", cfg.S3.PublicBaseURL)
	cfg.S3.AccessKey = envOr("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = envOr("S3_SECRET_KEY", cfg.S3.SecretKey)

	cfg.RedisURL = envOr("REDIS_URL", cfg.RedisURL)
	cfg.RevalidateChannel = envOr("REVALIDATE_CHANNEL", cfg.RevalidateChannel)

	cfg.Log.Level = envOr("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Dir = envOr("LOG_DIR", cfg.Log.Dir)
	cfg.Log.RetentionDays = envOrInt("LOG_RETENTION_DAYS", cfg.Log.RetentionDays)

	cfg.MetricsDiskPath = envOr("METRICS_DISK_PATH", cfg.MetricsDiskPath)
	cfg.HostSampleSeconds = envOrInt("HOST_SAMPLE_SECONDS", cfg.HostSampleSeconds)
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SessionTTLHours <= 0 {
		cfg.SessionTTLHours = 7 * 24
	}
	if cfg.AdminAssetsDir == "" {
		cfg.AdminAssetsDir = "web/admin"
	}
	if cfg.ImageStore == "" {
		cfg.ImageStore = "imagekit"
	}
	if cfg.ImageMaxWidth <= 0 {
		cfg.ImageMaxWidth = 2000
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "storage/media"
	}
	if cfg.RevalidateChannel == "" {
		cfg.RevalidateChannel = "site:revalidate"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = "storage/logs"
	}
	if cfg.Log.RetentionDays <= 0 || cfg.Log.RetentionDays > 7 {
		cfg.Log.RetentionDays = 7
	}
	if cfg.MetricsDiskPath == "" {
		cfg.MetricsDiskPath = "/"
	}
	if cfg.HostSampleSeconds <= 0 {
		cfg.HostSampleSeconds = 30
	}
}

// Validate checks the settings the process cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing env var: DATABASE_URL")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("missing env var: SESSION_SECRET")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("one of ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	switch c.ImageStore {
	case "imagekit":
		if c.ImageKit.PrivateKey == "" {
			return fmt.Errorf("IMAGE_STORE=imagekit requires IMAGEKIT_PRIVATE_KEY")
		}
	case "s3":
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return fmt.Errorf("IMAGE_STORE=s3 requires S3_BUCKET and S3_REGION")
		}
	case "local":
	default:
		return fmt.Errorf("unknown IMAGE_STORE %q", c.ImageStore)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
