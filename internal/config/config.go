package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded from the environment with
// sensible defaults for local development.
type Config struct {
	Addr        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	StaticDir   string

	AdminUsername string
	AdminPassword string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	Backup BackupConfig
}

// BackupConfig holds S3 backup settings. Backups are disabled unless Bucket
// is set.
type BackupConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	Interval  time.Duration
}

// Load reads configuration from MERITBOARD_* environment variables.
func Load() *Config {
	return &Config{
		Addr:        getEnv("MERITBOARD_ADDR", ":8080"),
		DatabaseURL: getEnv("MERITBOARD_DB_PATH", "meritboard.db"),
		LogLevel:    getEnv("MERITBOARD_LOG_LEVEL", "info"),
		LogFormat:   getEnv("MERITBOARD_LOG_FORMAT", "text"),
		StaticDir:   getEnv("MERITBOARD_STATIC_DIR", "static"),

		AdminUsername: getEnv("MERITBOARD_ADMIN_USERNAME", "Gon"),
		AdminPassword: getEnv("MERITBOARD_ADMIN_PASSWORD", "123"),

		LoginRateLimit:  getEnvInt("MERITBOARD_LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("MERITBOARD_LOGIN_RATE_WINDOW", time.Minute),

		Backup: BackupConfig{
			Bucket:    getEnv("MERITBOARD_BACKUP_BUCKET", ""),
			Region:    getEnv("MERITBOARD_BACKUP_REGION", "auto"),
			Endpoint:  getEnv("MERITBOARD_BACKUP_ENDPOINT", ""),
			AccessKey: getEnv("MERITBOARD_BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("MERITBOARD_BACKUP_SECRET_KEY", ""),
			Prefix:    getEnv("MERITBOARD_BACKUP_PREFIX", "backups"),
			Interval:  getEnvDuration("MERITBOARD_BACKUP_INTERVAL", 24*time.Hour),
		},
	}
}

// BackupEnabled reports whether a backup destination is configured.
func (c *Config) BackupEnabled() bool {
	return c.Backup.Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
