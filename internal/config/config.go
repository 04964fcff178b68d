package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Upload    UploadConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Reconcile ReconcileConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// AuthConfig holds bearer token settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// Enabled reports whether requests must carry a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the per-file upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// S3Config holds AWS S3 settings for archiving generated workbooks.
type S3Config struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PresignExpiry  int64  `mapstructure:"presign_expiry"`
	ArchiveEnabled bool   `mapstructure:"archive_enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReconcileConfig holds reconciliation engine settings.
type ReconcileConfig struct {
	NoiseThreshold          decimal.Decimal
	ExcludedExpenseAccounts []string
	HeaderScanRows          int
	Parallel                bool
}

// Load reads configuration from environment variables with the TAXRECON_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAXRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Auth defaults (disabled)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "taxrecon-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)
	v.SetDefault("s3.archive_enabled", false)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Reconcile defaults
	v.SetDefault("reconcile.noise_threshold", "1")
	v.SetDefault("reconcile.excluded_expense_accounts", "51157001")
	v.SetDefault("reconcile.header_scan_rows", 20)
	v.SetDefault("reconcile.parallel", false)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                         "TAXRECON_SERVER_PORT",
		"server.read_timeout":                 "TAXRECON_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "TAXRECON_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "TAXRECON_SERVER_ENVIRONMENT",
		"auth.jwt_secret":                     "TAXRECON_AUTH_JWT_SECRET",
		"auth.issuer":                         "TAXRECON_AUTH_ISSUER",
		"auth.audience":                       "TAXRECON_AUTH_AUDIENCE",
		"upload.max_file_size_mb":             "TAXRECON_UPLOAD_MAX_FILE_SIZE_MB",
		"s3.region":                           "TAXRECON_S3_REGION",
		"s3.bucket":                           "TAXRECON_S3_BUCKET",
		"s3.endpoint":                         "TAXRECON_S3_ENDPOINT",
		"s3.access_key":                       "TAXRECON_S3_ACCESS_KEY",
		"s3.secret_key":                       "TAXRECON_S3_SECRET_KEY",
		"s3.presign_expiry":                   "TAXRECON_S3_PRESIGN_EXPIRY",
		"s3.archive_enabled":                  "TAXRECON_S3_ARCHIVE_ENABLED",
		"log.level":                           "TAXRECON_LOG_LEVEL",
		"log.format":                          "TAXRECON_LOG_FORMAT",
		"cors.allowed_origins":                "TAXRECON_CORS_ALLOWED_ORIGINS",
		"reconcile.noise_threshold":           "TAXRECON_RECONCILE_NOISE_THRESHOLD",
		"reconcile.excluded_expense_accounts": "TAXRECON_RECONCILE_EXCLUDED_EXPENSE_ACCOUNTS",
		"reconcile.header_scan_rows":          "TAXRECON_RECONCILE_HEADER_SCAN_ROWS",
		"reconcile.parallel":                  "TAXRECON_RECONCILE_PARALLEL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TAXRECON_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TAXRECON_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
		Audience:  v.GetString("auth.audience"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		Bucket:         v.GetString("s3.bucket"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		PresignExpiry:  v.GetInt64("s3.presign_expiry"),
		ArchiveEnabled: v.GetBool("s3.archive_enabled"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	threshold, err := decimal.NewFromString(strings.TrimSpace(v.GetString("reconcile.noise_threshold")))
	if err != nil {
		return nil, fmt.Errorf("config: invalid reconcile.noise_threshold: %w", err)
	}
	cfg.Reconcile = ReconcileConfig{
		NoiseThreshold:          threshold,
		ExcludedExpenseAccounts: splitList(v.GetString("reconcile.excluded_expense_accounts")),
		HeaderScanRows:          v.GetInt("reconcile.header_scan_rows"),
		Parallel:                v.GetBool("reconcile.parallel"),
	}
	if cfg.Reconcile.HeaderScanRows <= 0 {
		return nil, fmt.Errorf("config: reconcile.header_scan_rows must be positive, got %d", cfg.Reconcile.HeaderScanRows)
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
