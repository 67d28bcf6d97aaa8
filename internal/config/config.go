package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mindloop/learncoach-backend/internal/logger"
)

// Config is the full application configuration. Values come from an optional
// YAML file (CONFIG_FILE) with environment variables taking precedence.
type Config struct {
	LogMode string `yaml:"log_mode"`
	Port    string `yaml:"port" validate:"required"`

	JWTSecretKey    string `yaml:"jwt_secret_key" validate:"required"`
	AccessTokenTTL  int    `yaml:"access_token_ttl" validate:"gt=0"`
	RefreshTokenTTL int    `yaml:"refresh_token_ttl" validate:"gt=0"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	SQLitePath       string `yaml:"sqlite_path" validate:"required"`

	CORSOrigins []string `yaml:"cors_origins" validate:"min=1"`

	MediaDir       string `yaml:"media_dir"`
	AvatarFontPath string `yaml:"avatar_font_path"`
}

// UsePostgres reports whether a postgres host was configured; otherwise the
// app falls back to the sqlite file at SQLitePath.
func (c *Config) UsePostgres() bool {
	return strings.TrimSpace(c.PostgresHost) != ""
}

func defaults() *Config {
	return &Config{
		LogMode:         "development",
		Port:            "8080",
		JWTSecretKey:    "defaultsecret",
		AccessTokenTTL:  3600,
		RefreshTokenTTL: 86400 * 7,
		PostgresPort:    "5432",
		PostgresUser:    "postgres",
		PostgresName:    "learncoach",
		SQLitePath:      "learncoach.db",
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:5174",
		},
		MediaDir: "media",
	}
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("Failed to parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	applyEnv(cfg, log)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("Invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode, log)
	cfg.Port = getEnv("PORT", cfg.Port, log)
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.AccessTokenTTL = getEnvAsInt("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL, log)
	cfg.RefreshTokenTTL = getEnvAsInt("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL, log)
	cfg.PostgresHost = getEnv("POSTGRES_HOST", cfg.PostgresHost, log)
	cfg.PostgresPort = getEnv("POSTGRES_PORT", cfg.PostgresPort, log)
	cfg.PostgresUser = getEnv("POSTGRES_USER", cfg.PostgresUser, log)
	cfg.PostgresPassword = getEnv("POSTGRES_PASSWORD", cfg.PostgresPassword, log)
	cfg.PostgresName = getEnv("POSTGRES_NAME", cfg.PostgresName, log)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath, log)
	cfg.MediaDir = getEnv("MEDIA_DIR", cfg.MediaDir, log)
	cfg.AvatarFontPath = getEnv("AVATAR_FONT", cfg.AvatarFontPath, log)
	if origins := getEnv("CORS_ORIGINS", "", nil); origins != "" {
		parts := strings.Split(origins, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			cfg.CORSOrigins = cleaned
		}
	}
}

func getEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "env_var", key)
	}
	return val
}

func getEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", key, "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}
