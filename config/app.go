package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
)

// AppConfig holds the settings of the HTTP server and the services behind
// it. Values come from APP_CONFIG_FILE (YAML) when set, then from the
// environment, which always wins.
type AppConfig struct {
	Port       string   `yaml:"port"`
	LogLevel   string   `yaml:"log_level"`
	LogOutputs []string `yaml:"log_outputs"`

	DatabasePath string `yaml:"database_path"`

	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
	AdminName     string        `yaml:"admin_name"`

	CORSOrigins []string `yaml:"cors_origins"`

	StorageBackend  string        `yaml:"storage_backend"`
	LocalStorageDir string        `yaml:"local_storage_dir"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	MaxPages        int           `yaml:"max_pages"`
	TempRetention   time.Duration `yaml:"temp_retention"`

	FallbackYear  string `yaml:"fallback_year"`
	DefaultSuffix string `yaml:"default_suffix"`
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Port:            "8000",
		LogLevel:        "info",
		LogOutputs:      []string{"stdout", "logs/app.log"},
		DatabasePath:    "correspondencia.db",
		TokenTTL:        24 * time.Hour,
		AdminUsername:   "admin",
		AdminName:       "Administrador",
		CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		StorageBackend:  StorageLocal,
		LocalStorageDir: "uploads",
		MaxUploadMB:     20,
		MaxPages:        200,
		TempRetention:   24 * time.Hour,
		FallbackYear:    "2026",
		DefaultSuffix:   "MIDIS/FONCODES/UGPE",
	}
}

func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadDotEnv()
		cfg, err := LoadAppConfig(os.Getenv("APP_CONFIG_FILE"), osLookup)
		if err != nil {
			log.Printf("Warning: %v, using environment only", err)
			cfg, _ = LoadAppConfig("", osLookup)
		}
		appConfig = cfg
	})
	return appConfig
}

// LoadAppConfig builds an AppConfig from defaults, the optional YAML file
// at path and env, in that order.
func LoadAppConfig(path string, env Lookup) (*AppConfig, error) {
	cfg := defaultAppConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Port = envString(env, "PORT", cfg.Port)
	cfg.LogLevel = envString(env, "LOG_LEVEL", cfg.LogLevel)
	cfg.LogOutputs = envList(env, "LOG_OUTPUTS", cfg.LogOutputs)
	cfg.DatabasePath = envString(env, "DATABASE_PATH", cfg.DatabasePath)
	cfg.JWTSecret = envString(env, "JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = envDuration(env, "TOKEN_TTL", cfg.TokenTTL)
	cfg.AdminUsername = envString(env, "ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPassword = envString(env, "ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.AdminName = envString(env, "ADMIN_NAME", cfg.AdminName)
	cfg.CORSOrigins = envList(env, "CORS_ORIGINS", cfg.CORSOrigins)
	cfg.StorageBackend = envString(env, "STORAGE_BACKEND", cfg.StorageBackend)
	cfg.LocalStorageDir = envString(env, "UPLOAD_DIR", cfg.LocalStorageDir)
	cfg.MaxUploadMB = envInt(env, "MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.MaxPages = envInt(env, "MAX_PDF_PAGES", cfg.MaxPages)
	cfg.TempRetention = envDuration(env, "TEMP_RETENTION", cfg.TempRetention)
	cfg.FallbackYear = envString(env, "NUMBERING_FALLBACK_YEAR", cfg.FallbackYear)
	cfg.DefaultSuffix = envString(env, "NUMBERING_DEFAULT_SUFFIX", cfg.DefaultSuffix)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	switch c.StorageBackend {
	case StorageLocal, StorageMinio, StorageS3:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
