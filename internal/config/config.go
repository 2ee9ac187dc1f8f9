package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mantonx/cinecache/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Project  ProjectConfig  `yaml:"project" json:"project"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Security SecurityConfig `yaml:"security" json:"security"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Sync     SyncConfig     `yaml:"sync" json:"sync"`
	Modules  ModulesConfig  `yaml:"modules" json:"modules"`
}

// ProjectConfig describes the running service
type ProjectConfig struct {
	Name        string `yaml:"name" json:"name" env:"PROJECT_NAME"`
	Version     string `yaml:"version" json:"version" env:"CINECACHE_VERSION"`
	Environment string `yaml:"environment" json:"environment" env:"ENVIRONMENT"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host" env:"CINECACHE_HOST"`
	Port           int           `yaml:"port" json:"port" env:"CINECACHE_PORT"`
	APIPrefix      string        `yaml:"api_prefix" json:"api_prefix" env:"API_V1_STR"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" env:"CINECACHE_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" env:"CINECACHE_WRITE_TIMEOUT"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"CINECACHE_MAX_HEADER_BYTES"`
	CORSOrigins    []string      `yaml:"cors_origins" json:"cors_origins" env:"BACKEND_CORS_ORIGINS"`
	EnableMetrics  bool          `yaml:"enable_metrics" json:"enable_metrics" env:"CINECACHE_ENABLE_METRICS"`
}

// DatabaseConfig holds store connection settings
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE"`
	URL             string        `yaml:"url" json:"url" env:"DATABASE_URL"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_SERVER"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER"`
	Password        string        `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"POSTGRES_DB"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" env:"POSTGRES_SSLMODE"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"CINECACHE_DATA_DIR"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" env:"SQLITE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"CINECACHE_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"CINECACHE_LOG_FORMAT"`
	Output string `yaml:"output" json:"output" env:"CINECACHE_LOG_OUTPUT"`
}

// SecurityConfig holds token signing settings
type SecurityConfig struct {
	SecretKey         string        `yaml:"secret_key" json:"-" env:"SECRET_KEY"`
	Algorithm         string        `yaml:"algorithm" json:"algorithm" env:"JWT_ALGORITHM"`
	AccessTokenExpire time.Duration `yaml:"access_token_expire" json:"access_token_expire" env:"ACCESS_TOKEN_EXPIRE"`
	BcryptCost        int           `yaml:"bcrypt_cost" json:"bcrypt_cost" env:"BCRYPT_COST"`

	// Seeded on startup when no account with this username exists
	FirstSuperuser         string `yaml:"first_superuser" json:"first_superuser" env:"FIRST_SUPERUSER"`
	FirstSuperuserEmail    string `yaml:"first_superuser_email" json:"first_superuser_email" env:"FIRST_SUPERUSER_EMAIL"`
	FirstSuperuserPassword string `yaml:"first_superuser_password" json:"-" env:"FIRST_SUPERUSER_PASSWORD"`
}

// CatalogConfig configures the upstream catalog client
type CatalogConfig struct {
	APIKey            string        `yaml:"api_key" json:"-" env:"TMDB_API_KEY"`
	BaseURL           string        `yaml:"base_url" json:"base_url" env:"TMDB_API_BASE_URL"`
	ImageBaseURL      string        `yaml:"image_base_url" json:"image_base_url" env:"TMDB_IMAGE_BASE_URL"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent" env:"TMDB_USER_AGENT"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout" env:"TMDB_REQUEST_TIMEOUT"`
	CacheEnabled      bool          `yaml:"cache_enabled" json:"cache_enabled" env:"CACHE_ENABLED"`
	CacheTTL          time.Duration `yaml:"cache_ttl" json:"cache_ttl" env:"CACHE_TTL"`
	CacheMaxEntries   int           `yaml:"cache_max_entries" json:"cache_max_entries" env:"CACHE_MAX_ENTRIES"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second" env:"TMDB_REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" json:"burst" env:"TMDB_BURST"`
	BreakerFailures   int           `yaml:"breaker_failures" json:"breaker_failures" env:"TMDB_BREAKER_FAILURES"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout" json:"breaker_timeout" env:"TMDB_BREAKER_TIMEOUT"`
}

// SyncConfig sizes the background sync worker pool
type SyncConfig struct {
	Workers   int `yaml:"workers" json:"workers" env:"SYNC_WORKERS"`
	QueueSize int `yaml:"queue_size" json:"queue_size" env:"SYNC_QUEUE_SIZE"`
	// JobHistory bounds how many background jobs stay queryable
	JobHistory int `yaml:"job_history" json:"job_history" env:"SYNC_JOB_HISTORY"`
}

// ModulesConfig lists modules switched off at startup
type ModulesConfig struct {
	Disabled []string `yaml:"disabled" json:"disabled" env:"CINECACHE_DISABLED_MODULES"`
}

// ConfigManager manages configuration loading and watchers
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called after a successful (re)load
type ConfigWatcher func(oldConfig, newConfig *Config)

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a manager holding the default configuration
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:        "TMDB API",
			Version:     "0.1.0",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			APIPrefix:      "/api",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxHeaderBytes: 1 << 20,
			CORSOrigins:    []string{},
			EnableMetrics:  true,
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			Host:            "localhost",
			Port:            5432,
			Username:        "postgres",
			Database:        "tmdb",
			SSLMode:         "disable",
			DataDir:         "./data",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Security: SecurityConfig{
			Algorithm:         "HS256",
			AccessTokenExpire: 8 * 24 * time.Hour,
			BcryptCost:        10,
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			UserAgent:         "cinecache/0.1.0",
			RequestTimeout:    10 * time.Second,
			CacheEnabled:      true,
			CacheTTL:          60 * time.Minute,
			CacheMaxEntries:   5000,
			RequestsPerSecond: 40,
			Burst:             10,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
		},
		Sync: SyncConfig{
			Workers:    1,
			QueueSize:  8,
			JobHistory: 256,
		},
	}
}

// LoadConfig loads configuration from file (if present) and environment
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	oldConfig := *cm.config
	cm.configPath = configPath

	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			cm.mu.Unlock()
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)
	cm.config = newConfig
	watchers := append([]ConfigWatcher(nil), cm.watchers...)
	cm.mu.Unlock()

	for _, watcher := range watchers {
		watcher(&oldConfig, newConfig)
	}

	logger.Debug("configuration loaded", "path", configPath)
	return nil
}

// Reload re-reads the last loaded path
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()
	return cm.LoadConfig(path)
}

// Path returns the file the configuration was loaded from
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// AddWatcher registers a callback for configuration changes
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// loadStructFromEnv overrides fields whose env tag names a set variable
func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue, ok := os.LookupEnv(envTag)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		values := strings.Split(value, ",")
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		field.Set(reflect.ValueOf(out))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Security.Algorithm != "HS256" {
		return fmt.Errorf("unsupported token algorithm: %s", config.Security.Algorithm)
	}

	if config.Catalog.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", config.Catalog.CacheTTL)
	}

	if config.Catalog.CacheMaxEntries < 1 {
		return fmt.Errorf("invalid cache max entries: %d", config.Catalog.CacheMaxEntries)
	}

	if config.Sync.Workers < 1 {
		return fmt.Errorf("invalid sync worker count: %d", config.Sync.Workers)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "cinecache.db")
	}

	if !strings.HasPrefix(config.Server.APIPrefix, "/") {
		config.Server.APIPrefix = "/" + config.Server.APIPrefix
	}
	config.Server.APIPrefix = strings.TrimRight(config.Server.APIPrefix, "/")

	config.Catalog.BaseURL = strings.TrimRight(config.Catalog.BaseURL, "/")
	config.Catalog.ImageBaseURL = strings.TrimRight(config.Catalog.ImageBaseURL, "/")

	if config.Sync.QueueSize < config.Sync.Workers {
		config.Sync.QueueSize = config.Sync.Workers
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Global convenience functions

// Get returns the current global configuration
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher
func AddWatcher(watcher ConfigWatcher) {
	GetConfigManager().AddWatcher(watcher)
}
