// Package config загружает конфигурацию сервиса из файла, флагов и переменных окружения.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddress = ":8080"
	defaultAgentEndpoint = "http://localhost:5000/create_agent"
	defaultRegion        = "US"
	defaultSessionSecret = "change-me-session-secret" // В production задается через SESSION_SECRET
	defaultSessionTTL    = 24 * time.Hour
	defaultTLSCertFile   = "server.crt"
	defaultTLSKeyFile    = "server.key"
)

// Config хранит конфигурацию приложения.
type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS"`    // Адрес для запуска HTTP-сервера
	AgentEndpoint   string        `env:"AGENT_ENDPOINT"`    // Адрес сервиса создания агентов
	DefaultRegion   string        `env:"DEFAULT_REGION"`    // Регион для разбора номеров без кода страны
	FileStoragePath string        `env:"FILE_STORAGE_PATH"` // Файл истории созданных агентов
	DatabaseDSN     string        `env:"DATABASE_DSN"`      // Строка подключения к PostgreSQL
	RedisAddress    string        `env:"REDIS_ADDRESS"`     // Адрес Redis для хранения форм
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"`
	SessionSecret   string        `env:"SESSION_SECRET"` // Ключ подписи cookie сессии
	SessionTTL      time.Duration `env:"SESSION_TTL"`    // Время жизни сессии и формы
	EnableHTTPS     bool          `env:"ENABLE_HTTPS"`
	TLSCertFile     string        `env:"TLS_CERT_FILE"`
	TLSKeyFile      string        `env:"TLS_KEY_FILE"`
	ConfigFile      string        `env:"CONFIG"` // JSON или YAML файл конфигурации
}

// FileConfig значения из файла конфигурации. nil означает "не задано".
type FileConfig struct {
	ServerAddress   *string `json:"server_address" yaml:"server_address"`
	AgentEndpoint   *string `json:"agent_endpoint" yaml:"agent_endpoint"`
	DefaultRegion   *string `json:"default_region" yaml:"default_region"`
	FileStoragePath *string `json:"file_storage_path" yaml:"file_storage_path"`
	DatabaseDSN     *string `json:"database_dsn" yaml:"database_dsn"`
	RedisAddress    *string `json:"redis_address" yaml:"redis_address"`
	RedisPassword   *string `json:"redis_password" yaml:"redis_password"`
	RedisDB         *int    `json:"redis_db" yaml:"redis_db"`
	SessionSecret   *string `json:"session_secret" yaml:"session_secret"`
	SessionTTL      *string `json:"session_ttl" yaml:"session_ttl"`
	EnableHTTPS     *bool   `json:"enable_https" yaml:"enable_https"`
	TLSCertFile     *string `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile      *string `json:"tls_key_file" yaml:"tls_key_file"`
}

// NewConfig инициализирует конфигурацию из аргументов командной строки процесса
func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load инициализирует конфигурацию.
// Приоритет: значения по умолчанию < файл < флаги < переменные окружения.
func Load(args []string) (*Config, error) {
	cfg := defaultConfig()

	// 1. Определение флагов командной строки
	fs := flag.NewFlagSet("supportgen", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Адрес запуска HTTP-сервера (env: SERVER_ADDRESS)")
	fs.StringVar(&cfg.AgentEndpoint, "e", cfg.AgentEndpoint, "Адрес сервиса создания агентов (env: AGENT_ENDPOINT)")
	fs.StringVar(&cfg.DefaultRegion, "r", cfg.DefaultRegion, "Регион по умолчанию для номеров (env: DEFAULT_REGION)")
	fs.StringVar(&cfg.FileStoragePath, "f", cfg.FileStoragePath, "Файл истории агентов (env: FILE_STORAGE_PATH)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Строка подключения к PostgreSQL (env: DATABASE_DSN)")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Адрес Redis (env: REDIS_ADDRESS)")
	fs.DurationVar(&cfg.SessionTTL, "ttl", cfg.SessionTTL, "Время жизни сессии (env: SESSION_TTL)")
	fs.BoolVar(&cfg.EnableHTTPS, "s", cfg.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")
	fs.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "Файл конфигурации JSON/YAML (env: CONFIG)")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Файл конфигурации JSON/YAML (env: CONFIG)")

	// 2. Парсинг флагов командной строки
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	// 3. Файл конфигурации применяется только к полям, не заданным флагами
	configFile := cfg.ConfigFile
	if v, ok := os.LookupEnv("CONFIG"); ok {
		configFile = v
	}
	if configFile != "" {
		fileCfg, err := loadFileConfig(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFileConfig(fileCfg, setFlags); err != nil {
			return nil, err
		}
	}

	// 4. Парсинг переменных окружения (имеет наивысший приоритет)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress: defaultServerAddress,
		AgentEndpoint: defaultAgentEndpoint,
		DefaultRegion: defaultRegion,
		SessionSecret: defaultSessionSecret,
		SessionTTL:    defaultSessionTTL,
		TLSCertFile:   defaultTLSCertFile,
		TLSKeyFile:    defaultTLSKeyFile,
	}
}

// IsHTTPSEnabled проверяет, включен ли HTTPS
func (c *Config) IsHTTPSEnabled() bool {
	return c.EnableHTTPS
}

// loadFileConfig читает файл конфигурации. Формат определяется по расширению:
// .yaml/.yml -> YAML, иначе JSON.
func loadFileConfig(filename string) (*FileConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	fileCfg := &FileConfig{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("error parsing JSON config: %w", err)
		}
	}

	return fileCfg, nil
}

// applyFileConfig переносит заданные в файле значения, кроме заданных флагами
func (c *Config) applyFileConfig(fc *FileConfig, setFlags map[string]bool) error {
	setString := func(dst *string, src *string, flagName string) {
		if src != nil && !setFlags[flagName] {
			*dst = *src
		}
	}

	setString(&c.ServerAddress, fc.ServerAddress, "a")
	setString(&c.AgentEndpoint, fc.AgentEndpoint, "e")
	setString(&c.DefaultRegion, fc.DefaultRegion, "r")
	setString(&c.FileStoragePath, fc.FileStoragePath, "f")
	setString(&c.DatabaseDSN, fc.DatabaseDSN, "d")
	setString(&c.RedisAddress, fc.RedisAddress, "redis")
	setString(&c.RedisPassword, fc.RedisPassword, "")
	setString(&c.SessionSecret, fc.SessionSecret, "")
	setString(&c.TLSCertFile, fc.TLSCertFile, "")
	setString(&c.TLSKeyFile, fc.TLSKeyFile, "")

	if fc.RedisDB != nil {
		c.RedisDB = *fc.RedisDB
	}
	if fc.EnableHTTPS != nil && !setFlags["s"] {
		c.EnableHTTPS = *fc.EnableHTTPS
	}
	if fc.SessionTTL != nil && !setFlags["ttl"] {
		ttl, err := time.ParseDuration(*fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl %q: %w", *fc.SessionTTL, err)
		}
		c.SessionTTL = ttl
	}

	return nil
}
