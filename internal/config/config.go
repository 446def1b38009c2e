package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Google      GoogleConfig              `json:"google"`
	Store       StoreConfig               `json:"store"`
	Redis       RedisConfig               `json:"redis"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Worker      WorkerConfig              `json:"worker"`
}

type BasicConfig struct {
	ServerAddress            string   `json:"server_address"`
	UploadDir                string   `json:"upload_dir"`
	MaxUploadMB              int64    `json:"max_upload_mb"`
	TempFileTTL              int      `json:"temp_file_ttl_minutes"`
	TempCleanInterval        int      `json:"temp_clean_interval_minutes"`
	AllowedOrigins           []string `json:"allowed_origins"`
	APIKey                   string   `json:"api_key"`
	StructuringProvider      string   `json:"structuring_provider"`
	RemoteCallTimeoutSeconds int      `json:"remote_call_timeout_seconds"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type GoogleConfig struct {
	CredentialsFile string `json:"credentials_file"`
	TemplateName    string `json:"template_name"`
	CopyName        string `json:"copy_name"`
}

type StoreConfig struct {
	Driver     string `json:"driver"`
	JobTTL     int    `json:"job_ttl_minutes"`
	CleanEvery int    `json:"clean_interval_minutes"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type WorkerConfig struct {
	QueueSize          int `json:"queue_size"`
	IdleTimeoutSeconds int `json:"idle_timeout_seconds"`
}

const (
	DefaultServerAddress = ":5000"
	DefaultUploadDir     = "./uploads"
	DefaultMaxUploadMB   = 20
	DefaultProvider      = "gemini"
	DefaultGeminiModel   = "gemini-1.5-pro"
	DefaultStoreDriver   = "memory"
	DefaultJobTTLMinutes = 60
	DefaultOrigin        = "http://localhost:3000"
)

// Load reads configuration from the provided path (defaults to config.json).
// A missing file is tolerated; environment variables (optionally from .env)
// fill in and override values.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = "config.json"
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	resolvePaths(&cfg, filepath.Dir(absPath))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PDF2SLIDES_ADDR")); v != "" {
		cfg.BasicConfig.ServerAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("PDF2SLIDES_API_KEY")); v != "" {
		cfg.BasicConfig.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); v != "" {
		cfg.Google.CredentialsFile = v
	}
	if v := strings.TrimSpace(os.Getenv("PDF2SLIDES_STORE")); v != "" {
		cfg.Store.Driver = v
	}
	envKeys := map[string]string{
		"gemini": "GEMINI_API_KEY",
		"openai": "OPENAI_API_KEY",
		"claude": "ANTHROPIC_API_KEY",
	}
	for provider, env := range envKeys {
		key := strings.TrimSpace(os.Getenv(env))
		if key == "" {
			continue
		}
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]ProviderConfig)
		}
		p := cfg.Providers[provider]
		p.APIKey = key
		cfg.Providers[provider] = p
	}
}

func applyDefaults(cfg *Config) {
	b := &cfg.BasicConfig
	if b.ServerAddress == "" {
		b.ServerAddress = DefaultServerAddress
	}
	if b.UploadDir == "" {
		b.UploadDir = DefaultUploadDir
	}
	if b.MaxUploadMB <= 0 {
		b.MaxUploadMB = DefaultMaxUploadMB
	}
	if b.TempFileTTL <= 0 {
		b.TempFileTTL = 60
	}
	if b.TempCleanInterval <= 0 {
		b.TempCleanInterval = 15
	}
	if len(b.AllowedOrigins) == 0 {
		b.AllowedOrigins = []string{DefaultOrigin}
	}
	if b.StructuringProvider == "" {
		b.StructuringProvider = DefaultProvider
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if p, ok := cfg.Providers["gemini"]; ok && p.Model == "" {
		p.Model = DefaultGeminiModel
		cfg.Providers["gemini"] = p
	}
	if cfg.Google.TemplateName == "" {
		cfg.Google.TemplateName = "Uploaded Template"
	}
	if cfg.Google.CopyName == "" {
		cfg.Google.CopyName = "Generated PPT"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DefaultStoreDriver
	}
	if cfg.Store.JobTTL <= 0 {
		cfg.Store.JobTTL = DefaultJobTTLMinutes
	}
	if cfg.Store.CleanEvery <= 0 {
		cfg.Store.CleanEvery = 10
	}
	if cfg.Worker.QueueSize <= 0 {
		cfg.Worker.QueueSize = 32
	}
	if cfg.Worker.IdleTimeoutSeconds <= 0 {
		cfg.Worker.IdleTimeoutSeconds = 60
	}
}

func resolvePaths(cfg *Config, base string) {
	if cfg.Google.CredentialsFile != "" && !filepath.IsAbs(cfg.Google.CredentialsFile) {
		cfg.Google.CredentialsFile = filepath.Join(base, cfg.Google.CredentialsFile)
	}
	if !filepath.IsAbs(cfg.BasicConfig.UploadDir) {
		cfg.BasicConfig.UploadDir = filepath.Join(base, cfg.BasicConfig.UploadDir)
	}
	if db, ok := cfg.Databases["sqlite3"]; ok && db.DSN != "" && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) {
		db.DSN = filepath.Join(base, db.DSN)
		cfg.Databases["sqlite3"] = db
	}
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	provider := c.BasicConfig.StructuringProvider
	p, ok := c.Providers[provider]
	if !ok {
		return fmt.Errorf("provider %s not configured", provider)
	}
	if p.APIKey == "" {
		return fmt.Errorf("api_key for provider %s must be configured", provider)
	}
	// gemini falls back to DefaultGeminiModel
	if provider != DefaultProvider && strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("model for provider %s must be configured", provider)
	}
	if c.Google.CredentialsFile == "" {
		return errors.New("google.credentials_file must be configured")
	}
	switch driver := NormalizeDriver(c.Store.Driver); driver {
	case "memory", "redis":
	case "sqlite3", "mysql":
		if _, ok := c.Databases[driver]; !ok {
			return fmt.Errorf("database config for %s not found", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	return nil
}

// NormalizeDriver maps store and database driver aliases to database/sql driver names.
func NormalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "sqlite" {
		return "sqlite3"
	}
	return d
}

// MaxUploadBytes converts the configured limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.BasicConfig.MaxUploadMB << 20
}
