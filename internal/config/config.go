// ABOUTME: Centralized configuration for t3nets commands
// ABOUTME: Defaults, optional YAML file and T3NETS_* environment overrides via viper, with validation
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. T3NETS_SERVER_PORT
const EnvPrefix = "T3NETS"

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Config holds all configuration for t3nets
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Routing RoutingConfig `mapstructure:"routing"`
	Storage StorageConfig `mapstructure:"storage"`
	Tenant  TenantConfig  `mapstructure:"tenant"`
	Skills  SkillsConfig  `mapstructure:"skills"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP and WebSocket server
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OpenAIConfig configures the model client
type OpenAIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	ChatModel  string        `mapstructure:"chat_model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// RoutingConfig configures the rule matcher
type RoutingConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// CharmConfig configures the charm KV backend
type CharmConfig struct {
	Host     string `mapstructure:"host"`
	DBName   string `mapstructure:"db_name"`
	AutoSync bool   `mapstructure:"auto_sync"`
	// SyncSchedule is a cron spec for background sync while serving; empty disables it
	SyncSchedule string `mapstructure:"sync_schedule"`
}

// StorageConfig selects and configures the history backend
type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	DataDir string      `mapstructure:"data_dir"`
	DBPath  string      `mapstructure:"db_path"`
	Charm   CharmConfig `mapstructure:"charm"`
}

// SQLitePath returns the database path, defaulting to t3nets.db in the data directory
func (s StorageConfig) SQLitePath() string {
	if s.DBPath != "" {
		return s.DBPath
	}
	return filepath.Join(s.DataDir, "t3nets.db")
}

// TenantConfig describes the tenant seeded on startup
type TenantConfig struct {
	DefaultID string `mapstructure:"default_id"`
	Name      string `mapstructure:"name"`
	// MaxHistory is the number of turns replayed to the model
	MaxHistory int `mapstructure:"max_history"`
	// EnabledSkills empty means every loaded skill
	EnabledSkills []string `mapstructure:"enabled_skills"`
	Model         string   `mapstructure:"model"`
}

// SkillsConfig locates on-disk skills
type SkillsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SecretsConfig selects secrets providers
type SecretsConfig struct {
	EnvFile    string `mapstructure:"env_file"`
	UseKeyring bool   `mapstructure:"use_keyring"`
}

// LoggingConfig configures the log file
type LoggingConfig struct {
	File string `mapstructure:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, "t3nets")
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			ChatModel:  "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Routing: RoutingConfig{Threshold: 0.5},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DataDir: dataDir,
			Charm: CharmConfig{
				Host:     "charm.2389.dev",
				DBName:   "t3nets",
				AutoSync: true,
			},
		},
		Tenant: TenantConfig{
			DefaultID:  "local",
			Name:       "Local Development",
			MaxHistory: 20,
		},
		Skills: SkillsConfig{Dir: filepath.Join(xdg.ConfigHome, "t3nets", "skills")},
		Secrets: SecretsConfig{
			EnvFile:    ".env",
			UseKeyring: false,
		},
	}
}

// Load reads configuration. An empty configFile searches ./t3nets.yaml and
// $XDG_CONFIG_HOME/t3nets/config.yaml; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by OpenAI tooling
	_ = v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", EnvPrefix+"_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("storage.charm.host", EnvPrefix+"_STORAGE_CHARM_HOST", "CHARM_HOST")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("t3nets")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "t3nets"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Routing.Threshold < 0 || c.Routing.Threshold > 1 {
		return fmt.Errorf("routing.threshold must be 0-1, got %f", c.Routing.Threshold)
	}
	if c.OpenAI.MaxRetries < 0 || c.OpenAI.MaxRetries > 10 {
		return fmt.Errorf("openai.max_retries must be 0-10, got %d", c.OpenAI.MaxRetries)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Tenant.MaxHistory < 1 {
		return fmt.Errorf("tenant.max_history must be positive, got %d", c.Tenant.MaxHistory)
	}
	if strings.TrimSpace(c.Tenant.DefaultID) == "" {
		return errors.New("tenant.default_id cannot be empty")
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("storage.backend must be %s or %s, got %q", BackendSQLite, BackendCharm, c.Storage.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.chat_model", d.OpenAI.ChatModel)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)
	v.SetDefault("openai.max_retries", d.OpenAI.MaxRetries)
	v.SetDefault("openai.retry_delay", d.OpenAI.RetryDelay)
	v.SetDefault("routing.threshold", d.Routing.Threshold)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.charm.host", d.Storage.Charm.Host)
	v.SetDefault("storage.charm.db_name", d.Storage.Charm.DBName)
	v.SetDefault("storage.charm.auto_sync", d.Storage.Charm.AutoSync)
	v.SetDefault("storage.charm.sync_schedule", d.Storage.Charm.SyncSchedule)
	v.SetDefault("tenant.default_id", d.Tenant.DefaultID)
	v.SetDefault("tenant.name", d.Tenant.Name)
	v.SetDefault("tenant.max_history", d.Tenant.MaxHistory)
	v.SetDefault("tenant.enabled_skills", d.Tenant.EnabledSkills)
	v.SetDefault("tenant.model", d.Tenant.Model)
	v.SetDefault("skills.dir", d.Skills.Dir)
	v.SetDefault("secrets.env_file", d.Secrets.EnvFile)
	v.SetDefault("secrets.use_keyring", d.Secrets.UseKeyring)
	v.SetDefault("logging.file", d.Logging.File)
}
