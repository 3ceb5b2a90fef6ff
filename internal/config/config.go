package config

import (
	"fmt"
	"os"

	"github.com/jinzhu/configor"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
)

// MappingConfig is one source to destination entry in the config file
type MappingConfig struct {
	Source      string `yaml:"source" json:"source" required:"true"`
	Destination string `yaml:"destination" json:"destination" required:"true"`
}

// Config is the agent configuration loaded from the YAML config file
type Config struct {
	BackupPaths []MappingConfig `yaml:"backup_paths" json:"backup_paths"`

	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" default:"credentials.json"`
	TokenFile       string `yaml:"token_file" json:"token_file" default:"token.json"`
	TokenStore      string `yaml:"token_store" json:"token_store" default:"file"`

	LogFile      string `yaml:"log_file" json:"log_file" default:"logs/app.log"`
	MaxRetries   int    `yaml:"max_retries" json:"max_retries" default:"3"`
	RetryDelayMs int    `yaml:"retry_delay_ms" json:"retry_delay_ms" default:"1000"`
}

// Load reads and validates the config file. Environment variables
// GOOGLE_CREDENTIALS_FILE and GOOGLE_TOKEN_FILE override the file
// locations from the config.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := configor.New(&configor.Config{Silent: true}).Load(&cfg, path); err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeConfigInvalid,
			fmt.Sprintf("Cannot load config file: %s", err)).
			WithContext("path", path).
			Build())
	}

	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.CredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded config for structural problems
func (c *Config) Validate() error {
	if len(c.BackupPaths) == 0 {
		return configError("backup_paths must contain at least one mapping")
	}
	for i, m := range c.BackupPaths {
		if m.Source == "" {
			return configError(fmt.Sprintf("backup_paths[%d]: source is required", i))
		}
		if m.Destination == "" {
			return configError(fmt.Sprintf("backup_paths[%d]: destination is required", i))
		}
	}
	switch c.TokenStore {
	case "file", "keyring":
	default:
		return configError(fmt.Sprintf("token_store must be 'file' or 'keyring', got %q", c.TokenStore))
	}
	if c.MaxRetries < 0 {
		return configError("max_retries must not be negative")
	}
	if c.RetryDelayMs <= 0 {
		return configError("retry_delay_ms must be positive")
	}
	return nil
}

// Mappings converts the configured backup paths into engine mappings
func (c *Config) Mappings() []types.BackupMapping {
	mappings := make([]types.BackupMapping, len(c.BackupPaths))
	for i, m := range c.BackupPaths {
		mappings[i] = types.BackupMapping{
			Source:      m.Source,
			Destination: m.Destination,
		}
	}
	return mappings
}

func configError(msg string) error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeConfigInvalid, msg).Build())
}
