package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backup_paths:
  - source: /home/user/docs
    destination: Backups/docs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.CredentialsFile != "credentials.json" {
		t.Errorf("CredentialsFile = %q, want credentials.json", cfg.CredentialsFile)
	}
	if cfg.TokenFile != "token.json" {
		t.Errorf("TokenFile = %q, want token.json", cfg.TokenFile)
	}
	if cfg.TokenStore != "file" {
		t.Errorf("TokenStore = %q, want file", cfg.TokenStore)
	}
	if cfg.LogFile != "logs/app.log" {
		t.Errorf("LogFile = %q, want logs/app.log", cfg.LogFile)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelayMs != 1000 {
		t.Errorf("RetryDelayMs = %d, want 1000", cfg.RetryDelayMs)
	}
}

func TestLoadParsesMappings(t *testing.T) {
	path := writeConfig(t, `
backup_paths:
  - source: /home/user/docs
    destination: Backups/docs
  - source: /home/user/notes.txt
    destination: Backups
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	mappings := cfg.Mappings()
	if len(mappings) != 2 {
		t.Fatalf("mappings = %d, want 2", len(mappings))
	}
	if mappings[0].Source != "/home/user/docs" || mappings[0].Destination != "Backups/docs" {
		t.Errorf("unexpected first mapping: %+v", mappings[0])
	}
	if mappings[1].Source != "/home/user/notes.txt" || mappings[1].Destination != "Backups" {
		t.Errorf("unexpected second mapping: %+v", mappings[1])
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
backup_paths:
  - source: /data
    destination: Backups
credentials_file: from-config.json
token_file: from-config-token.json
`)

	t.Setenv("GOOGLE_CREDENTIALS_FILE", "/etc/drive/creds.json")
	t.Setenv("GOOGLE_TOKEN_FILE", "/etc/drive/token.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.CredentialsFile != "/etc/drive/creds.json" {
		t.Errorf("CredentialsFile = %q, want env override", cfg.CredentialsFile)
	}
	if cfg.TokenFile != "/etc/drive/token.json" {
		t.Errorf("TokenFile = %q, want env override", cfg.TokenFile)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		BackupPaths:  []MappingConfig{{Source: "/a", Destination: "b"}},
		TokenStore:   "file",
		MaxRetries:   3,
		RetryDelayMs: 1000,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"keyring store", func(c *Config) { c.TokenStore = "keyring" }, false},
		{"no mappings", func(c *Config) { c.BackupPaths = nil }, true},
		{"empty source", func(c *Config) { c.BackupPaths[0].Source = "" }, true},
		{"empty destination", func(c *Config) { c.BackupPaths[0].Destination = "" }, true},
		{"unknown token store", func(c *Config) { c.TokenStore = "vault" }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"zero retry delay", func(c *Config) { c.RetryDelayMs = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.BackupPaths = []MappingConfig{valid.BackupPaths[0]}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
