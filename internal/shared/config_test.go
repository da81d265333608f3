package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./chordsync.db" {
			t.Errorf("expected database path ./chordsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Store.Backend != BackendSQLite {
			t.Errorf("expected sqlite backend, got %s", config.Store.Backend)
		}

		if config.Live.SessionID != "current" {
			t.Errorf("expected live session id current, got %s", config.Live.SessionID)
		}

		if config.Inbox.MaxAttempts != 5 {
			t.Errorf("expected inbox max attempts 5, got %d", config.Inbox.MaxAttempts)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[app]
id = "worship-team"

[store]
backend = "firestore"

[firestore]
project_id = "lyrics-prod"
emulator_host = "localhost:8081"

[live]
admin_email = "leader@example.com"

[inbox]
max_attempts = 0
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.App.ID != "worship-team" {
			t.Errorf("expected app id worship-team, got %s", config.App.ID)
		}

		if config.Firestore.EmulatorHost != "localhost:8081" {
			t.Errorf("expected emulator host localhost:8081, got %s", config.Firestore.EmulatorHost)
		}

		if config.Live.AdminEmail != "leader@example.com" {
			t.Errorf("expected admin email leader@example.com, got %s", config.Live.AdminEmail)
		}

		if config.Inbox.MaxAttempts != 0 {
			t.Errorf("expected max attempts 0, got %d", config.Inbox.MaxAttempts)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port to keep default 3000, got %d", config.Server.Port)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name    string
			mutate  func(*Config)
			wantErr error
		}{
			{name: "missing app id", mutate: func(c *Config) { c.App.ID = "" }, wantErr: ErrInvalidConfig},
			{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: ErrUnknownBackend},
			{
				name: "firestore without project",
				mutate: func(c *Config) {
					c.Store.Backend = BackendFirestore
					c.Firestore.ProjectID = ""
				},
				wantErr: ErrInvalidConfig,
			},
			{name: "negative attempts", mutate: func(c *Config) { c.Inbox.MaxAttempts = -1 }, wantErr: ErrInvalidConfig},
			{name: "memory backend", mutate: func(c *Config) { c.Store.Backend = BackendMemory }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				err := config.Validate()
				if tc.wantErr == nil && err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			})
		}
	})
}
