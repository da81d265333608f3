package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App       AppConfig       `toml:"app"`
	Store     StoreConfig     `toml:"store"`
	Database  DatabaseConfig  `toml:"database"`
	Firestore FirestoreConfig `toml:"firestore"`
	Redis     RedisConfig     `toml:"redis"`
	Live      LiveConfig      `toml:"live"`
	Inbox     InboxConfig     `toml:"inbox"`
	Server    ServerConfig    `toml:"server"`
	State     StateConfig     `toml:"state"`
}

// AppConfig holds the namespace every storage path is rooted under.
type AppConfig struct {
	ID string `toml:"id"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Backend string `toml:"backend"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// FirestoreConfig contains hosted document database settings.
//
// AccessToken takes precedence over CredentialsFile when both are set.
type FirestoreConfig struct {
	ProjectID       string `toml:"project_id"`
	CredentialsFile string `toml:"credentials_file"`
	AccessToken     string `toml:"access_token"`
	EmulatorHost    string `toml:"emulator_host"`
}

// RedisConfig enables cross-process change notifications for the sqlite backend.
type RedisConfig struct {
	URL     string `toml:"url"`
	Channel string `toml:"channel"`
}

// LiveConfig contains live session settings.
type LiveConfig struct {
	AdminEmail string `toml:"admin_email"`
	SessionID  string `toml:"session_id"`
}

// InboxConfig controls retry behavior of the share inbox.
//
// MaxAttempts of zero retries failed messages forever.
type InboxConfig struct {
	MaxAttempts int     `toml:"max_attempts"`
	RateLimit   float64 `toml:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StateConfig contains local, per-machine state locations.
type StateConfig struct {
	PrefsPath string `toml:"prefs_path"`
}

// Backend names accepted by [StoreConfig].
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if c.App.ID == "" {
		return fmt.Errorf("%w: app.id is required", ErrInvalidConfig)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("%w: firestore.project_id is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	if c.Inbox.MaxAttempts < 0 {
		return fmt.Errorf("%w: inbox.max_attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
