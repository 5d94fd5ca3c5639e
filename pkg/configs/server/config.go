package server

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the igsd daemon.
type ServerConfig struct {
	// ServerPort the API listens on.
	ServerPort string `yaml:"port"`

	// DBURI selects the tract store: a SQLite file path,
	// or a postgres:// URI.
	DBURI string `yaml:"database"`

	// LogLevel: debug, info, warn, error or off.
	LogLevel string `yaml:"logLevel"`

	// CORSOrigins allowed on the API. Empty allows any origin.
	CORSOrigins []string `yaml:"corsOrigins"`

	// AuthSecret signs admin API tokens. Admin endpoints are
	// disabled when empty.
	AuthSecret string `yaml:"authSecret"`

	// BackupDir receives database snapshots.
	BackupDir string `yaml:"backupDir"`
}

func LoadServerConfig(filepath string) (*ServerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*ServerConfig, error) {
	out := ServerConfig{
		ServerPort: "8080",
		DBURI:      "./data/igs.db",
		LogLevel:   "info",
		BackupDir:  "./backups",
	}
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
