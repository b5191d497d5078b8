package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Simulation source kinds.
const (
	SourceFile     = "file"     // seed the world from a spawn snapshot .ltx
	SourceDatabase = "database" // seed the world from the snapshot table
)

// Prefetch holds all configuration for the prefetch service.
type Prefetch struct {
	LogLevel string `yaml:"log_level"`

	// Game data
	Gamedata GamedataConfig `yaml:"gamedata"`

	// Simulation snapshot
	Simulation SimulationConfig `yaml:"simulation"`

	// Model warmup
	Assets AssetsConfig `yaml:"assets"`

	// Database (used when simulation.source is "database")
	Database DatabaseConfig `yaml:"database"`
}

// GamedataConfig points at the section registry sources.
type GamedataConfig struct {
	// Root is a single .ltx file (includes are followed) or a directory
	// scanned recursively for .ltx files.
	Root string `yaml:"root"`
}

// SimulationConfig describes where the live object snapshot comes from.
type SimulationConfig struct {
	Source   string `yaml:"source"`   // "file" or "database"
	Snapshot string `yaml:"snapshot"` // spawn snapshot .ltx when source is "file"
	ActorID  uint16 `yaml:"actor_id"` // object ID of the player
}

// AssetsConfig tunes the model warmup pool.
type AssetsConfig struct {
	ModelRoot    string `yaml:"model_root"`
	ModelExt     string `yaml:"model_ext"`
	Workers      int    `yaml:"workers"`
	QueueSize    int    `yaml:"queue_size"`
	MaxModelSize int64  `yaml:"max_model_size"` // bytes
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultPrefetch returns Prefetch config with sensible defaults.
func DefaultPrefetch() Prefetch {
	return Prefetch{
		LogLevel: "info",
		Gamedata: GamedataConfig{
			Root: "gamedata/configs",
		},
		Simulation: SimulationConfig{
			Source:   SourceFile,
			Snapshot: "gamedata/spawns/all.ltx",
			ActorID:  0,
		},
		Assets: AssetsConfig{
			ModelRoot:    "gamedata/meshes",
			ModelExt:     ".ogf",
			Workers:      4,
			QueueSize:    1024,
			MaxModelSize: 16 << 20,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "xrprefetch",
			Password: "xrprefetch",
			DBName:   "xrprefetch",
			SSLMode:  "disable",
		},
	}
}

// LoadPrefetch loads prefetch config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadPrefetch(path string) (Prefetch, error) {
	cfg := DefaultPrefetch()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
