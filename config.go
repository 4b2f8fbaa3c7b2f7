package migrate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultHistoryTable is the table recording applied migrations.
const DefaultHistoryTable = "schema_migrations"

// Config holds the settings of a migration run.
type Config struct {
	Driver        string     `yaml:"driver"`
	DSN           string     `yaml:"dsn"`
	TablePrefix   string     `yaml:"table_prefix"`
	HistoryTable  string     `yaml:"history_table"`
	Transactional bool       `yaml:"transactional"`
	Lock          LockConfig `yaml:"lock"`
}

// LockConfig selects the lock that keeps concurrent runs apart.
type LockConfig struct {
	// Backend is one of "", "local", "database" or "redis".
	Backend string        `yaml:"backend"`
	Key     string        `yaml:"key"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the connection settings of the redis lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DefaultConfig returns the settings used for fields a config file omits.
func DefaultConfig() Config {
	return Config{
		HistoryTable:  DefaultHistoryTable,
		Transactional: true,
		Lock: LockConfig{
			Key: "migrate",
			TTL: 5 * time.Minute,
		},
	}
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.HistoryTable == "" {
		cfg.HistoryTable = DefaultHistoryTable
	}
	return &cfg, nil
}
