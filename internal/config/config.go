package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// database/sql drivers usable with the postgres backend.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// Config represents the top-level YAML configuration.
type Config struct {
	Backend    string     `yaml:"backend"`
	Driver     string     `yaml:"driver"`
	Connection Connection `yaml:"connection"`
	Schemas    []string   `yaml:"schemas"`
	Bookmarks  string     `yaml:"bookmarks"`
	LogLevel   string     `yaml:"log_level"`
}

// Connection holds database connection parameters. Path is only used by the
// sqlite backend.
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"`
}

// DSN builds a PostgreSQL connection string understood by both pgx and lib/pq.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills in empty fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.LogLevel == "" {
		c.LogLevel = envOr("DBMETA_LOG_LEVEL")
	}

	conn := &c.Connection
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT"); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate checks required fields and fills in defaults.
func (c *Config) validate() error {
	if c.Backend == "" {
		c.Backend = BackendPostgres
	}
	if c.Bookmarks == "" {
		c.Bookmarks = "bookmarks.yaml"
	}

	switch c.Backend {
	case BackendPostgres:
		return c.validatePostgres()
	case BackendSQLite:
		if c.Connection.Path == "" {
			return fmt.Errorf("connection.path is required for the sqlite backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func (c *Config) validatePostgres() error {
	switch c.Driver {
	case "":
		c.Driver = DriverPgx
	case DriverPgx, DriverPq:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.Port == 0 {
		c.Connection.Port = 5432
	}
	if c.Connection.Database == "" {
		return fmt.Errorf("connection.database is required")
	}
	if c.Connection.User == "" {
		return fmt.Errorf("connection.user is required")
	}
	if c.Connection.SSLMode == "" {
		c.Connection.SSLMode = "disable"
	}
	if len(c.Schemas) == 0 {
		c.Schemas = []string{"public"}
	}
	return nil
}
