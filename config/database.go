package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     DatabaseType
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string
}

// PostgresConfig holds PostgreSQL specific configuration. URL, when set,
// is used verbatim and the discrete fields are ignored.
type PostgresConfig struct {
	URL      string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	TimeZone string
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypePostgreSQL:
		if c.Postgres.URL != "" {
			return c.Postgres.URL
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Postgres.Host,
			c.Postgres.Username,
			c.Postgres.Password,
			c.Postgres.Database,
			c.Postgres.Port,
			c.Postgres.SSLMode,
			c.Postgres.TimeZone,
		)
	default:
		return c.SQLite.Path
	}
}

// GetDefaultDatabaseConfig returns default database configuration
func GetDefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: GetDBPath(),
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "blog",
			Username: "blog",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
	}
}

// GetDatabaseConfig builds the database configuration from the environment.
// DATABASE_URL wins when present: "postgres://..." selects PostgreSQL,
// "sqlite:///path" or a bare path selects SQLite. Otherwise BLOG_DB_TYPE and
// the BLOG_PG_* variables are consulted.
func GetDatabaseConfig() (*DatabaseConfig, error) {
	c := GetDefaultDatabaseConfig()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		switch {
		case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
			c.Type = DatabaseTypePostgreSQL
			c.Postgres.URL = url
		case strings.HasPrefix(url, "sqlite:///"):
			c.SQLite.Path = strings.TrimPrefix(url, "sqlite:///")
		default:
			c.SQLite.Path = url
		}
		return c, c.ValidateConfig()
	}

	if t := os.Getenv("BLOG_DB_TYPE"); t != "" {
		c.Type = DatabaseType(t)
	}
	if c.Type == DatabaseTypePostgreSQL {
		if v := os.Getenv("BLOG_PG_HOST"); v != "" {
			c.Postgres.Host = v
		}
		if v := os.Getenv("BLOG_PG_PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("BLOG_PG_PORT: %w", err)
			}
			c.Postgres.Port = port
		}
		if v := os.Getenv("BLOG_PG_DATABASE"); v != "" {
			c.Postgres.Database = v
		}
		if v := os.Getenv("BLOG_PG_USER"); v != "" {
			c.Postgres.Username = v
		}
		c.Postgres.Password = os.Getenv("BLOG_PG_PASSWORD")
		if v := os.Getenv("BLOG_PG_SSLMODE"); v != "" {
			c.Postgres.SSLMode = v
		}
	}
	return c, c.ValidateConfig()
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	case DatabaseTypePostgreSQL:
		if c.Postgres.URL != "" {
			return nil
		}
		if c.Postgres.Host == "" {
			return fmt.Errorf("PostgreSQL host cannot be empty")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL database name cannot be empty")
		}
		if c.Postgres.Username == "" {
			return fmt.Errorf("PostgreSQL username cannot be empty")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("PostgreSQL port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// IsPostgreSQL returns true if the database type is PostgreSQL
func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type == DatabaseTypeSQLite && c.SQLite.Path != ":memory:" {
		dir := filepath.Dir(c.SQLite.Path)
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
