package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port          string `yaml:"port" env:"PORT" env-default:"8080"`
	Env           string `yaml:"env" env:"ENV,APP_ENV" env-default:"development"`
	DBAdapter     string `yaml:"db_adapter" env:"DB_ADAPTER" env-default:"sqlite"`
	SQLiteFile    string `yaml:"sqlite_file" env:"SQLITE_FILE" env-default:"./data/pvptracker.db"`
	MigrationsDir string `yaml:"migrations_dir" env:"MIGRATIONS_DIR" env-default:"./migrations"`
	JwtSecret     string `yaml:"jwt_secret" env:"JWT_SECRET"`
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat     string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	CORSOrigin    string `yaml:"cors_allow_origin" env:"CORS_ALLOW_ORIGIN" env-default:"*"`
	// PostgreSQL connection settings
	PostgresDSN      string `yaml:"postgres_dsn" env:"POSTGRES_DSN,DATABASE_URL"`
	PostgresHost     string `yaml:"postgres_host" env:"POSTGRES_HOST,DB_HOST" env-default:"localhost"`
	PostgresPort     string `yaml:"postgres_port" env:"POSTGRES_PORT,DB_PORT" env-default:"5432"`
	PostgresUser     string `yaml:"postgres_user" env:"POSTGRES_USER,DB_USER" env-default:"pvp"`
	PostgresPassword string `yaml:"postgres_password" env:"POSTGRES_PASSWORD,DB_PASSWORD"`
	PostgresDB       string `yaml:"postgres_db" env:"POSTGRES_DB,DB_NAME" env-default:"pvptracker"`
	PostgresSSLMode  string `yaml:"postgres_sslmode" env:"POSTGRES_SSLMODE,DB_SSLMODE" env-default:"disable"`
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}
	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)
	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}
	return dsn, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// New reads the optional YAML file named by CONFIG_PATH, overlays the
// environment and validates the result.
func New() (*Config, error) {
	c := &Config{}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.DBAdapter {
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	case "sqlite":
		if c.SQLiteFile == "" {
			return errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	// Outside production an empty secret is allowed; protected routes then
	// answer with a server configuration error.
	if c.IsProduction() && c.JwtSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT: %s", c.Port)
	}
	return nil
}
