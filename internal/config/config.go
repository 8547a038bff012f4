package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORE_DRIVER.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string        `env:"PORT" envDefault:"3003"`
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	UsersFile   string        `env:"USERS_FILE" envDefault:"data/users.json"`
	StoreDriver string        `env:"STORE_DRIVER" envDefault:"file"`
	MySQLDSN    string        `env:"MYSQL_DSN"`
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	RedisPass   string        `env:"REDIS_PASSWORD"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"json"`
	SwaggerHost string        `env:"SWAGGER_HOST"`
}

// Load reads an optional .env file from the working directory, then builds
// Config from the environment. Variables already set win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an error.
func LoadFrom(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express. The JWT secret is checked
// by auth.LoadSecret, which owns its normalization.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreFile, StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required when STORE_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (use file, memory or mysql)", c.StoreDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive (got %s)", c.TokenTTL)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
