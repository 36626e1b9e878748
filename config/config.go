package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	LogLevel string         `mapstructure:"log_level"`
}

// APIConfig configures the HTTP record fetcher.
type APIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	UsersCollection string `mapstructure:"users_collection"`
	TimeoutMs       int    `mapstructure:"timeout_ms"`
}

// DatabaseConfig configures the SQL-backed record fetcher.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	PoolSize        int    `mapstructure:"pool_size"`
	Path            string `mapstructure:"path"` // directory for SQLite database files
	UsersCollection string `mapstructure:"users_collection"`
	UsersTable      string `mapstructure:"users_table"` // table backing the users collection alias
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func Load() (*Config, error) {
	viper.SetConfigName("deepview")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("api.users_collection", "users")
	viper.SetDefault("api.timeout_ms", 10000)
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.pool_size", 10)
	viper.SetDefault("database.path", "./data")
	viper.SetDefault("database.users_collection", "users")
	viper.SetDefault("database.users_table", "app_users")
	viper.SetDefault("log_level", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine for a library consumer; only a
		// malformed one is an error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
