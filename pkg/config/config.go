// Package config loads service settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"workflow-studio/api/pkg/db"
	"workflow-studio/api/services/workflow"
)

// EnvPrefix prefixes every environment override, e.g. WORKFLOW_HTTP_ADDR.
const EnvPrefix = "WORKFLOW"

// Config is the full service configuration.
type Config struct {
	DatabaseURL string           `mapstructure:"database_url"`
	DB          DBConfig         `mapstructure:"db"`
	HTTP        HTTPConfig       `mapstructure:"http"`
	Log         LogConfig        `mapstructure:"log"`
	Graph       GraphConfig      `mapstructure:"graph"`
	Projection  ProjectionConfig `mapstructure:"projection"`
}

// DBConfig sizes the connection pool and bounds each query.
type DBConfig struct {
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// HTTPConfig controls the listener, CORS origins and graceful shutdown.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the minimum slog level by name.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GraphConfig selects the node categories left out of graph validation.
type GraphConfig struct {
	StructuralCategories []string `mapstructure:"structural_categories"`
}

// ProjectionConfig lists field types that survive UI reconciliation unconditionally.
type ProjectionConfig struct {
	NonFormFieldTypes []string `mapstructure:"non_form_field_types"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		DB: DBConfig{
			MaxConns:        10,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    5 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3003"},
			ShutdownTimeout: 5 * time.Second,
		},
		Log:        LogConfig{Level: "debug"},
		Graph:      GraphConfig{StructuralCategories: workflow.DefaultPolicy().StructuralCategories},
		Projection: ProjectionConfig{NonFormFieldTypes: workflow.DefaultProjectionOptions().NonFormFieldTypes},
	}
}

// SetDefaults registers Defaults on v so environment variables can override every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("db.max_conns", d.DB.MaxConns)
	v.SetDefault("db.conn_max_lifetime", d.DB.ConnMaxLifetime)
	v.SetDefault("db.query_timeout", d.DB.QueryTimeout)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("graph.structural_categories", d.Graph.StructuralCategories)
	v.SetDefault("projection.non_form_field_types", d.Projection.NonFormFieldTypes)
}

// Load reads configuration into a Config. path may be empty, in which case only defaults and
// the environment apply. DATABASE_URL is honoured without the prefix.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind database_url: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is empty")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Settings converts the graph sections into workflow service settings.
func (c Config) Settings() workflow.Settings {
	return workflow.Settings{
		Policy:     workflow.Policy{StructuralCategories: c.Graph.StructuralCategories},
		Projection: workflow.ProjectionOptions{NonFormFieldTypes: c.Projection.NonFormFieldTypes},
	}
}

// PoolConfig converts the database sections into a pool configuration.
func (c Config) PoolConfig() db.Config {
	return db.Config{
		URI:             c.DatabaseURL,
		MaxOpenConns:    c.DB.MaxConns,
		ConnMaxLifetime: c.DB.ConnMaxLifetime,
		QueryTimeout:    c.DB.QueryTimeout,
	}
}
