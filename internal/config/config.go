package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the dashboard configuration, read from config.yaml.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Store     StoreConfig     `yaml:"store"`
	Templates TemplatesConfig `yaml:"templates"`
	Editor    EditorConfig    `yaml:"editor"`
	Revisions RevisionsConfig `yaml:"revisions"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig selects where templates are persisted.
type StoreConfig struct {
	// Driver is sqlite, postgres, mysql or mongodb.
	Driver string `yaml:"driver"`
	// DSN is the connection string; for sqlite empty means <data_dir>/dashboard.db.
	DSN string `yaml:"dsn"`
	// Database names the MongoDB database.
	Database string `yaml:"database"`
}

type TemplatesConfig struct {
	Dir          string `yaml:"dir"`
	RenderersDir string `yaml:"renderers_dir"`
	LayoutFile   string `yaml:"layout_file"`
	Watch        bool   `yaml:"watch"`
}

type EditorConfig struct {
	// HistoryLimit caps undo steps per session; 0 keeps every step.
	HistoryLimit int `yaml:"history_limit"`
	// Autosave is a cron spec; empty disables autosave.
	Autosave string `yaml:"autosave"`
}

type RevisionsConfig struct {
	Keep int `yaml:"keep"`
}

type GraphQLConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// ServerConfig is the preview HTTP server used by `dashboard serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidDrivers lists the supported store drivers.
var ValidDrivers = []string{"sqlite", "postgres", "mysql", "mongodb"}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "dashboard")
	return &Config{
		DataDir: dataDir,
		Store:   StoreConfig{Driver: "sqlite"},
		Templates: TemplatesConfig{
			Dir:          filepath.Join(dataDir, "templates"),
			RenderersDir: filepath.Join(dataDir, "renderers"),
		},
		Editor: EditorConfig{
			Autosave: "@every 1m",
		},
		Revisions: RevisionsConfig{Keep: 40},
		GraphQL:   GraphQLConfig{Timeout: "15s"},
		Server:    ServerConfig{Addr: "127.0.0.1:8765"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/dashboard/config.yaml, falling back to
// ~/.config/dashboard/config.yaml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "dashboard", "config.yaml")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "dashboard", "config.yaml")
}

// Load reads path (DefaultPath when empty). A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDerived()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DASHBOARD_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("DASHBOARD_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("DASHBOARD_GRAPHQL_URL"); v != "" {
		c.GraphQL.URL = v
	}
	if v := os.Getenv("DASHBOARD_GRAPHQL_TOKEN"); v != "" {
		c.GraphQL.Token = v
	}
	if v := os.Getenv("DASHBOARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DASHBOARD_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Editor.HistoryLimit = n
		}
	}
}

// fillDerived points empty directories under the data dir.
func (c *Config) fillDerived() {
	if c.Templates.Dir == "" {
		c.Templates.Dir = filepath.Join(c.DataDir, "templates")
	}
	if c.Templates.RenderersDir == "" {
		c.Templates.RenderersDir = filepath.Join(c.DataDir, "renderers")
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	valid := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if c.Store.Driver != "sqlite" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative")
	}
	if c.Revisions.Keep < 0 {
		return fmt.Errorf("revisions.keep must not be negative")
	}
	if c.Editor.Autosave != "" {
		if _, err := cron.ParseStandard(c.Editor.Autosave); err != nil {
			return fmt.Errorf("invalid editor.autosave schedule %q: %w", c.Editor.Autosave, err)
		}
	}
	if c.GraphQL.Timeout != "" {
		if _, err := time.ParseDuration(c.GraphQL.Timeout); err != nil {
			return fmt.Errorf("invalid graphql.timeout: %w", err)
		}
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

// GraphQLTimeout returns the GraphQL request timeout.
func (c *Config) GraphQLTimeout() time.Duration {
	d, err := time.ParseDuration(c.GraphQL.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stdout carries the MCP protocol; logs go to stderr
	zc.OutputPaths = []string{"stderr"}
	if c.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, c.Logging.File)
	}
	return zc.Build()
}
