// Package config loads sheetmatch settings. Sources, highest priority
// first: bound CLI flags, SHEETMATCH_* environment variables, the config
// file, built-in defaults. A .env file in the working directory is loaded
// into the environment first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/logging"
	"sheetmatch/internal/reconcile"
	"sheetmatch/internal/source"
)

// EnvPrefix is the prefix of environment overrides, e.g. SHEETMATCH_MATCH_THRESHOLD.
const EnvPrefix = "SHEETMATCH"

// Defaults
const (
	DefaultPort           = 8001
	DefaultMaxUploadBytes = 100 << 20
	DefaultCacheTTL       = 10 * time.Minute
	DefaultUploadDir      = "./uploads"
)

// Config is the effective application configuration.
type Config struct {
	Match    MatchConfig             `mapstructure:"match" yaml:"match"`
	Server   ServerConfig            `mapstructure:"server" yaml:"server"`
	Log      logging.Config          `mapstructure:"log" yaml:"log"`
	Database source.DataSourceConfig `mapstructure:"database" yaml:"database"`
}

// MatchConfig holds comparison defaults.
type MatchConfig struct {
	Threshold       int      `mapstructure:"threshold" yaml:"threshold"`
	CaseInsensitive bool     `mapstructure:"case_insensitive" yaml:"case_insensitive"`
	Scorer          string   `mapstructure:"scorer" yaml:"scorer"`
	Columns         []string `mapstructure:"columns" yaml:"columns"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	UploadDir      string        `mapstructure:"upload_dir" yaml:"upload_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			Threshold: reconcile.DefaultThreshold,
			Scorer:    string(reconcile.DefaultScorer),
			Columns:   []string{},
		},
		Server: ServerConfig{
			Port: DefaultPort,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
			MaxUploadBytes: DefaultMaxUploadBytes,
			CacheTTL:       DefaultCacheTTL,
			UploadDir:      DefaultUploadDir,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
		Database: source.DataSourceConfig{
			Type:    "postgres",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
	}
}

// SetDefaults registers every default on v so env overrides resolve for
// keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("match.threshold", d.Match.Threshold)
	v.SetDefault("match.case_insensitive", d.Match.CaseInsensitive)
	v.SetDefault("match.scorer", d.Match.Scorer)
	v.SetDefault("match.columns", d.Match.Columns)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.cache_ttl", d.Server.CacheTTL)
	v.SetDefault("server.upload_dir", d.Server.UploadDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.add_caller", d.Log.AddCaller)
	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
}

// New returns a viper instance with defaults and environment binding set
// up. cfgFile selects an explicit config file; otherwise
// $HOME/.sheetmatch/config.yaml is used when it exists.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sheetmatch"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env from the working directory if it exists. Variables
// already set in the environment are not overridden.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// ReadInConfig reads the config file into v. A missing default file is
// not an error; a missing explicit file is.
func ReadInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if apperrors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return apperrors.NewConfigError("match.threshold", c.Match.Threshold, "must be between 0 and 100")
	}
	if _, err := reconcile.ParseScorer(c.Match.Scorer); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError("server.port", c.Server.Port, "must be a valid TCP port")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return apperrors.NewConfigError("server.max_upload_bytes", c.Server.MaxUploadBytes, "must be positive")
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
