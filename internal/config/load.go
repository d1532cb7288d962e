package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/studiowebux/webbench/internal/catalog"
)

// ErrInvalid marks a configuration that cannot be used
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override (WEBBENCH_TIMEOUT, ...)
const EnvPrefix = "WEBBENCH"

// Settings is the resolved harness configuration
type Settings struct {
	Servers      []catalog.Server `mapstructure:"servers"`
	Timeout      time.Duration    `mapstructure:"timeout"`
	ReadyRetries int              `mapstructure:"ready_retries"`
	ReadyDelay   time.Duration    `mapstructure:"ready_delay"`
	ReadyPath    string           `mapstructure:"ready_path"`
	LogLevel     string           `mapstructure:"log_level"`
	LogFormat    string           `mapstructure:"log_format"`
	Database     string           `mapstructure:"database"`
	MetricsAddr  string           `mapstructure:"metrics_addr"`
	MaxRPS       float64          `mapstructure:"max_rps"`
}

// LoadOptions selects the sources Load reads
type LoadOptions struct {
	ConfigFile string         // Explicit config file; otherwise benchmarks.yaml in . or ConfigDir
	EnvFile    string         // Explicit .env file; otherwise ./.env when present
	Flags      *pflag.FlagSet // Flags bound over every other source
}

// flagKeys maps config keys to the CLI flags overriding them
var flagKeys = map[string]string{
	"timeout":       "timeout",
	"ready_retries": "ready-retries",
	"ready_delay":   "ready-delay",
	"log_level":     "log-level",
	"log_format":    "log-format",
	"metrics_addr":  "metrics-addr",
	"max_rps":       "max-rps",
	"database":      "database",
}

// Load resolves settings from defaults, the config file, .env, the
// environment and flags (lowest to highest precedence).
func Load(opts LoadOptions) (*Settings, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("%w: failed to load env file %s: %v", ErrInvalid, opts.EnvFile, err)
		}
	} else {
		// A missing ./.env is fine
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if ConfigDir != "" {
			v.AddConfigPath(ConfigDir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalid, err)
		}
	} else {
		slog.Debug("using config file", "path", v.ConfigFileUsed())
	}

	// Servers may also come from WEBBENCH_SERVERS="Axum=http://...,ActixWeb=http://..."
	if raw, ok := v.Get("servers").(string); ok {
		servers, err := ParseServers(raw)
		if err != nil {
			return nil, err
		}
		entries := make([]map[string]interface{}, len(servers))
		for i, srv := range servers {
			entries[i] = map[string]interface{}{"name": srv.Name, "base_url": srv.BaseURL}
		}
		v.Set("servers", entries)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(s.Servers) == 0 {
		s.Servers = catalog.DefaultServers()
	}
	if s.Database != "" && s.Database != ":memory:" {
		path, err := ExpandPath(s.Database)
		if err != nil {
			return nil, err
		}
		s.Database = path
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("ready_retries", 30)
	v.SetDefault("ready_delay", time.Second)
	v.SetDefault("ready_path", "/health")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("database", DatabasePath)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("max_rps", 0.0)
}

// Validate checks settings for values the harness cannot run with
func (s *Settings) Validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalid)
	}
	if s.ReadyRetries < 1 {
		return fmt.Errorf("%w: ready_retries must be at least 1 (got %d)", ErrInvalid, s.ReadyRetries)
	}
	if s.ReadyDelay < 0 {
		return fmt.Errorf("%w: ready_delay cannot be negative", ErrInvalid)
	}
	if s.MaxRPS < 0 {
		return fmt.Errorf("%w: max_rps cannot be negative", ErrInvalid)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json (got %q)", ErrInvalid, s.LogFormat)
	}
	for i, srv := range s.Servers {
		if srv.Name == "" || srv.BaseURL == "" {
			return fmt.Errorf("%w: servers[%d] needs both name and base_url", ErrInvalid, i)
		}
	}
	return nil
}

// ParseServers reads a "name=url,name=url" list
func ParseServers(raw string) ([]catalog.Server, error) {
	var servers []catalog.Server
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("%w: server entry %q must look like name=url", ErrInvalid, part)
		}
		servers = append(servers, catalog.Server{Name: strings.TrimSpace(name), BaseURL: strings.TrimSpace(url)})
	}
	return servers, nil
}
