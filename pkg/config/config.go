// Package config loads arith settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full set of runtime settings.
type Config struct {
	Server  Server  `yaml:"server"`
	History History `yaml:"history"`
	REPL    REPL    `yaml:"repl"`
	Limits  Limits  `yaml:"limits"`
}

// Server configures the HTTP API, web UI and gRPC listeners.
type Server struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	GRPCPort  int    `yaml:"grpcPort"`
	AccessLog bool   `yaml:"accessLog"`
	LoadDir   string `yaml:"loadDir"`
}

// History configures the evaluation store.
type History struct {
	// Limit is the number of evaluations kept; 0 keeps everything.
	Limit int `yaml:"limit"`
}

// REPL configures the interactive shell.
type REPL struct {
	Prompt  string `yaml:"prompt"`
	ShowAST bool   `yaml:"showAST"`
	Banner  *bool  `yaml:"banner"`
}

// ShowBanner reports whether the welcome banner is printed. Defaults to true.
func (r REPL) ShowBanner() bool {
	return r.Banner == nil || *r.Banner
}

// Limits bounds the input accepted by the network surfaces.
type Limits struct {
	// MaxExpressionLength is the maximum expression length in bytes; 0 means
	// unlimited.
	MaxExpressionLength int `yaml:"maxExpressionLength"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:     "0.0.0.0",
			Port:     8787,
			GRPCPort: 8788,
		},
		History: History{Limit: 100},
		REPL:    REPL{Prompt: "> "},
		Limits:  Limits{MaxExpressionLength: 4096},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from HOST, PORT, GRPC_PORT and
// ARITH_HISTORY_LIMIT.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if err := envInt(getenv, "PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := envInt(getenv, "GRPC_PORT", &c.Server.GRPCPort); err != nil {
		return err
	}
	return envInt(getenv, "ARITH_HISTORY_LIMIT", &c.History.Limit)
}

func envInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpcPort %d out of range", c.Server.GRPCPort))
	}
	if c.History.Limit < 0 {
		errs = append(errs, fmt.Errorf("history.limit must not be negative"))
	}
	if c.Limits.MaxExpressionLength < 0 {
		errs = append(errs, fmt.Errorf("limits.maxExpressionLength must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns host:port for the HTTP server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCAddr returns host:grpcPort for the gRPC server.
func (s Server) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort)
}
