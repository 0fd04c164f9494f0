// File: internal/config/config.go
// Package config
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Command-line and TOML configuration loading for the server binary.

package config

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/server"
)

// Duration decodes TOML strings such as "5s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoggingConfig configures the file sink. An empty Dir disables the file.
type LoggingConfig struct {
	Dir          string   `toml:"dir"`
	DrainTimeout Duration `toml:"drain_timeout"`
	QueueSize    int      `toml:"queue_size"`
}

// DashboardConfig configures the console dashboard.
type DashboardConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// Config is the effective configuration of the server binary.
type Config struct {
	Path      string // config file, empty if none
	Server    *server.Config
	Logging   LoggingConfig
	Dashboard DashboardConfig
}

type serverSection struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	MaxSessions     int      `toml:"max_sessions"`
	RecvBufferSize  int      `toml:"recv_buffer_size"`
	SendBufferSize  int      `toml:"send_buffer_size"`
	PoolInitial     int      `toml:"pool_initial"`
	PoolMax         int      `toml:"pool_max"`
	SessionShards   int      `toml:"session_shards"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	NoDelay         bool     `toml:"no_delay"`
	ReusePort       bool     `toml:"reuse_port"`
	Behavior        string   `toml:"behavior"`
	EchoPrefix      string   `toml:"echo_prefix"`
	Verbose         bool     `toml:"verbose"`
}

type fileConfig struct {
	Server    serverSection   `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

func defaults() fileConfig {
	d := server.DefaultConfig()
	return fileConfig{
		Server: serverSection{
			Host:            d.Host,
			Port:            d.Port,
			MaxSessions:     d.MaxSessions,
			RecvBufferSize:  d.RecvBufferSize,
			SendBufferSize:  d.SendBufferSize,
			PoolInitial:     d.PoolInitial,
			PoolMax:         d.PoolMax,
			SessionShards:   d.SessionShards,
			ReadTimeout:     Duration{d.ReadTimeout},
			WriteTimeout:    Duration{d.WriteTimeout},
			ShutdownTimeout: Duration{d.ShutdownTimeout},
			NoDelay:         d.NoDelay,
			ReusePort:       d.ReusePort,
			Behavior:        d.Behavior,
			EchoPrefix:      d.EchoPrefix,
			Verbose:         d.Verbose,
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			DrainTimeout: Duration{time.Second},
			QueueSize:    1024,
		},
		Dashboard: DashboardConfig{
			Enabled:  true,
			Interval: Duration{time.Second},
		},
	}
}

// Default returns the configuration used when no file or flags are given.
func Default() *Config {
	fc := defaults()
	return fc.build("")
}

func (fc *fileConfig) build(path string) *Config {
	s := fc.Server
	return &Config{
		Path: path,
		Server: &server.Config{
			Host:            s.Host,
			Port:            s.Port,
			MaxSessions:     s.MaxSessions,
			RecvBufferSize:  s.RecvBufferSize,
			SendBufferSize:  s.SendBufferSize,
			PoolInitial:     s.PoolInitial,
			PoolMax:         s.PoolMax,
			SessionShards:   s.SessionShards,
			ReadTimeout:     s.ReadTimeout.Duration,
			WriteTimeout:    s.WriteTimeout.Duration,
			ShutdownTimeout: s.ShutdownTimeout.Duration,
			NoDelay:         s.NoDelay,
			ReusePort:       s.ReusePort,
			Behavior:        s.Behavior,
			EchoPrefix:      s.EchoPrefix,
			Verbose:         s.Verbose,
		},
		Logging:   fc.Logging,
		Dashboard: fc.Dashboard,
	}
}

// Load parses args (without the program name), decodes the TOML file named
// by -config if any, applies explicitly set flags on top and validates.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("hioload-tcp", flag.ContinueOnError)
	path := fs.String("config", "", "path to a TOML config file")
	port := fs.Int("port", 0, "listen port")
	maxSessions := fs.Int("max-sessions", 0, "maximum concurrent sessions")
	behavior := fs.String("behavior", "", "session behavior: echo or noop")
	logDir := fs.String("log-dir", "", "log directory, empty disables the log file")
	console := fs.Bool("console", true, "run the interactive console dashboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("config: unexpected arguments %q: %w", fs.Args(), api.ErrInvalidArgument)
	}

	fc := defaults()
	if *path != "" {
		if err := decodeFile(*path, &fc); err != nil {
			return nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			fc.Server.Port = *port
		case "max-sessions":
			fc.Server.MaxSessions = *maxSessions
		case "behavior":
			fc.Server.Behavior = *behavior
		case "log-dir":
			fc.Logging.Dir = *logDir
		case "console":
			fc.Dashboard.Enabled = *console
		}
	})

	cfg := fc.build(*path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, fc *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(fc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Logging.QueueSize <= 0 {
		return fmt.Errorf("config: log queue size %d: %w", c.Logging.QueueSize, api.ErrInvalidArgument)
	}
	if c.Logging.DrainTimeout.Duration <= 0 {
		return fmt.Errorf("config: log drain timeout %s: %w", c.Logging.DrainTimeout, api.ErrInvalidArgument)
	}
	if c.Dashboard.Interval.Duration <= 0 {
		return fmt.Errorf("config: dashboard interval %s: %w", c.Dashboard.Interval, api.ErrInvalidArgument)
	}
	return nil
}
